// Package main is the entrypoint of the book catalog bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/afero"

	"github.com/edgard/shelfbot/internal/assets"
	"github.com/edgard/shelfbot/internal/bot"
	"github.com/edgard/shelfbot/internal/bot/handlers"
	"github.com/edgard/shelfbot/internal/bot/tasks"
	"github.com/edgard/shelfbot/internal/catalog"
	"github.com/edgard/shelfbot/internal/config"
	"github.com/edgard/shelfbot/internal/database"
	"github.com/edgard/shelfbot/internal/logger"
	"github.com/edgard/shelfbot/internal/navigation"
	"github.com/edgard/shelfbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires the components, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path, log)
	if err != nil {
		log.Error("Failed to open journal database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db, log)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Journal database is not reachable", "path", cfg.Database.Path, "error", err)
		return 1
	}

	screens, err := catalog.Load()
	if err != nil {
		log.Error("Failed to load catalog content", "error", err)
		return 1
	}
	library := assets.NewLibrary(afero.NewOsFs(), cfg.Assets.BooksDir, cfg.Assets.MediaDir, log)

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Catalog: screens,
		Assets:  library,
		Config:  cfg,
	}
	tasks.AuditAssets(ctx, tDeps)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewFallbackHandler(log)),
	}
	if cfg.Telegram.Mode == config.ModeWebhook && cfg.Telegram.SecretToken != "" {
		botOpts = append(botOpts, tgbot.WithWebhookSecretToken(cfg.Telegram.SecretToken))
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	gateway := telegram.NewGateway(tg, library, log)
	engine := navigation.NewEngine(gateway, screens, library, navigation.NewStore(), log)
	dispatcher := telegram.NewDispatcher(telegram.DispatcherConfig{
		Handler:           engine,
		Resolver:          screens,
		Answerer:          tg,
		Journal:           store,
		Logger:            log,
		MaxConcurrent:     cfg.Navigation.MaxConcurrent,
		TransitionTimeout: cfg.Navigation.TransitionTimeout,
	})

	hDeps := handlers.HandlerDeps{Logger: log, Dispatch: dispatcher.HandleUpdate}
	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllHandlers(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	listener := telegram.NewListener(tg, cfg.Telegram, log)
	app := bot.NewBot(log, cfg, listener, sched, dispatcher)

	log.Info("Starting bot", "mode", cfg.Telegram.Mode, "books", len(screens.Books()))
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bot stopped due to error", "error", err)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}
