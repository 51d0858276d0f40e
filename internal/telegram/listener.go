package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/shelfbot/internal/config"
)

const (
	webhookReadHeaderTimeout = 10 * time.Second
	webhookShutdownTimeout   = 5 * time.Second
)

// Updater is the part of *bot.Bot that receives updates.
type Updater interface {
	Start(ctx context.Context)
	StartWebhook(ctx context.Context)
	WebhookHandler() http.HandlerFunc
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
	DeleteWebhook(ctx context.Context, params *bot.DeleteWebhookParams) (bool, error)
}

// Listener feeds updates into the bot's handlers until its context ends.
type Listener struct {
	updater Updater
	cfg     config.TelegramConfig
	logger  *slog.Logger
}

// NewListener creates a Listener for the configured mode.
func NewListener(updater Updater, cfg config.TelegramConfig, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		updater: updater,
		cfg:     cfg,
		logger:  logger.With("component", "listener", "mode", cfg.Mode),
	}
}

// Run blocks until ctx is cancelled or the webhook server fails.
func (l *Listener) Run(ctx context.Context) error {
	switch l.cfg.Mode {
	case config.ModeWebhook:
		ln, err := net.Listen("tcp", l.cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", l.cfg.ListenAddr, err)
		}
		return l.serveWebhook(ctx, ln)
	case config.ModePolling, "":
		return l.poll(ctx)
	default:
		return fmt.Errorf("unknown telegram mode %q", l.cfg.Mode)
	}
}

func (l *Listener) poll(ctx context.Context) error {
	// getUpdates is refused while a webhook is set.
	if _, err := l.updater.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: l.cfg.DropPendingUpdates}); err != nil {
		return fmt.Errorf("failed to delete webhook before polling: %w", err)
	}

	l.logger.InfoContext(ctx, "Starting long polling")
	l.updater.Start(ctx)
	l.logger.InfoContext(ctx, "Long polling stopped")

	if ctx.Err() == nil {
		return errors.New("telegram polling stopped unexpectedly")
	}
	return nil
}

func (l *Listener) serveWebhook(ctx context.Context, ln net.Listener) error {
	if _, err := l.updater.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                l.cfg.WebhookURL,
		SecretToken:        l.cfg.SecretToken,
		DropPendingUpdates: l.cfg.DropPendingUpdates,
	}); err != nil {
		ln.Close()
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	srv := &http.Server{
		Handler:           l.updater.WebhookHandler(),
		ReadHeaderTimeout: webhookReadHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.updater.StartWebhook(gCtx)
		return nil
	})
	g.Go(func() error {
		l.logger.InfoContext(ctx, "Webhook server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), webhookShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.logger.Warn("Webhook server shutdown incomplete", "error", err)
		}
		return nil
	})

	err := g.Wait()
	l.logger.Info("Webhook listener stopped")
	return err
}
