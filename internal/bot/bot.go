// Package bot runs the bot's long-lived components and shuts them down in
// order: the listener and scheduler stop first, then in-flight transitions
// are drained.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/shelfbot/internal/config"
)

// Listener receives updates until ctx is cancelled.
type Listener interface {
	Run(ctx context.Context) error
}

// Drainer stops accepting work and waits for what is in flight.
type Drainer interface {
	Shutdown(ctx context.Context) error
}

// Bot manages the lifecycle of the listener, scheduler and dispatcher.
type Bot struct {
	logger     *slog.Logger
	cfg        *config.Config
	listener   Listener
	scheduler  *Scheduler
	dispatcher Drainer
}

// NewBot creates the orchestrator.
func NewBot(logger *slog.Logger, cfg *config.Config, listener Listener, scheduler *Scheduler, dispatcher Drainer) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:     logger.With("component", "bot_orchestrator"),
		cfg:        cfg,
		listener:   listener,
		scheduler:  scheduler,
		dispatcher: dispatcher,
	}
}

// Run blocks until ctx is cancelled or a component fails, then drains
// in-flight transitions for at most the configured shutdown timeout.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.listener.Run(gCtx); err != nil {
			b.logger.Error("Listener stopped with error", "error", err)
			return fmt.Errorf("listener: %w", err)
		}
		if gCtx.Err() == nil {
			return errors.New("listener stopped unexpectedly")
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	runErr := g.Wait()
	drainErr := b.drain()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", runErr)
		return errors.Join(runErr, drainErr)
	}
	if drainErr != nil {
		return drainErr
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}

func (b *Bot) drain() error {
	if b.dispatcher == nil {
		return nil
	}

	timeout := config.DefaultShutdownTimeout
	if b.cfg != nil && b.cfg.Navigation.ShutdownTimeout > 0 {
		timeout = b.cfg.Navigation.ShutdownTimeout
	}

	b.logger.Info("Draining in-flight transitions", "timeout", timeout)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := b.dispatcher.Shutdown(ctx); err != nil {
		b.logger.Warn("Transitions still running after shutdown timeout", "error", err)
		return fmt.Errorf("drain: %w", err)
	}
	b.logger.Info("Drain complete", "duration", time.Since(start))
	return nil
}
