package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Telegram shows a chat action for about five seconds.
const defaultActionInterval = 4 * time.Second

type chatActioner interface {
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// uploadIndicator keeps an "uploading document" status visible while a book
// is being sent.
type uploadIndicator struct {
	api      chatActioner
	interval time.Duration
	logger   *slog.Logger
}

// start sends the action at once and repeats it until the returned stop
// function is called.
func (u *uploadIndicator) start(ctx context.Context, chatID int64) (stop func()) {
	if u == nil || u.api == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()

		for {
			if err := u.send(ctx, chatID); err != nil {
				if ctx.Err() != nil {
					return
				}
				u.logger.DebugContext(ctx, "Chat action failed", "chat_id", chatID, "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (u *uploadIndicator) send(ctx context.Context, chatID int64) error {
	if _, err := u.api.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionUploadDocument,
	}); err != nil {
		return fmt.Errorf("failed to send upload action: %w", err)
	}
	return nil
}
