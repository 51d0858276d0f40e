package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewFallbackHandler returns the default handler for updates no registered
// handler matched. Free text, stickers and other commands are ignored.
func NewFallbackHandler(logger *slog.Logger) bot.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("handler", "fallback")

	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		attrs := []any{"update_id", update.ID}
		if update.Message != nil {
			attrs = append(attrs, "chat_id", update.Message.Chat.ID)
		}
		log.DebugContext(ctx, "Ignoring unhandled update", attrs...)
	}
}
