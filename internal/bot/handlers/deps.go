// Package handlers contains the Telegram update handlers and their
// registration table.
package handlers

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"
)

// HandlerDeps provides dependencies for update handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	// Dispatch receives every update a handler accepts. It is the
	// dispatcher's HandleUpdate in production.
	Dispatch tgbot.HandlerFunc
}
