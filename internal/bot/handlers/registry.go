package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is one entry of the registration table.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// Registry keys.
const (
	StartCommand = "/start"
	Callbacks    = "callback_query"
)

// RegisterAllHandlers returns the handlers the bot reacts to: the /start
// command and every inline button press.
func RegisterAllHandlers(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers[StartCommand] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	// An empty prefix matches all callback data; decoding happens in the
	// dispatcher.
	handlers[Callbacks] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "",
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	return handlers
}
