// Package navigation implements the per-chat screen state machine: it tracks
// which messages are live in each chat and replaces them atomically when the
// user moves to another screen.
package navigation

import (
	"context"
	"errors"

	"github.com/edgard/shelfbot/internal/assets"
	"github.com/edgard/shelfbot/internal/catalog"
)

// ChatID identifies a conversation.
type ChatID int64

// MessageRef identifies a message sent by the bot.
type MessageRef int

var (
	// ErrMessageGone is returned by Gateway.DeleteMessage when the message no
	// longer exists. Callers treat it as a successful delete.
	ErrMessageGone = errors.New("message already gone")

	// ErrAcknowledge marks a failed interaction acknowledgement. The
	// transition itself completed.
	ErrAcknowledge = errors.New("failed to acknowledge interaction")
)

// Gateway is the chat transport used to draw and clear screens. A nil
// keyboard sends the message without buttons.
type Gateway interface {
	SendText(ctx context.Context, chatID ChatID, text string, kb catalog.Keyboard) (MessageRef, error)
	SendPhoto(ctx context.Context, chatID ChatID, photo assets.Asset, caption string, kb catalog.Keyboard) (MessageRef, error)
	SendDocument(ctx context.Context, chatID ChatID, doc assets.Asset, caption string) (MessageRef, error)
	DeleteMessage(ctx context.Context, chatID ChatID, ref MessageRef) error
	Acknowledge(ctx context.Context, interactionID string) error
}

// AssetResolver reports whether catalog files exist.
type AssetResolver interface {
	Book(name string) (assets.Asset, bool)
	Media(name string) (assets.Asset, bool)
}

// ScreenRenderer turns a screen into its content.
type ScreenRenderer interface {
	Render(id catalog.ScreenID) (catalog.RenderSpec, error)
}
