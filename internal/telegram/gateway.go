package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/shelfbot/internal/assets"
	"github.com/edgard/shelfbot/internal/catalog"
	"github.com/edgard/shelfbot/internal/navigation"
)

// API is the subset of *bot.Bot the gateway and dispatcher use.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// AssetOpener opens resolved assets for upload.
type AssetOpener interface {
	Open(a assets.Asset) (io.ReadCloser, error)
}

// Gateway implements navigation.Gateway over the Telegram Bot API.
type Gateway struct {
	api    API
	opener AssetOpener
	upload *uploadIndicator
}

var _ navigation.Gateway = (*Gateway)(nil)

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithUploadActionInterval sets how often the "uploading document" chat
// action is repeated during a book upload. Zero disables it.
func WithUploadActionInterval(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d <= 0 || g.upload == nil {
			g.upload = nil
			return
		}
		g.upload.interval = d
	}
}

// NewGateway creates a Gateway. api is usually a *bot.Bot.
func NewGateway(api API, opener AssetOpener, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		api:    api,
		opener: opener,
		upload: &uploadIndicator{
			api:      api,
			interval: defaultActionInterval,
			logger:   logger.With("component", "gateway"),
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) SendText(ctx context.Context, chatID navigation.ChatID, text string, kb catalog.Keyboard) (navigation.MessageRef, error) {
	msg, err := g.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      int64(chatID),
		Text:        text,
		ReplyMarkup: inlineKeyboard(kb),
	})
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return navigation.MessageRef(msg.ID), nil
}

func (g *Gateway) SendPhoto(ctx context.Context, chatID navigation.ChatID, photo assets.Asset, caption string, kb catalog.Keyboard) (navigation.MessageRef, error) {
	rc, err := g.opener.Open(photo)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	msg, err := g.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      int64(chatID),
		Photo:       &models.InputFileUpload{Filename: photo.Name, Data: rc},
		Caption:     caption,
		ReplyMarkup: inlineKeyboard(kb),
	})
	if err != nil {
		return 0, fmt.Errorf("send photo %q: %w", photo.Name, err)
	}
	return navigation.MessageRef(msg.ID), nil
}

func (g *Gateway) SendDocument(ctx context.Context, chatID navigation.ChatID, doc assets.Asset, caption string) (navigation.MessageRef, error) {
	rc, err := g.opener.Open(doc)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	stop := g.upload.start(ctx, int64(chatID))
	defer stop()

	msg, err := g.api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   int64(chatID),
		Document: &models.InputFileUpload{Filename: doc.Name, Data: rc},
		Caption:  caption,
	})
	if err != nil {
		return 0, fmt.Errorf("send document %q: %w", doc.Name, err)
	}
	return navigation.MessageRef(msg.ID), nil
}

// DeleteMessage reports navigation.ErrMessageGone when Telegram no longer
// knows the message.
func (g *Gateway) DeleteMessage(ctx context.Context, chatID navigation.ChatID, ref navigation.MessageRef) error {
	_, err := g.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    int64(chatID),
		MessageID: int(ref),
	})
	if err == nil {
		return nil
	}
	if isMessageGone(err) {
		return fmt.Errorf("%w: %w", navigation.ErrMessageGone, err)
	}
	return fmt.Errorf("delete message %d: %w", ref, err)
}

func (g *Gateway) Acknowledge(ctx context.Context, interactionID string) error {
	if _, err := g.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: interactionID}); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}
	return nil
}

func isMessageGone(err error) bool {
	if !errors.Is(err, bot.ErrorBadRequest) {
		return false
	}
	desc := strings.ToLower(err.Error())
	return strings.Contains(desc, "message to delete not found") ||
		strings.Contains(desc, "message not found")
}

// inlineKeyboard converts kb to Telegram markup. An empty keyboard yields a
// nil interface so no reply_markup is sent.
func inlineKeyboard(kb catalog.Keyboard) models.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{Text: b.Label, CallbackData: b.Payload})
		}
		rows = append(rows, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
