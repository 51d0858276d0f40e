package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/edgard/shelfbot/internal/catalog"
)

// maxCaptionLength is Telegram's limit for media captions, in characters.
const maxCaptionLength = 1024

// Outcome describes a finished transition.
type Outcome struct {
	TransitionID string
	Screen       catalog.ScreenID
	Refs         []MessageRef
	Deleted      int
	Ignored      bool
	Rendered     bool
	Duration     time.Duration
}

// Engine moves chats between screens. Transitions for the same chat run one
// at a time; transitions for different chats run independently.
type Engine struct {
	gateway Gateway
	screens ScreenRenderer
	assets  AssetResolver
	store   *Store
	logger  *slog.Logger
}

// NewEngine creates an Engine. store may be shared with readers that only
// call Get.
func NewEngine(gateway Gateway, screens ScreenRenderer, assets AssetResolver, store *Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = NewStore()
	}
	return &Engine{
		gateway: gateway,
		screens: screens,
		assets:  assets,
		store:   store,
		logger:  logger.With("component", "navigation"),
	}
}

// Store returns the engine's chat state.
func (e *Engine) Store() *Store {
	return e.store
}

// Handle runs one transition for chatID. Unknown buttons are ignored without
// touching the transport. A failed send aborts the transition and returns an
// error; whatever was already sent stays recorded so the next transition
// removes it. A failed acknowledgement is reported with ErrAcknowledge after
// the screen has been drawn.
func (e *Engine) Handle(ctx context.Context, chatID ChatID, ev Event) (Outcome, error) {
	start := time.Now()

	var (
		dest          catalog.ScreenID
		interactionID string
	)
	switch ev := ev.(type) {
	case StartCommand:
		dest = catalog.Welcome
	case ButtonPress:
		dest = ev.Target
		interactionID = ev.InteractionID
	case UnknownButton:
		e.logger.DebugContext(ctx, "Ignoring unknown button", "chat_id", chatID, "payload", ev.Payload)
		return Outcome{Ignored: true}, nil
	default:
		return Outcome{Ignored: true}, fmt.Errorf("unsupported event %T", ev)
	}

	spec, err := e.screens.Render(dest)
	if err != nil {
		return Outcome{Ignored: true}, fmt.Errorf("failed to look up screen %s: %w", dest, err)
	}

	out := Outcome{TransitionID: uuid.NewString(), Screen: dest}
	log := e.logger.With("transition_id", out.TransitionID, "chat_id", chatID, "event", ev.Name(), "screen", dest.String())

	release := e.store.acquire(chatID)
	defer release()

	out.Deleted = e.clear(ctx, log, chatID)

	var ackErr error
	if interactionID != "" {
		if err := e.gateway.Acknowledge(ctx, interactionID); err != nil {
			log.WarnContext(ctx, "Failed to acknowledge interaction", "error", err)
			ackErr = fmt.Errorf("%w: %w", ErrAcknowledge, err)
		}
	}

	refs, renderErr := e.render(ctx, log, chatID, spec)
	e.store.Replace(chatID, refs)
	out.Refs = refs
	out.Rendered = renderErr == nil
	out.Duration = time.Since(start)

	if renderErr != nil {
		log.ErrorContext(ctx, "Transition incomplete", "error", renderErr, "recorded", len(refs))
		return out, errors.Join(renderErr, ackErr)
	}

	log.DebugContext(ctx, "Transition complete", "deleted", out.Deleted, "sent", len(refs), "duration", out.Duration)
	return out, ackErr
}

// clear deletes the chat's live messages. Failures are logged and skipped.
func (e *Engine) clear(ctx context.Context, log *slog.Logger, chatID ChatID) int {
	live := e.store.Get(chatID)
	deleted := 0
	for _, ref := range live {
		err := e.gateway.DeleteMessage(ctx, chatID, ref)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, ErrMessageGone):
			log.DebugContext(ctx, "Message already gone", "message_id", ref)
		default:
			log.WarnContext(ctx, "Failed to delete message", "message_id", ref, "error", err)
		}
	}
	e.store.Replace(chatID, nil)
	return deleted
}

// render sends the screen and returns every message it produced, including
// on failure.
func (e *Engine) render(ctx context.Context, log *slog.Logger, chatID ChatID, spec catalog.RenderSpec) ([]MessageRef, error) {
	var refs []MessageRef

	ref, err := e.sendPrimary(ctx, log, chatID, spec)
	if err != nil {
		return refs, fmt.Errorf("failed to send screen message: %w", err)
	}
	refs = append(refs, ref)

	if spec.Attachment == nil {
		return refs, nil
	}

	att := spec.Attachment
	if doc, ok := e.assets.Book(att.Asset); ok {
		ref, err = e.gateway.SendDocument(ctx, chatID, doc, att.Caption)
		if err != nil {
			return refs, fmt.Errorf("failed to send document %q: %w", att.Asset, err)
		}
	} else {
		log.WarnContext(ctx, "Book asset missing, sending fallback", "asset", att.Asset)
		ref, err = e.gateway.SendText(ctx, chatID, att.MissingText, nil)
		if err != nil {
			return refs, fmt.Errorf("failed to send missing asset notice: %w", err)
		}
	}
	return append(refs, ref), nil
}

func (e *Engine) sendPrimary(ctx context.Context, log *slog.Logger, chatID ChatID, spec catalog.RenderSpec) (MessageRef, error) {
	if spec.Photo != "" {
		photo, ok := e.assets.Media(spec.Photo)
		switch {
		case !ok:
			log.WarnContext(ctx, "Screen photo missing, sending text only", "photo", spec.Photo)
		case utf8.RuneCountInString(spec.Text) > maxCaptionLength:
			log.WarnContext(ctx, "Screen text too long for a caption, sending text only", "photo", spec.Photo)
		default:
			return e.gateway.SendPhoto(ctx, chatID, photo, spec.Text, spec.Keyboard)
		}
	}
	return e.gateway.SendText(ctx, chatID, spec.Text, spec.Keyboard)
}
