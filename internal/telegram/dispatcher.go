package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/semaphore"

	"github.com/edgard/shelfbot/internal/database"
	"github.com/edgard/shelfbot/internal/navigation"
)

const (
	startCommand   = "/start"
	journalTimeout = 5 * time.Second
)

var (
	// ErrUnsupportedUpdate marks updates the bot does not react to.
	ErrUnsupportedUpdate = errors.New("unsupported update")
	// ErrNoChat marks callbacks that carry no chat to render into.
	ErrNoChat = errors.New("callback query has no associated chat")
	// ErrShuttingDown is returned by Submit once Shutdown has started.
	ErrShuttingDown = errors.New("dispatcher is shutting down")
)

// Handler runs transitions. *navigation.Engine implements it.
type Handler interface {
	Handle(ctx context.Context, chatID navigation.ChatID, ev navigation.Event) (navigation.Outcome, error)
}

// Journal records finished transitions. database.Store implements it.
type Journal interface {
	SaveTransition(ctx context.Context, t *database.Transition) error
}

// callbackAnswerer answers callbacks that never reach the engine.
type callbackAnswerer interface {
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// DispatcherConfig holds the dispatcher's collaborators and limits.
type DispatcherConfig struct {
	Handler           Handler
	Resolver          navigation.PayloadResolver
	Answerer          callbackAnswerer
	Journal           Journal // optional
	Logger            *slog.Logger
	MaxConcurrent     int
	TransitionTimeout time.Duration
}

// Dispatcher decodes updates into navigation events and runs them. Each chat
// has its own FIFO queue drained by one worker goroutine, so a chat's events
// run one at a time in arrival order. A worker takes a global slot only while
// a transition is running, which keeps a busy chat from starving the others.
type Dispatcher struct {
	handler  Handler
	resolver navigation.PayloadResolver
	answerer callbackAnswerer
	journal  Journal
	logger   *slog.Logger
	sem      *semaphore.Weighted
	timeout  time.Duration

	mu       sync.Mutex
	closed   bool
	queues   map[navigation.ChatID][]queuedEvent
	inFlight sync.WaitGroup
}

type queuedEvent struct {
	ctx context.Context
	ev  navigation.Event
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.TransitionTimeout <= 0 {
		cfg.TransitionTimeout = 30 * time.Second
	}
	return &Dispatcher{
		handler:  cfg.Handler,
		resolver: cfg.Resolver,
		answerer: cfg.Answerer,
		journal:  cfg.Journal,
		logger:   cfg.Logger.With("component", "dispatcher"),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		timeout:  cfg.TransitionTimeout,
		queues:   make(map[navigation.ChatID][]queuedEvent),
	}
}

// HandleUpdate is a bot.HandlerFunc. It returns as soon as the event has been
// queued.
func (d *Dispatcher) HandleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ev, err := d.Decode(update)
	switch {
	case errors.Is(err, ErrUnsupportedUpdate):
		d.logger.DebugContext(ctx, "Ignoring update", "update_id", update.ID)
		return
	case errors.Is(err, ErrNoChat):
		d.logger.WarnContext(ctx, "Rejecting callback without chat", "update_id", update.ID)
		d.answer(ctx, update.CallbackQuery.ID)
		return
	case err != nil:
		d.logger.ErrorContext(ctx, "Failed to decode update", "update_id", update.ID, "error", err)
		return
	}

	if err := d.Submit(ctx, chatID, ev); err != nil {
		d.logger.WarnContext(ctx, "Dropping event", "chat_id", chatID, "event", ev.Name(), "error", err)
		d.answer(ctx, interactionID(ev))
	}
}

// Decode classifies an update. Only /start and callback queries are events.
func (d *Dispatcher) Decode(update *models.Update) (navigation.ChatID, navigation.Event, error) {
	switch {
	case update == nil:
		return 0, nil, ErrUnsupportedUpdate

	case update.Message != nil:
		if !isStartCommand(update.Message.Text) {
			return 0, nil, ErrUnsupportedUpdate
		}
		return navigation.ChatID(update.Message.Chat.ID), navigation.StartCommand{}, nil

	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		var chatID int64
		switch {
		case q.Message.Message != nil:
			chatID = q.Message.Message.Chat.ID
		case q.Message.InaccessibleMessage != nil:
			chatID = q.Message.InaccessibleMessage.Chat.ID
		}
		if chatID == 0 {
			return 0, nil, ErrNoChat
		}
		return navigation.ChatID(chatID), navigation.DecodeButton(d.resolver, q.ID, q.Data), nil
	}
	return 0, nil, ErrUnsupportedUpdate
}

// Submit queues ev behind the chat's earlier events and returns at once.
// The transition is detached from ctx cancellation so shutdown never
// interrupts it halfway.
func (d *Dispatcher) Submit(ctx context.Context, chatID navigation.ChatID, ev navigation.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrShuttingDown
	}

	q, running := d.queues[chatID]
	d.queues[chatID] = append(q, queuedEvent{ctx: context.WithoutCancel(ctx), ev: ev})
	d.inFlight.Add(1)
	if !running {
		go d.work(chatID)
	}
	return nil
}

// work drains the chat's queue and removes it once empty.
func (d *Dispatcher) work(chatID navigation.ChatID) {
	for {
		d.mu.Lock()
		q := d.queues[chatID]
		if len(q) == 0 {
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
		next := q[0]
		q[0] = queuedEvent{}
		d.queues[chatID] = q[1:]
		d.mu.Unlock()

		d.process(next.ctx, chatID, next.ev)
		d.inFlight.Done()
	}
}

// process waits for a global slot, bounded by the transition timeout, then
// runs the transition with a fresh timeout.
func (d *Dispatcher) process(ctx context.Context, chatID navigation.ChatID, ev navigation.Event) {
	wctx, cancelWait := context.WithTimeout(ctx, d.timeout)
	err := d.sem.Acquire(wctx, 1)
	cancelWait()
	if err != nil {
		d.logger.WarnContext(ctx, "Transition slot wait timed out, dropping event",
			"chat_id", chatID, "event", ev.Name(), "error", err)
		d.answer(ctx, interactionID(ev))
		return
	}
	defer d.sem.Release(1)

	tctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	d.run(tctx, chatID, ev)
}

func (d *Dispatcher) run(ctx context.Context, chatID navigation.ChatID, ev navigation.Event) {
	out, err := d.handler.Handle(ctx, chatID, ev)

	if unknown, ok := ev.(navigation.UnknownButton); ok {
		d.answer(ctx, unknown.InteractionID)
	}

	if err != nil {
		d.logger.ErrorContext(ctx, "Transition failed",
			"chat_id", chatID, "event", ev.Name(), "transition_id", out.TransitionID, "error", err)
	}
	if out.Ignored {
		return
	}
	d.record(ctx, chatID, ev, out, err)
}

func (d *Dispatcher) record(ctx context.Context, chatID navigation.ChatID, ev navigation.Event, out navigation.Outcome, err error) {
	if d.journal == nil {
		return
	}

	status := database.StatusCompleted
	switch {
	case !out.Rendered:
		status = database.StatusIncomplete
	case err != nil:
		status = database.StatusDegraded
	}
	t := &database.Transition{
		TransitionID: out.TransitionID,
		ChatID:       int64(chatID),
		Event:        ev.Name(),
		Screen:       out.Screen.String(),
		Messages:     len(out.Refs),
		Deleted:      out.Deleted,
		Status:       status,
		DurationMS:   out.Duration.Milliseconds(),
	}
	if err != nil {
		t.Error = err.Error()
	}

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if jerr := d.journal.SaveTransition(jctx, t); jerr != nil {
		d.logger.WarnContext(ctx, "Failed to journal transition", "transition_id", out.TransitionID, "error", jerr)
	}
}

func (d *Dispatcher) answer(ctx context.Context, callbackID string) {
	if d.answerer == nil || callbackID == "" {
		return
	}
	if _, err := d.answerer.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		d.logger.WarnContext(ctx, "Failed to answer callback query", "callback_query_id", callbackID, "error", err)
	}
}

// Shutdown stops accepting events and waits for in-flight transitions until
// ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.InfoContext(ctx, "All in-flight transitions finished")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight transitions: %w", ctx.Err())
	}
}

// interactionID returns the callback to answer for ev, if any.
func interactionID(ev navigation.Event) string {
	switch ev := ev.(type) {
	case navigation.ButtonPress:
		return ev.InteractionID
	case navigation.UnknownButton:
		return ev.InteractionID
	}
	return ""
}

func isStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == startCommand
}
