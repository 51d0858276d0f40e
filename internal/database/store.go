package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the journal operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveTransition appends a journal row.
	SaveTransition(ctx context.Context, t *Transition) error

	// CountVisitsSince aggregates transitions per screen created at or after since.
	CountVisitsSince(ctx context.Context, since time.Time) ([]ScreenVisits, error)

	// DeleteTransitionsBefore removes rows older than before and returns how many were removed.
	DeleteTransitionsBefore(ctx context.Context, before time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("journal database unreachable: %w", err)
	}
	return nil
}

func (s *sqlxStore) SaveTransition(ctx context.Context, t *Transition) error {
	if t == nil {
		return errors.New("cannot save nil transition")
	}
	if t.ChatID == 0 {
		return errors.New("transition must have a non-zero chat_id")
	}
	if t.Event == "" || t.Status == "" {
		return errors.New("transition must have an event and a status")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO transitions (transition_id, chat_id, event, screen, messages, deleted, status, error, duration_ms, created_at)
        VALUES (:transition_id, :chat_id, :event, :screen, :messages, :deleted, :status, :error, :duration_ms, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving transition", "chat_id", t.ChatID, "error", err)
		return fmt.Errorf("failed to save transition (chat %d): %w", t.ChatID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read inserted transition id", "error", err)
		return nil
	}
	t.ID = id
	return nil
}

func (s *sqlxStore) CountVisitsSince(ctx context.Context, since time.Time) ([]ScreenVisits, error) {
	var visits []ScreenVisits
	query := `
        SELECT screen, COUNT(*) AS visits, COUNT(DISTINCT chat_id) AS chats
        FROM transitions
        WHERE created_at >= ? AND screen != ''
        GROUP BY screen
        ORDER BY visits DESC, screen ASC;
    `
	if err := s.db.SelectContext(ctx, &visits, query, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error counting screen visits", "error", err)
		return nil, fmt.Errorf("failed to count screen visits: %w", err)
	}
	return visits, nil
}

func (s *sqlxStore) DeleteTransitionsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transitions WHERE created_at < ?`, before.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning transitions", "before", before, "error", err)
		return 0, fmt.Errorf("failed to delete old transitions: %w", err)
	}
	n, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Pruned transition journal", "deleted", n, "before", before)
	return n, nil
}

// RunSQLMaintenance runs VACUUM. SQLite requires it outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
