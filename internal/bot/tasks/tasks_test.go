package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/shelfbot/internal/assets"
	"github.com/edgard/shelfbot/internal/catalog"
	"github.com/edgard/shelfbot/internal/config"
	"github.com/edgard/shelfbot/internal/database"
)

func newDeps(t *testing.T, logOut io.Writer) TaskDeps {
	t.Helper()
	if logOut == nil {
		logOut = io.Discard
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err := database.NewDB(filepath.Join(t.TempDir(), "journal.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db, nil) })

	screens, err := catalog.Load()
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	books := screens.Books()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("books", books[0].Asset), []byte("%PDF"), 0o644))

	return TaskDeps{
		Logger:  log,
		Store:   database.NewStore(db, log),
		Catalog: screens,
		Assets:  assets.NewLibrary(fs, "books", "media", log),
		Config: &config.Config{Scheduler: config.SchedulerConfig{
			JournalRetention:    time.Hour,
			VisitReportInterval: time.Hour,
		}},
	}
}

func save(t *testing.T, store database.Store, chatID int64, screen string, age time.Duration) {
	t.Helper()
	require.NoError(t, store.SaveTransition(context.Background(), &database.Transition{
		ChatID:    chatID,
		Event:     "button",
		Screen:    screen,
		Status:    database.StatusCompleted,
		CreatedAt: time.Now().UTC().Add(-age),
	}))
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()
	reg := RegisterAllTasks(newDeps(t, nil))

	for name := range config.DefaultTasks {
		assert.Contains(t, reg, name)
	}
	assert.Len(t, reg, len(config.DefaultTasks))
}

func TestAuditAssets(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	deps := newDeps(t, &buf)
	books := deps.Catalog.Books()

	missing := AuditAssets(context.Background(), deps)

	want := make([]catalog.BookKey, 0, len(books)-1)
	for _, b := range books[1:] {
		want = append(want, b.Key)
	}
	assert.Equal(t, want, missing)
	assert.Contains(t, buf.String(), "Book file missing")
	for _, b := range books[1:] {
		assert.Contains(t, buf.String(), fmt.Sprintf("title=%q", b.Title))
	}
	assert.NotContains(t, buf.String(), fmt.Sprintf("title=%q", books[0].Title))
	assert.NotContains(t, buf.String(), "book="+string(books[0].Key)+" ")

	require.NoError(t, newAssetAuditTask(deps)(context.Background()))
}

func TestJournalRetentionTask(t *testing.T) {
	t.Parallel()
	deps := newDeps(t, nil)
	ctx := context.Background()

	save(t, deps.Store, 1, "welcome", 3*time.Hour)
	save(t, deps.Store, 1, "catalog", 2*time.Hour)
	save(t, deps.Store, 1, "about", time.Minute)

	require.NoError(t, newJournalRetentionTask(deps)(ctx))

	visits, err := deps.Store.CountVisitsSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []database.ScreenVisits{{Screen: "about", Visits: 1, Chats: 1}}, visits)
}

func TestVisitReportTask(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	deps := newDeps(t, &buf)

	save(t, deps.Store, 1, "catalog", time.Minute)
	save(t, deps.Store, 2, "catalog", time.Minute)
	save(t, deps.Store, 2, "about", time.Minute)
	save(t, deps.Store, 3, "about", 2*time.Hour)

	require.NoError(t, newVisitReportTask(deps)(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "screen=catalog visits=2 chats=2")
	assert.Contains(t, out, "screen=about visits=1 chats=1")
	assert.Contains(t, out, "transitions=3")
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()
	deps := newDeps(t, nil)

	require.NoError(t, newSQLMaintenanceTask(deps)(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, newSQLMaintenanceTask(deps)(ctx))
}

func TestSQLMaintenanceTask_SkipsUnreachableJournal(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	db, err := database.NewDB(filepath.Join(t.TempDir(), "journal.db"), log)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	deps := TaskDeps{Logger: log, Store: database.NewStore(db, log)}
	err = newSQLMaintenanceTask(deps)(context.Background())
	require.ErrorContains(t, err, "sql maintenance skipped")
	assert.Contains(t, buf.String(), "Skipping SQL maintenance")
	assert.NotContains(t, buf.String(), "Starting database maintenance")
}
