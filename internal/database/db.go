// Package database holds the sqlite transition journal: opening the file,
// schema migrations, row models and the Store used by the dispatcher and
// scheduled tasks.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/shelfbot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// Journal writes come from many chats at once; sqlite serializes them, so
// writers wait instead of failing with SQLITE_BUSY.
var journalPragmas = []string{
	"PRAGMA busy_timeout = 5000;",
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
}

// NewDB opens the journal at dbPath and brings its schema up to date.
func NewDB(dbPath string, logger *slog.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "journal_db", "path", dbPath)

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %q: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	for _, pragma := range journalPragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn("Failed to apply pragma", "pragma", pragma, "error", err)
		}
	}

	version, err := ApplyMigrations(db.DB, ExtractDBNameFromPath(dbPath), log)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close journal after migration failure", "error", closeErr)
		}
		return nil, err
	}

	log.Info("Journal database ready", "schema_version", version)
	return db, nil
}

// CloseDB closes the journal. A nil db is ignored.
func CloseDB(db *sqlx.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("Failed to close journal database", "error", err)
	}
}

// ApplyMigrations migrates db to the newest embedded schema and returns the
// resulting schema version.
func ApplyMigrations(db *sql.DB, dbName string, log *slog.Logger) (uint, error) {
	if db == nil {
		return 0, errors.New("cannot migrate a nil database")
	}
	if dbName == "" {
		return 0, errors.New("cannot migrate without a database name")
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return 0, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrator: %w", err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("Journal schema already current")
	case err != nil:
		return 0, fmt.Errorf("failed to migrate journal schema: %w", err)
	default:
		log.Info("Journal schema migrated")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read journal schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("journal schema version %d is dirty", version)
	}
	return version, nil
}

// ExtractDBNameFromPath reduces a sqlite DSN (optionally "file:" prefixed,
// with query parameters) to the decoded file name.
func ExtractDBNameFromPath(dsn string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
