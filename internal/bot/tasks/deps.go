// Package tasks implements the bot's scheduled maintenance and reporting
// tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/shelfbot/internal/assets"
	"github.com/edgard/shelfbot/internal/catalog"
	"github.com/edgard/shelfbot/internal/config"
	"github.com/edgard/shelfbot/internal/database"
)

// BookCatalog lists the books screens can offer. *catalog.Screens implements it.
type BookCatalog interface {
	Books() []catalog.Entry
}

// BookResolver checks book files. *assets.Library implements it.
type BookResolver interface {
	Book(name string) (assets.Asset, bool)
}

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Catalog BookCatalog
	Assets  BookResolver
	Config  *config.Config
}
