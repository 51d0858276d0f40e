package tasks

import (
	"context"

	"github.com/edgard/shelfbot/internal/catalog"
)

func newAssetAuditTask(deps TaskDeps) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		AuditAssets(ctx, deps)
		return nil
	}
}

// AuditAssets logs every catalog book whose file is missing and returns the
// keys of those books. A missing file is not an error: the book screen falls
// back to a notice until the file appears.
func AuditAssets(ctx context.Context, deps TaskDeps) []catalog.BookKey {
	log := deps.Logger.With("task", "asset_audit")

	var missing []catalog.BookKey
	books := deps.Catalog.Books()
	for _, book := range books {
		if _, ok := deps.Assets.Book(book.Asset); ok {
			continue
		}
		missing = append(missing, book.Key)
		log.WarnContext(ctx, "Book file missing", "book", book.Key, "title", book.Title, "asset", book.Asset)
	}

	log.InfoContext(ctx, "Asset audit finished", "books", len(books), "missing", len(missing))
	return missing
}
