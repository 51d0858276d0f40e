package tasks

import (
	"context"
	"fmt"
	"time"
)

// newJournalRetentionTask deletes journal rows older than the configured
// retention.
func newJournalRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "journal_retention")

	return func(ctx context.Context) error {
		retention := deps.Config.Scheduler.JournalRetention
		cutoff := time.Now().UTC().Add(-retention)

		removed, err := deps.Store.DeleteTransitionsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("journal retention failed: %w", err)
		}

		log.InfoContext(ctx, "Pruned transition journal", "removed", removed, "cutoff", cutoff, "retention", retention)
		return nil
	}
}
