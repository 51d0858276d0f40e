package tasks

import (
	"context"
	"fmt"
	"time"
)

// newVisitReportTask logs how often each screen was shown during the last
// report interval.
func newVisitReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "visit_report")

	return func(ctx context.Context) error {
		interval := deps.Config.Scheduler.VisitReportInterval
		since := time.Now().UTC().Add(-interval)

		visits, err := deps.Store.CountVisitsSince(ctx, since)
		if err != nil {
			return fmt.Errorf("visit report failed: %w", err)
		}

		total := 0
		for _, v := range visits {
			total += v.Visits
			log.InfoContext(ctx, "Screen visits", "screen", v.Screen, "visits", v.Visits, "chats", v.Chats)
		}
		log.InfoContext(ctx, "Visit report", "since", since, "screens", len(visits), "transitions", total)
		return nil
	}
}
