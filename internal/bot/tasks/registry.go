package tasks

import (
	"context"

	"github.com/edgard/shelfbot/internal/config"
)

// ScheduledTaskFunc is the signature of every task. Tasks should honour ctx
// cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used under
// scheduler.tasks in the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskSQLMaintenance:   newSQLMaintenanceTask(deps),
		config.TaskJournalRetention: newJournalRetentionTask(deps),
		config.TaskAssetAudit:       newAssetAuditTask(deps),
		config.TaskVisitReport:      newVisitReportTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
