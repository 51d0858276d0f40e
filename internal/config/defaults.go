package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultTelegramMode        = ModePolling
	DefaultTelegramListenAddr  = ":8080"
	DefaultDropPendingUpdates  = true
	DefaultTransitionTimeout   = 30 * time.Second // Bound for one delete-then-render transition
	DefaultMaxConcurrent       = 64               // Transitions in flight across all chats
	DefaultShutdownTimeout     = 15 * time.Second // Drain window for in-flight transitions
	DefaultBooksDir            = "books"
	DefaultMediaDir            = "media"
	DefaultDatabasePath        = "journal.db"
	DefaultJournalRetention    = 30 * 24 * time.Hour
	DefaultVisitReportInterval = 24 * time.Hour
)

// Transport modes
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Scheduled task names. They match the keys used under scheduler.tasks.
const (
	TaskSQLMaintenance   = "sql_maintenance"
	TaskJournalRetention = "journal_retention"
	TaskAssetAudit       = "asset_audit"
	TaskVisitReport      = "visit_report"
)

// DefaultTasks holds the default schedules (cron with seconds).
var DefaultTasks = map[string]TaskConfig{
	TaskSQLMaintenance:   {Enabled: true, Schedule: "0 0 4 * * 0"},
	TaskJournalRetention: {Enabled: true, Schedule: "0 30 3 * * *"},
	TaskAssetAudit:       {Enabled: true, Schedule: "0 0 * * * *"},
	TaskVisitReport:      {Enabled: true, Schedule: "0 0 9 * * *"},
}
