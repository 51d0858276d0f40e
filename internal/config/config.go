// Package config provides configuration loading, validation, and defaults
// for the bot. Values come from defaults, an optional YAML file, a .env file
// and BOT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config defines the application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Assets     AssetsConfig     `mapstructure:"assets"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and listener settings.
type TelegramConfig struct {
	Token              string `mapstructure:"token"                validate:"required"`
	Mode               string `mapstructure:"mode"                 validate:"oneof=polling webhook"`
	WebhookURL         string `mapstructure:"webhook_url"          validate:"required_if=Mode webhook,omitempty,url"`
	ListenAddr         string `mapstructure:"listen_addr"          validate:"required_if=Mode webhook"`
	SecretToken        string `mapstructure:"secret_token"         validate:"omitempty,max=256"`
	DropPendingUpdates bool   `mapstructure:"drop_pending_updates"`
}

// NavigationConfig bounds transition execution.
type NavigationConfig struct {
	TransitionTimeout time.Duration `mapstructure:"transition_timeout" validate:"min=1s,max=5m"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"     validate:"min=1,max=4096"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"   validate:"min=1s,max=5m"`
}

// AssetsConfig locates book files and media.
type AssetsConfig struct {
	BooksDir string `mapstructure:"books_dir" validate:"required"`
	MediaDir string `mapstructure:"media_dir" validate:"required"`
}

// DatabaseConfig locates the transition journal.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig configures scheduled tasks.
type SchedulerConfig struct {
	JournalRetention    time.Duration         `mapstructure:"journal_retention"     validate:"min=1h"`
	VisitReportInterval time.Duration         `mapstructure:"visit_report_interval" validate:"min=1m"`
	Tasks               map[string]TaskConfig `mapstructure:"tasks"                 validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (with seconds).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// LoadConfig reads configuration from path (which may not exist), applies
// .env and BOT_* environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Info("Configuration loaded",
		"mode", cfg.Telegram.Mode,
		"books_dir", cfg.Assets.BooksDir,
		"db_path", cfg.Database.Path,
		"duration_ms", time.Since(startTime).Milliseconds())
	slog.Debug("Detailed configuration",
		"transition_timeout", cfg.Navigation.TransitionTimeout,
		"max_concurrent", cfg.Navigation.MaxConcurrent,
		"shutdown_timeout", cfg.Navigation.ShutdownTimeout,
		"journal_retention", cfg.Scheduler.JournalRetention)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	// Token has no default; registering the key lets BOT_TELEGRAM_TOKEN reach Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.mode", DefaultTelegramMode)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.listen_addr", DefaultTelegramListenAddr)
	v.SetDefault("telegram.secret_token", "")
	v.SetDefault("telegram.drop_pending_updates", DefaultDropPendingUpdates)

	v.SetDefault("navigation.transition_timeout", DefaultTransitionTimeout)
	v.SetDefault("navigation.max_concurrent", DefaultMaxConcurrent)
	v.SetDefault("navigation.shutdown_timeout", DefaultShutdownTimeout)

	v.SetDefault("assets.books_dir", DefaultBooksDir)
	v.SetDefault("assets.media_dir", DefaultMediaDir)

	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("scheduler.journal_retention", DefaultJournalRetention)
	v.SetDefault("scheduler.visit_report_interval", DefaultVisitReportInterval)
	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
