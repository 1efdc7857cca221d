package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	YouTrack YouTrackConfig `mapstructure:"youtrack" validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	LogLevel string         `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// YouTrackConfig contains the connection settings for the remote tracker.
type YouTrackConfig struct {
	BaseURL string `mapstructure:"url"   validate:"required,url"`
	Token   string `mapstructure:"token" validate:"required"`
}

// SyncConfig contains the reconciliation target settings.
type SyncConfig struct {
	Board   string `mapstructure:"board"   validate:"required"`
	Project string `mapstructure:"project"`
	Field   string `mapstructure:"field"`
	Week    string `mapstructure:"week"`
	Forward int    `mapstructure:"forward" validate:"gte=0"`
}

// DaemonConfig contains the scheduling and metrics settings for daemon mode.
type DaemonConfig struct {
	Cron        string `mapstructure:"cron"         validate:"required"`
	MetricsAddr string `mapstructure:"metrics_addr" validate:"required"`
	MetricsPort int    `mapstructure:"metrics_port" validate:"required,gt=0,lt=65536"`
}
