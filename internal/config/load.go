package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment variables recognized as defaults for their settings. Explicit
// flags bound into the viper instance take precedence.
var envBindings = map[string]string{
	"youtrack.url":   "YOUTRACK_URL",
	"youtrack.token": "YOUTRACK_TOKEN",
	"sync.board":     "YOUTRACK_BOARD",
	"sync.project":   "YOUTRACK_PROJECT",
	"sync.field":     "YTSPRINT_FIELD",
	"sync.forward":   "YTSPRINT_FORWARD",
	"daemon.cron":    "YTSPRINT_CRON",
	"log_level":      "YTSPRINT_LOG_LEVEL",
}

// SetDefaults installs default values and environment bindings on the given
// viper instance. Called before flag binding so flag values win over both.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sync.field", "Sprints")
	v.SetDefault("sync.forward", 0)
	v.SetDefault("daemon.cron", "0 8 * * 1")
	v.SetDefault("daemon.metrics_addr", "0.0.0.0")
	v.SetDefault("daemon.metrics_port", 9108)
	v.SetDefault("log_level", "info")

	for key, env := range envBindings {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key, env)
	}
}

// Load unmarshals the viper instance into a Config and validates it.
// Validation failures report the offending setting by its config key so the
// message tells the operator exactly what to fix.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks the config against its struct tags and converts validator
// errors into operator-friendly messages.
func validate(cfg *Config) error {
	validate := validator.New()

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", configKey(ve.Namespace()), ve.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// configKey converts a validator namespace like "Config.YouTrack.BaseURL"
// into the config key form operators use ("youtrack.url").
func configKey(namespace string) string {
	switch namespace {
	case "Config.YouTrack.BaseURL":
		return "youtrack.url (--url)"
	case "Config.YouTrack.Token":
		return "youtrack.token (--token)"
	case "Config.Sync.Board":
		return "sync.board (--board)"
	case "Config.Sync.Forward":
		return "sync.forward (--forward)"
	case "Config.Daemon.Cron":
		return "daemon.cron (--cron)"
	case "Config.Daemon.MetricsAddr":
		return "daemon.metrics_addr (--metrics-addr)"
	case "Config.Daemon.MetricsPort":
		return "daemon.metrics_port (--metrics-port)"
	case "Config.LogLevel":
		return "log_level (--log-level)"
	default:
		return strings.ToLower(strings.TrimPrefix(namespace, "Config."))
	}
}
