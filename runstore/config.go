package runstore

import (
	"time"

	"github.com/kbukum/mlopskit/validation"
)

const (
	defaultDSN                = "file:mlopskit-runs.db?_busy_timeout=5000"
	defaultSlowQueryThreshold = 200 * time.Millisecond
	defaultLogLevel           = "warn"
)

// Config holds run store configuration.
type Config struct {
	// DSN is the SQLite data source name. ":memory:" keeps runs for the
	// life of the process.
	DSN string `yaml:"dsn" mapstructure:"dsn" validate:"required"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"oneof=silent error warn info"`

	// SlowQueryThreshold is the duration above which queries are logged as slow.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.DSN == "" {
		c.DSN = defaultDSN
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = defaultSlowQueryThreshold
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
