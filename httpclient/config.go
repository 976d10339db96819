package httpclient

import (
	"time"

	"github.com/kbukum/mlopskit/resilience"
	"github.com/kbukum/mlopskit/validation"
)

const (
	defaultTimeout = 30 * time.Second
	defaultService = "http"
)

// Config configures the HTTP client.
type Config struct {
	// Service names the remote side in errors and logs.
	Service string `yaml:"service" mapstructure:"service"`

	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout bounds a single attempt. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry configures retry behavior. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Service == "" {
		c.Service = defaultService
	}
	if c.Retry != nil {
		if c.Retry.RetryIf == nil {
			c.Retry.RetryIf = IsRetryable
		}
		c.Retry.ApplyDefaults()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// DefaultRetryConfig returns a retry config that only retries errors
// classified as retryable by this package.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
