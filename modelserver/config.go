package modelserver

import (
	"fmt"
	"time"

	"github.com/kbukum/mlopskit/config"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/storage"
	"github.com/kbukum/mlopskit/validation"
)

// Config is the model server binary configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server  ServerConfig         `yaml:"server" mapstructure:"server"`
	Model   ModelConfig          `yaml:"model" mapstructure:"model"`
	Storage storage.Config       `yaml:"storage" mapstructure:"storage"`
	Tracing observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxBodyBytes bounds prediction request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ModelConfig names the classifier to serve.
type ModelConfig struct {
	// URI is the artifact location the classifier was persisted to.
	URI  string `yaml:"uri" mapstructure:"uri" validate:"required"`
	Name string `yaml:"name" mapstructure:"name"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20
	}
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ApplyDefaults sets defaults for every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "modelserver"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Model.Name == "" {
		c.Model.Name = "model"
	}
	c.Storage.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// GetTracingConfig returns the telemetry section.
func (c *Config) GetTracingConfig() observability.Config {
	return c.Tracing
}
