package bootstrap

import (
	"github.com/kbukum/mlopskit/config"
	"github.com/kbukum/mlopskit/observability"
)

// Config is the constraint on application configuration types. Any struct
// embedding config.ServiceConfig gets GetServiceConfig by promotion.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

// TracingConfig is implemented by configs that carry a telemetry section.
type TracingConfig interface {
	GetTracingConfig() observability.Config
}
