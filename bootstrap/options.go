package bootstrap

import (
	"time"

	"github.com/kbukum/mlopskit/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	skipTelemetry   bool
}

// WithLogger uses log instead of initializing the global logger from config.
func WithLogger(log *logger.Logger) Option {
	return func(o *appOptions) { o.logger = log }
}

// WithGracefulTimeout bounds the time stop hooks may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithoutTelemetry skips telemetry setup even when the config enables it.
func WithoutTelemetry() Option {
	return func(o *appOptions) { o.skipTelemetry = true }
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
