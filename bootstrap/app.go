package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
)

// App is a binary with a uniform lifecycle. C is the config type.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	skipTelemetry   bool
	checkers        []observability.HealthChecker

	onStart []Hook
	onStop  []Hook
}

// NewApp applies config defaults, validates, and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		skipTelemetry:   o.skipTelemetry,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// AddHealthCheck registers checkers consulted by ReadyCheck.
func (a *App[C]) AddHealthCheck(checkers ...observability.HealthChecker) {
	a.checkers = append(a.checkers, checkers...)
}

// ReadyCheck reports the aggregated health of registered checkers.
func (a *App[C]) ReadyCheck(ctx context.Context) *observability.ServiceHealth {
	return observability.CheckAll(ctx, a.Name, a.Version, a.checkers...)
}

// Run starts the app and blocks until a shutdown signal or ctx is done.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return firstErr(err, a.stop())
	}
	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask runs a finite task with the app lifecycle around it. SIGINT and
// SIGTERM cancel the task's context. The task's error wins over a stop
// error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return firstErr(err, a.stop())
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := task(taskCtx)
	return firstErr(taskErr, a.stop())
}

// firstErr prefers the primary error and falls back to the secondary.
func firstErr(primary, secondary error) error {
	if primary != nil {
		return primary
	}
	return secondary
}

func (a *App[C]) startup(ctx context.Context) error {
	a.Logger.Info("starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if tc, ok := any(a.Cfg).(TracingConfig); ok && !a.skipTelemetry {
		base := a.Cfg.GetServiceConfig()
		shutdown, err := observability.Setup(ctx, tc.GetTracingConfig(), observability.ServiceInfo{
			Name:        base.Name,
			Version:     base.Version,
			Environment: base.Environment,
		})
		if err != nil {
			return fmt.Errorf("telemetry setup: %w", err)
		}
		// Registered first so it runs last and flushes spans from the other hooks.
		a.onStop = append([]Hook{shutdown}, a.onStop...)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if health := a.ReadyCheck(ctx); health.Status != observability.HealthStatusUp {
		a.Logger.Warn("ready check reported issues", map[string]interface{}{
			"status":     string(health.Status),
			"components": health.Components,
		})
	}
	return nil
}

// WaitForSignal blocks until SIGINT, SIGTERM or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", map[string]interface{}{"signal": sig.String()})
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// stop runs stop hooks in reverse order within the graceful timeout. Every
// hook runs; their errors are joined.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.Error("stop hook error", map[string]interface{}{"error": err.Error()})
			errs = append(errs, err)
		}
	}
	a.Logger.Debug("application shutdown complete")
	return stderrors.Join(errs...)
}
