// Package bootstrap runs a binary's lifecycle: configuration defaults and
// validation, logger initialization, telemetry setup, start and stop hooks,
// and signal-driven shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(store.Close)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return controller.Run(ctx, opts)
//	})
//
// RunTask is for finite work such as a CLI invocation; Run blocks until
// SIGINT, SIGTERM or context cancellation and suits servers.
package bootstrap
