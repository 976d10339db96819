// Package observability wires OpenTelemetry tracing and metrics.
//
// Binaries call Setup with the tracing section of their config; when it is
// disabled the global no-op providers stay installed and every span and
// instrument in this module costs nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg.Tracing, observability.ServiceInfo{Name: "churnctl"})
//	defer shutdown(context.Background())
//
// Pipeline steps are traced as SpanStep spans carrying AttrPipeline,
// AttrRunID and AttrStep, and counted through Metrics.RecordStep.
package observability
