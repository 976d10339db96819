package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.MetricsInterval != 15*time.Second {
		t.Errorf("expected interval 15s, got %v", cfg.MetricsInterval)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, ServiceInfo{Name: "churnctl"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	cfg := Config{Enabled: true, Endpoint: "127.0.0.1:1", Insecure: true}
	shutdown, err := Setup(context.Background(), cfg, ServiceInfo{Name: "churnctl", Version: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Nothing was recorded, so flushing has nothing to send.
	_ = shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v): expected %s, got %s", tc.rate, tc.want, got)
		}
	}
}

func TestStartSpanAttributes(t *testing.T) {
	exporter := installRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanStep)
	SetSpanAttribute(ctx, AttrPipeline, "continuous_deployment_pipeline")
	SetSpanAttribute(ctx, AttrRows, 42)
	SetSpanAttribute(ctx, "accuracy", 0.81)
	SetSpanAttribute(ctx, "deploy", true)
	SetSpanAttribute(ctx, "columns", []string{"a", "b"})
	SetSpanAttribute(ctx, "duration", time.Second)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrPipeline].AsString() != "continuous_deployment_pipeline" {
		t.Errorf("unexpected pipeline attribute %v", attrs[AttrPipeline])
	}
	if attrs[AttrRows].AsInt64() != 42 {
		t.Errorf("unexpected rows attribute %v", attrs[AttrRows])
	}
	if attrs["duration"].AsString() != "1s" {
		t.Errorf("expected fallback string attribute, got %v", attrs["duration"])
	}
}

func TestSetSpanError(t *testing.T) {
	exporter := installRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanDeploy)
	SetSpanError(ctx, fmt.Errorf("deployment did not become ready"))
	SetSpanError(ctx, nil)
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if len(got.Events) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(got.Events))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span error"))
}

func TestMetricsRecordStep(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	m.RecordStep(ctx, "training", "model_trainer", "completed", 20*time.Millisecond)
	m.RecordStep(ctx, "training", "evaluation", "failed", 5*time.Millisecond)
	m.RecordPrediction(ctx, 3, time.Millisecond)
	m.RecordError(ctx, "STEP_EXECUTION", "dag")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if s, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	if sums["pipeline.step.total"] != 2 {
		t.Errorf("expected 2 step executions, got %d", sums["pipeline.step.total"])
	}
	if sums["prediction.rows"] != 3 {
		t.Errorf("expected 3 prediction rows, got %d", sums["prediction.rows"])
	}
	if sums["error.total"] != 1 {
		t.Errorf("expected 1 error, got %d", sums["error.total"])
	}
}

type fixedHealth Health

func (f fixedHealth) CheckHealth(context.Context) Health { return Health(f) }

func TestCheckAll(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
	}{
		{"no components", nil, HealthStatusUp},
		{"all up", []HealthStatus{HealthStatusUp, HealthStatusUp}, HealthStatusUp},
		{"degraded", []HealthStatus{HealthStatusUp, HealthStatusDegraded}, HealthStatusDegraded},
		{"down wins", []HealthStatus{HealthStatusDown, HealthStatusDegraded}, HealthStatusDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var checkers []HealthChecker
			for i, s := range tc.statuses {
				checkers = append(checkers, fixedHealth{Name: fmt.Sprintf("c%d", i), Status: s})
			}
			sh := CheckAll(context.Background(), "modelserver", "v1", checkers...)
			if sh.Status != tc.want {
				t.Errorf("expected %s, got %s", tc.want, sh.Status)
			}
			if len(sh.Components) != len(tc.statuses) {
				t.Errorf("expected %d components, got %d", len(tc.statuses), len(sh.Components))
			}
		})
	}
}
