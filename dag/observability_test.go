package dag

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
)

func TestWithTracing_RecordsStepSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	p := New("traced",
		constStep("ok", nil, []string{"x"}, 1, nil),
		failStep("boom", []string{"x"}, errors.New("fail")),
	)
	_, err := NewEngine(logger.NewNop(), WithHooks(WithTracing)).Run(context.Background(), p, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	statuses := map[string]string{}
	for _, s := range exporter.GetSpans() {
		if s.Name != observability.SpanStep {
			continue
		}
		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range s.Attributes {
			attrs[kv.Key] = kv.Value
		}
		if attrs[observability.AttrPipeline].AsString() != "traced" {
			t.Errorf("span missing pipeline attribute: %v", s.Attributes)
		}
		statuses[attrs[observability.AttrStep].AsString()] = attrs[observability.AttrStepStatus].AsString()
	}
	if statuses["ok"] != "completed" || statuses["boom"] != "failed" {
		t.Fatalf("unexpected step span statuses %v", statuses)
	}
}

func TestWithMetrics_RecordsSteps(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	p := New("metered",
		constStep("a", nil, []string{"x"}, 1, nil),
		NewStep("gate", []string{"x"}, nil, func(context.Context, ArtifactSet) (ArtifactSet, error) {
			return nil, ErrSkip
		}),
	)
	if _, err := NewEngine(logger.NewNop(), WithHooks(WithMetrics(metrics))).Run(context.Background(), p, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	byStatus := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok || md.Name != "pipeline.step.total" {
				continue
			}
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				byStatus[status.AsString()] += dp.Value
			}
		}
	}
	if byStatus["completed"] != 1 || byStatus["skipped"] != 1 {
		t.Fatalf("unexpected step counts %v", byStatus)
	}
}

func TestWithLogging_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "dag-test", &buf)

	p := New("logged", failStep("broken", nil, errors.New("disk full")))
	_, _ = NewEngine(logger.NewNop(), WithHooks(WithLogging(log))).Run(context.Background(), p, nil)

	out := buf.String()
	for _, want := range []string{`"step":"broken"`, `"status":"failed"`, "disk full", `"pipeline":"logged"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got %s", want, out)
		}
	}
}
