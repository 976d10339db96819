package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/model"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/serving"
	"github.com/kbukum/mlopskit/storage"
	"github.com/kbukum/mlopskit/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fittedClassifier learns y = 1 when tenure is small.
func fittedClassifier(t *testing.T) *model.LogisticRegression {
	t.Helper()
	X := [][]float64{{1, 80}, {2, 90}, {3, 70}, {40, 20}, {50, 25}, {60, 30}}
	y := []float64{1, 1, 1, 0, 0, 0}
	clf := model.NewLogisticRegression(model.DefaultParams())
	if err := clf.Fit(X, y, []string{"tenure", "MonthlyCharges"}); err != nil {
		t.Fatal(err)
	}
	return clf
}

func post(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, serving.PredictionsPath, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_Ping(t *testing.T) {
	s := New(ServerConfig{}, "model", fittedClassifier(t), nil, logger.NewNop())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, serving.HealthPath, http.NoBody))
	if rr.Code != http.StatusOK || rr.Body.String() != "pong" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(headerRequestID) == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_Predict(t *testing.T) {
	s := New(ServerConfig{}, "model", fittedClassifier(t), nil, logger.NewNop())

	// Columns in reverse order; the server aligns them by name.
	rr := post(t, s.Handler(), serving.Payload{Data: serving.Tensor{
		Names:   []string{"MonthlyCharges", "tenure"},
		NDArray: [][]float64{{85, 2}, {22, 55}},
	}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out serving.Payload
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Data.Names) != 2 || out.Data.Names[1] != "t:1" {
		t.Errorf("names = %v", out.Data.Names)
	}
	labels := out.Data.ArgMax()
	if labels[0] != 1 || labels[1] != 0 {
		t.Errorf("labels = %v, want [1 0]", labels)
	}
	for i, row := range out.Data.NDArray {
		if sum := row[0] + row[1]; sum < 0.999 || sum > 1.001 {
			t.Errorf("row %d probabilities sum to %v", i, sum)
		}
	}
}

func TestServer_PredictErrors(t *testing.T) {
	s := New(ServerConfig{}, "model", fittedClassifier(t), nil, logger.NewNop())
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"data":`},
		{"no rows", serving.Payload{Data: serving.Tensor{Names: []string{"tenure", "MonthlyCharges"}}}},
		{"missing feature", serving.Payload{Data: serving.Tensor{Names: []string{"tenure", "x"}, NDArray: [][]float64{{1, 2}}}}},
		{"wrong width", serving.Payload{Data: serving.Tensor{NDArray: [][]float64{{1, 2, 3}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, s.Handler(), tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
			}
			var resp errors.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error.Code != errors.ErrCodeInvalidInput {
				t.Errorf("code = %q", resp.Error.Code)
			}
		})
	}
}

func TestServer_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	s := New(ServerConfig{}, "model", fittedClassifier(t), metrics, logger.NewNop())
	post(t, s.Handler(), serving.Payload{Data: serving.Tensor{NDArray: [][]float64{{1, 80}, {2, 70}, {50, 20}}}})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var rows int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok && md.Name == "prediction.rows" {
				for _, dp := range sum.DataPoints {
					rows += dp.Value
				}
			}
		}
	}
	if rows != 3 {
		t.Errorf("prediction.rows = %d, want 3", rows)
	}
}

func TestLoadClassifier(t *testing.T) {
	ctx := context.Background()
	mat := artifact.NewMaterializer(memory.New(), logger.NewNop())
	clf := fittedClassifier(t)
	loc := artifact.Location("continuous_deployment_pipeline/run/model_trainer/model")
	if err := mat.Persist(ctx, artifact.FromClassifier(clf), loc); err != nil {
		t.Fatal(err)
	}

	got, err := LoadClassifier(ctx, mat, string(loc))
	if err != nil {
		t.Fatalf("LoadClassifier() error = %v", err)
	}
	if !got.Equal(clf) {
		t.Error("restored classifier differs")
	}
	if _, err := LoadClassifier(ctx, mat, "nowhere"); !errors.HasCode(err, errors.ErrCodeCorruptArtifact) {
		t.Errorf("expected CORRUPT_ARTIFACT, got %v", err)
	}
}

func TestServer_StartStop(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	s := New(ServerConfig{Host: "127.0.0.1", Port: port}, "model", fittedClassifier(t), nil, logger.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Model: ModelConfig{URI: "p/r/s/model"}, Storage: storage.Config{Provider: storage.ProviderMemory}}
	cfg.ApplyDefaults()
	if cfg.Name != "modelserver" || cfg.Server.Port != 8080 || cfg.Model.Name != "model" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	cfg.Model.URI = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing model uri")
	}
}
