package modelserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/model"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/serving"
)

// Server answers prediction requests for one classifier.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	classifier *model.LogisticRegression
	modelName  string
	metrics    *observability.Metrics
	cfg        ServerConfig
	log        *logger.Logger
}

// LoadClassifier restores the classifier persisted at uri.
func LoadClassifier(ctx context.Context, m *artifact.Materializer, uri string) (*model.LogisticRegression, error) {
	a, err := m.Restore(ctx, artifact.Location(uri), artifact.KindClassifier)
	if err != nil {
		return nil, err
	}
	return a.Classifier, nil
}

// New builds a server for a fitted classifier. metrics may be nil.
func New(cfg ServerConfig, modelName string, clf *model.LogisticRegression, metrics *observability.Metrics, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:     gin.New(),
		classifier: clf,
		modelName:  modelName,
		metrics:    metrics,
		cfg:        cfg,
		log:        log.WithComponent("modelserver"),
	}
	s.engine.Use(recovery(s.log), requestID(), bodyLimit(cfg.MaxBodyBytes), requestLogger(s.log, serving.HealthPath))
	s.engine.GET(serving.HealthPath, s.handlePing)
	s.engine.POST(serving.PredictionsPath, s.handlePredict)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("model server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", map[string]interface{}{"error": err.Error()})
		}
	}()
	s.log.Info("model server started", map[string]interface{}{
		"addr":     listener.Addr().String(),
		"model":    s.modelName,
		"features": len(s.classifier.Features),
	})
	return nil
}

// Stop shuts the server down, waiting up to 5 seconds for requests in flight.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("model server shutdown: %w", err)
	}
	s.log.Info("model server stopped")
	return nil
}
