package runstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/dag"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
)

var _ dag.Recorder = (*Store)(nil)

// Store persists run metadata.
type Store struct {
	db     *gorm.DB
	log    *logger.Logger
	mu     sync.Mutex
	closed bool
}

// Open connects to SQLite and migrates the schema.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("runstore")

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: newGormLogger(log, cfg.SlowQueryThreshold, parseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:" to
	// a single database.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping run store: %w", err)
	}

	version, err := migrateUp(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("run store ready", map[string]interface{}{"schema_version": version})
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying connection. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.closed = true
	return sqlDB.Close()
}

// RunStarted inserts a running PipelineRun.
func (s *Store) RunStarted(ctx context.Context, pipeline, runID string, started time.Time) error {
	run := PipelineRun{
		ID:        runID,
		Pipeline:  pipeline,
		Status:    string(dag.StatusRunning),
		StartedAt: started.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fromDB(err, "pipeline_run", runID)
	}
	return nil
}

// StepFinished inserts a StepRun and the locations of its persisted outputs.
func (s *Store) StepFinished(ctx context.Context, pipeline, runID string, step dag.StepResult) error {
	row := StepRun{
		RunID:      runID,
		Step:       step.Name,
		Status:     string(step.Status),
		StartedAt:  step.Started.UTC(),
		DurationMS: step.Duration.Milliseconds(),
	}
	if step.Error != nil {
		row.Error = step.Error.Error()
	}
	outputs := make([]string, 0, len(step.Locations))
	for name := range step.Locations {
		outputs = append(outputs, name)
	}
	sort.Strings(outputs)
	now := time.Now().UTC()
	for _, name := range outputs {
		row.Artifacts = append(row.Artifacts, StepArtifact{
			RunID:     runID,
			Pipeline:  pipeline,
			Step:      step.Name,
			Output:    name,
			Location:  string(step.Locations[name]),
			CreatedAt: now,
		})
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fromDB(err, "step_run", step.Name)
	}
	return nil
}

// RunFinished sets the final status of a run.
func (s *Store) RunFinished(ctx context.Context, runID string, status dag.Status, finished time.Time, runErr error) error {
	updates := map[string]interface{}{
		"status":      string(status),
		"finished_at": finished.UTC(),
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	res := s.db.WithContext(ctx).Model(&PipelineRun{}).Where("id = ?", runID).Updates(updates)
	if res.Error != nil {
		return fromDB(res.Error, "pipeline_run", runID)
	}
	if res.RowsAffected == 0 {
		return fromDB(gorm.ErrRecordNotFound, "pipeline_run", runID)
	}
	return nil
}

// Run returns a run with its steps and artifacts.
func (s *Store) Run(ctx context.Context, runID string) (*PipelineRun, error) {
	var run PipelineRun
	err := s.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Steps.Artifacts").
		First(&run, "id = ?", runID).Error
	if err != nil {
		return nil, fromDB(err, "pipeline_run", runID)
	}
	return &run, nil
}

// Runs lists the most recent runs of a pipeline, newest first. limit <= 0
// means no limit.
func (s *Store) Runs(ctx context.Context, pipeline string, limit int) ([]PipelineRun, error) {
	q := s.db.WithContext(ctx).Where("pipeline = ?", pipeline).Order("started_at DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []PipelineRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fromDB(err, "pipeline_run", "")
	}
	return runs, nil
}

// LatestArtifact returns where the most recent run of pipeline persisted
// step's output.
func (s *Store) LatestArtifact(ctx context.Context, pipeline, step, output string) (artifact.Location, error) {
	var row StepArtifact
	err := s.db.WithContext(ctx).
		Where("pipeline = ? AND step = ? AND output = ?", pipeline, step, output).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return "", fromDB(err, "artifact", pipeline+"/"+step+"/"+output)
	}
	return artifact.Location(row.Location), nil
}

// CheckHealth pings the database.
func (s *Store) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: "runstore", Status: observability.HealthStatusUp}
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}
