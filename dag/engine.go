package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/model"
	"github.com/kbukum/mlopskit/observability"
)

// Recorder receives run and step outcomes as they happen. Recorder errors
// are logged and never fail a run.
type Recorder interface {
	RunStarted(ctx context.Context, pipeline, runID string, started time.Time) error
	StepFinished(ctx context.Context, pipeline, runID string, step StepResult) error
	RunFinished(ctx context.Context, runID string, status Status, finished time.Time, runErr error) error
}

// Hook decorates every step of a run.
type Hook func(Step) Step

// Engine executes pipelines in dependency order, one step at a time.
type Engine struct {
	materializer *artifact.Materializer
	recorder     Recorder
	hooks        []Hook
	log          *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaterializer persists artifact outputs after each step.
func WithMaterializer(m *artifact.Materializer) Option {
	return func(e *Engine) { e.materializer = m }
}

// WithRecorder reports runs to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithHooks wraps every step with hooks, first hook outermost.
func WithHooks(hooks ...Hook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, hooks...) }
}

// NewEngine creates an engine.
func NewEngine(log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{log: log.WithComponent("dag")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunInfo identifies the run a context belongs to.
type RunInfo struct {
	Pipeline string
	RunID    string
}

type runInfoKey struct{}

// RunFromContext returns the run executing the current step.
func RunFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}

// Run executes p with in as the initial artifacts. The first failing step
// aborts the run; its error is returned as STEP_EXECUTION together with the
// partial result.
func (e *Engine) Run(ctx context.Context, p *Pipeline, in ArtifactSet) (*Result, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	ctx = context.WithValue(ctx, runInfoKey{}, RunInfo{Pipeline: p.Name, RunID: runID})
	ctx = logger.ContextWithRun(ctx, p.Name, runID)
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, p.Name)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	log := e.log.WithContext(ctx)
	log.Info("pipeline run started", logger.Fields("steps", len(g.Steps)))
	e.record(ctx, func() error { return e.recorder.RunStarted(ctx, p.Name, runID, start) })

	result := &Result{
		Pipeline: p.Name,
		RunID:    runID,
		Status:   StatusRunning,
		Outputs:  in.Clone(),
	}
	skipped := make(map[string]bool)

	for _, level := range levels {
		for _, name := range level {
			step := g.Steps[name]
			sr := StepResult{Name: name, Started: time.Now()}

			if err := ctx.Err(); err != nil {
				return e.fail(ctx, result, sr, err, start)
			}

			if upstreamSkipped(g, name, skipped) {
				sr.Status = StatusSkipped
				skipped[name] = true
				e.finishStep(ctx, result, sr)
				continue
			}

			out, err := e.execute(ctx, step, result.Outputs)
			sr.Duration = time.Since(sr.Started)
			switch {
			case stderrors.Is(err, ErrSkip):
				sr.Status = StatusSkipped
				skipped[name] = true
				e.finishStep(ctx, result, sr)
				continue
			case err != nil:
				return e.fail(ctx, result, sr, err, start)
			}

			locs, err := e.persist(ctx, p.Name, runID, name, out)
			if err != nil {
				return e.fail(ctx, result, sr, err, start)
			}
			for k, v := range out {
				result.Outputs[k] = v
			}
			sr.Status = StatusCompleted
			sr.Locations = locs
			e.finishStep(ctx, result, sr)
		}
	}

	result.Status = StatusCompleted
	result.Duration = time.Since(start)
	e.record(ctx, func() error { return e.recorder.RunFinished(ctx, runID, StatusCompleted, time.Now(), nil) })
	log.Info("pipeline run completed", logger.MergeWithDuration(nil, result.Duration))
	return result, nil
}

// execute gathers the step inputs, runs it through the hooks and checks its
// declared outputs.
func (e *Engine) execute(ctx context.Context, step Step, available ArtifactSet) (ArtifactSet, error) {
	in := make(ArtifactSet, len(step.Inputs()))
	for _, name := range step.Inputs() {
		v, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("missing input %q", name)
		}
		in[name] = v
	}

	wrapped := step
	for i := len(e.hooks) - 1; i >= 0; i-- {
		wrapped = e.hooks[i](wrapped)
	}

	out, err := wrapped.Execute(ctx, in)
	if err != nil {
		return nil, err
	}

	declared := make(ArtifactSet, len(step.Outputs()))
	for _, name := range step.Outputs() {
		v, ok := out[name]
		if !ok {
			return nil, fmt.Errorf("declared output %q not produced", name)
		}
		declared[name] = v
	}
	return declared, nil
}

// persist materializes the artifact outputs of one step.
func (e *Engine) persist(ctx context.Context, pipeline, runID, step string, out ArtifactSet) (map[string]artifact.Location, error) {
	if e.materializer == nil {
		return nil, nil
	}
	var locs map[string]artifact.Location
	for name, v := range out {
		a, ok := asArtifact(v)
		if !ok {
			continue
		}
		loc := OutputLocation(pipeline, runID, step, name)
		if err := e.materializer.Persist(ctx, a, loc); err != nil {
			return nil, fmt.Errorf("persist output %q: %w", name, err)
		}
		if locs == nil {
			locs = make(map[string]artifact.Location)
		}
		locs[name] = loc
	}
	return locs, nil
}

// OutputLocation is where the engine persists output of step during a run.
func OutputLocation(pipeline, runID, step, output string) artifact.Location {
	return artifact.Location(pipeline).Join(runID, step, output)
}

func asArtifact(v any) (artifact.Artifact, bool) {
	switch a := v.(type) {
	case artifact.Artifact:
		return a, true
	case *model.Series:
		return artifact.FromSeries(a), a != nil
	case *model.LogisticRegression:
		return artifact.FromClassifier(a), a != nil
	}
	return artifact.Artifact{}, false
}

func upstreamSkipped(g *Graph, name string, skipped map[string]bool) bool {
	for _, up := range g.Upstream(name) {
		if skipped[up] {
			return true
		}
	}
	return false
}

func (e *Engine) finishStep(ctx context.Context, result *Result, sr StepResult) {
	result.Steps = append(result.Steps, sr)
	info, _ := RunFromContext(ctx)
	e.record(ctx, func() error { return e.recorder.StepFinished(ctx, info.Pipeline, info.RunID, sr) })
	if sr.Status == StatusSkipped {
		e.log.WithContext(ctx).Info("step skipped", logger.Fields(logger.FieldStep, sr.Name))
	}
}

func (e *Engine) fail(ctx context.Context, result *Result, sr StepResult, cause error, start time.Time) (*Result, error) {
	err := errors.StepExecution(result.Pipeline, sr.Name, cause)
	sr.Status = StatusFailed
	sr.Error = cause
	if sr.Duration == 0 {
		sr.Duration = time.Since(sr.Started)
	}
	e.finishStep(ctx, result, sr)

	result.Status = StatusFailed
	result.Duration = time.Since(start)
	observability.SetSpanError(ctx, err)
	e.record(ctx, func() error { return e.recorder.RunFinished(ctx, result.RunID, StatusFailed, time.Now(), err) })
	e.log.WithContext(ctx).Error("pipeline run failed", logger.ErrorFields("run", err))
	return result, err
}

func (e *Engine) record(ctx context.Context, fn func() error) {
	if e.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		e.log.WithContext(ctx).Warn("recording run state failed", logger.ErrorFields("record", err))
	}
}
