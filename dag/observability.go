package dag

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
)

// stepStatus maps a step error to the status label used in telemetry.
func stepStatus(err error) string {
	switch {
	case err == nil:
		return string(StatusCompleted)
	case stderrors.Is(err, ErrSkip):
		return string(StatusSkipped)
	default:
		return string(StatusFailed)
	}
}

// wrapped delegates the step declaration to the inner step.
type wrapped struct {
	inner Step
}

func (w wrapped) Name() string      { return w.inner.Name() }
func (w wrapped) Inputs() []string  { return w.inner.Inputs() }
func (w wrapped) Outputs() []string { return w.inner.Outputs() }

// WithTracing wraps a Step with a span named pipeline.step carrying the
// pipeline, run and step names.
func WithTracing(step Step) Step {
	return &tracingStep{wrapped{step}}
}

type tracingStep struct{ wrapped }

func (s *tracingStep) Execute(ctx context.Context, in ArtifactSet) (ArtifactSet, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanStep)
	defer span.End()

	if info, ok := RunFromContext(ctx); ok {
		observability.SetSpanAttribute(ctx, observability.AttrPipeline, info.Pipeline)
		observability.SetSpanAttribute(ctx, observability.AttrRunID, info.RunID)
	}
	observability.SetSpanAttribute(ctx, observability.AttrStep, s.Name())

	out, err := s.inner.Execute(ctx, in)
	observability.SetSpanAttribute(ctx, observability.AttrStepStatus, stepStatus(err))
	if err != nil && !stderrors.Is(err, ErrSkip) {
		observability.SetSpanError(ctx, err)
	}
	return out, err
}

// WithMetrics wraps a Step with metric recording: executions by status,
// duration, and errors by code.
func WithMetrics(metrics *observability.Metrics) Hook {
	return func(step Step) Step {
		return &metricsStep{wrapped: wrapped{step}, metrics: metrics}
	}
}

type metricsStep struct {
	wrapped
	metrics *observability.Metrics
}

func (s *metricsStep) Execute(ctx context.Context, in ArtifactSet) (ArtifactSet, error) {
	start := time.Now()
	out, err := s.inner.Execute(ctx, in)
	duration := time.Since(start)

	info, _ := RunFromContext(ctx)
	status := stepStatus(err)
	if status == string(StatusFailed) {
		code := string(errors.ErrCodeInternal)
		if appErr, ok := errors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		s.metrics.RecordError(ctx, code, s.Name())
	}
	s.metrics.RecordStep(ctx, info.Pipeline, s.Name(), status, duration)

	return out, err
}

// WithLogging wraps a Step with execution logging.
func WithLogging(log *logger.Logger) Hook {
	return func(step Step) Step {
		return &loggingStep{wrapped: wrapped{step}, log: log}
	}
}

type loggingStep struct {
	wrapped
	log *logger.Logger
}

func (s *loggingStep) Execute(ctx context.Context, in ArtifactSet) (ArtifactSet, error) {
	log := s.log.WithContext(ctx)
	log.Debug("step started", logger.Fields(logger.FieldStep, s.Name()))

	start := time.Now()
	out, err := s.inner.Execute(ctx, in)
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldStep, s.Name(),
		logger.FieldStatus, stepStatus(err),
	), time.Since(start))

	switch {
	case err == nil, stderrors.Is(err, ErrSkip):
		log.Info("step finished", fields)
	default:
		fields[logger.FieldError] = err.Error()
		log.Error("step failed", fields)
	}
	return out, err
}
