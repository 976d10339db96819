package dag

import (
	"time"

	"github.com/kbukum/mlopskit/artifact"
)

// Status is the outcome of a step or run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result holds the outcome of a pipeline run.
type Result struct {
	Pipeline string
	RunID    string
	Status   Status
	// Steps are the step outcomes in execution order. Steps after a failure
	// are absent.
	Steps []StepResult
	// Outputs holds every artifact available at the end of the run,
	// including the run's inputs.
	Outputs  ArtifactSet
	Duration time.Duration
}

// Step returns the result of the named step.
func (r *Result) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// StepResult holds the outcome of a single step execution.
type StepResult struct {
	Name     string
	Status   Status
	Started  time.Time
	Duration time.Duration
	// Locations maps each persisted output to where it was materialized.
	Locations map[string]artifact.Location
	Error     error
}
