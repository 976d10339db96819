package dag

import (
	"context"
	"errors"
	"fmt"
)

// ErrSkip is returned by a step that decided not to run. Steps downstream of
// a skipped step are skipped too.
var ErrSkip = errors.New("dag: step skipped")

// Step is the execution unit of a pipeline.
type Step interface {
	Name() string
	// Inputs names the artifacts the step reads.
	Inputs() []string
	// Outputs names the artifacts the step must produce.
	Outputs() []string
	Execute(ctx context.Context, in ArtifactSet) (ArtifactSet, error)
}

// StepFunc is the body of a step built with NewStep.
type StepFunc func(ctx context.Context, in ArtifactSet) (ArtifactSet, error)

// NewStep builds a Step from a function.
func NewStep(name string, inputs, outputs []string, fn StepFunc) Step {
	return &funcStep{name: name, inputs: inputs, outputs: outputs, fn: fn}
}

type funcStep struct {
	name    string
	inputs  []string
	outputs []string
	fn      StepFunc
}

func (s *funcStep) Name() string      { return s.name }
func (s *funcStep) Inputs() []string  { return s.inputs }
func (s *funcStep) Outputs() []string { return s.outputs }

func (s *funcStep) Execute(ctx context.Context, in ArtifactSet) (ArtifactSet, error) {
	return s.fn(ctx, in)
}

// ArtifactSet maps artifact names to values.
type ArtifactSet map[string]any

// Clone returns a shallow copy.
func (s ArtifactSet) Clone() ArtifactSet {
	out := make(ArtifactSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Port is a typed accessor for one named artifact.
type Port[T any] struct {
	Name string
}

// Read returns the artifact behind port, failing when it is missing or has
// another type.
func Read[T any](set ArtifactSet, port Port[T]) (T, error) {
	var zero T
	raw, ok := set[port.Name]
	if !ok {
		return zero, fmt.Errorf("dag: artifact %q not found", port.Name)
	}
	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("dag: artifact %q: expected %T, got %T", port.Name, zero, raw)
	}
	return val, nil
}

// Write stores value under port.
func Write[T any](set ArtifactSet, port Port[T], value T) {
	set[port.Name] = value
}
