package serving

import (
	"fmt"

	"github.com/kbukum/mlopskit/errors"
)

// PredictionsPath is the route a prediction server answers on.
const PredictionsPath = "/api/v1.0/predictions"

// HealthPath is the route the platform probes for readiness.
const HealthPath = "/health/ping"

// Payload is a prediction request or response body:
//
//	{"data":{"names":["tenure","MonthlyCharges"],"ndarray":[[1,29.85]]}}
type Payload struct {
	Data Tensor         `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Tensor is a named row-major matrix.
type Tensor struct {
	Names   []string    `json:"names"`
	NDArray [][]float64 `json:"ndarray"`
}

// NewPayload builds a payload, checking that every row has one value per
// name.
func NewPayload(names []string, rows [][]float64) (*Payload, error) {
	p := &Payload{Data: Tensor{Names: names, NDArray: rows}}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the payload shape.
func (p *Payload) Validate() error {
	if len(p.Data.NDArray) == 0 {
		return errors.InvalidInput("data.ndarray", "no rows")
	}
	width := len(p.Data.NDArray[0])
	if len(p.Data.Names) > 0 {
		width = len(p.Data.Names)
	}
	for i, row := range p.Data.NDArray {
		if len(row) != width {
			return errors.InvalidInput("data.ndarray",
				fmt.Sprintf("row %d has %d values, want %d", i, len(row), width))
		}
	}
	return nil
}

// ClassNames returns the response column names for n classes, "t:0" ... "t:n-1".
func ClassNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("t:%d", i)
	}
	return names
}

// ArgMax returns the column index of the largest value in each row.
func (t Tensor) ArgMax() []float64 {
	out := make([]float64, len(t.NDArray))
	for i, row := range t.NDArray {
		best := 0
		for j := range row {
			if row[j] > row[best] {
				best = j
			}
		}
		out[i] = float64(best)
	}
	return out
}
