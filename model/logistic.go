package model

import (
	"fmt"
	"math"
	"slices"
)

// Params are the hyper-parameters of LogisticRegression.
type Params struct {
	LearningRate float64 `mapstructure:"learning_rate" json:"learning_rate" validate:"gt=0"`
	Epochs       int     `mapstructure:"epochs" json:"epochs" validate:"min=1"`
	L2           float64 `mapstructure:"l2" json:"l2" validate:"gte=0"`
	Threshold    float64 `mapstructure:"threshold" json:"threshold" validate:"gt=0,lt=1"`
}

// DefaultParams returns the settings used when the config leaves them unset.
func DefaultParams() Params {
	return Params{LearningRate: 0.1, Epochs: 300, L2: 0.001, Threshold: 0.5}
}

// LogisticRegression is a binary classifier trained with full-batch gradient
// descent on standardized features. Every field is part of the fitted state
// and must survive persistence.
type LogisticRegression struct {
	Params   Params
	Features []string
	Means    []float64
	Scales   []float64
	Weights  []float64
	Bias     float64
}

// NewLogisticRegression returns an unfitted classifier.
func NewLogisticRegression(p Params) *LogisticRegression {
	return &LogisticRegression{Params: p}
}

// Fitted reports whether Fit has produced weights.
func (m *LogisticRegression) Fitted() bool { return m.Weights != nil }

// Fit trains on X (rows of len(features)) and binary labels y.
func (m *LogisticRegression) Fit(X [][]float64, y []float64, features []string) error {
	if len(X) == 0 {
		return fmt.Errorf("fit: no training rows")
	}
	if len(X) != len(y) {
		return fmt.Errorf("fit: %d rows but %d labels", len(X), len(y))
	}
	n, d := len(X), len(features)
	for i, row := range X {
		if len(row) != d {
			return fmt.Errorf("fit: row %d has %d values, want %d", i, len(row), d)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("fit: label %v at row %d is not binary", label, i)
		}
	}

	m.Features = slices.Clone(features)
	m.Means, m.Scales = standardization(X, d)
	m.Weights = make([]float64, d)
	m.Bias = 0

	Z := make([][]float64, n)
	for i, row := range X {
		Z[i] = m.scale(row)
	}

	grad := make([]float64, d)
	for epoch := 0; epoch < m.Params.Epochs; epoch++ {
		clear(grad)
		var gradBias float64
		for i, z := range Z {
			diff := sigmoid(dot(m.Weights, z)+m.Bias) - y[i]
			for j, v := range z {
				grad[j] += diff * v
			}
			gradBias += diff
		}
		for j := range m.Weights {
			m.Weights[j] -= m.Params.LearningRate * (grad[j]/float64(n) + m.Params.L2*m.Weights[j])
		}
		m.Bias -= m.Params.LearningRate * gradBias / float64(n)
	}
	return nil
}

// PredictProba returns P(y=1) for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	if !m.Fitted() {
		return nil, fmt.Errorf("predict: classifier is not fitted")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("predict: row %d has %d values, want %d", i, len(row), len(m.Weights))
		}
		out[i] = sigmoid(dot(m.Weights, m.scale(row)) + m.Bias)
	}
	return out, nil
}

// Predict returns hard 0/1 labels using Params.Threshold.
func (m *LogisticRegression) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	threshold := m.Params.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	for i, p := range proba {
		if p >= threshold {
			proba[i] = 1
		} else {
			proba[i] = 0
		}
	}
	return proba, nil
}

// Validate checks that the fitted arrays agree with the feature list.
func (m *LogisticRegression) Validate() error {
	d := len(m.Features)
	if len(m.Weights) != d {
		return fmt.Errorf("classifier: %d weights for %d features", len(m.Weights), d)
	}
	if len(m.Means) != d || len(m.Scales) != d {
		return fmt.Errorf("classifier: scaling has %d/%d entries for %d features", len(m.Means), len(m.Scales), d)
	}
	for j, s := range m.Scales {
		if s == 0 || math.IsNaN(s) {
			return fmt.Errorf("classifier: feature %q has invalid scale %v", m.Features[j], s)
		}
	}
	return nil
}

// Equal reports equality of the fitted parameters.
func (m *LogisticRegression) Equal(o *LogisticRegression) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Params == o.Params &&
		slices.Equal(m.Features, o.Features) &&
		slices.Equal(m.Means, o.Means) &&
		slices.Equal(m.Scales, o.Scales) &&
		slices.Equal(m.Weights, o.Weights) &&
		m.Bias == o.Bias
}

func (m *LogisticRegression) scale(row []float64) []float64 {
	z := make([]float64, len(row))
	for j, v := range row {
		z[j] = (v - m.Means[j]) / m.Scales[j]
	}
	return z
}

// standardization returns per-column mean and standard deviation; constant
// columns get scale 1 so they contribute nothing after centering.
func standardization(X [][]float64, d int) (means, scales []float64) {
	means = make([]float64, d)
	scales = make([]float64, d)
	n := float64(len(X))
	for _, row := range X {
		for j, v := range row {
			means[j] += v / n
		}
	}
	for _, row := range X {
		for j, v := range row {
			scales[j] += (v - means[j]) * (v - means[j]) / n
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j])
		if scales[j] < 1e-12 {
			scales[j] = 1
		}
	}
	return means, scales
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
