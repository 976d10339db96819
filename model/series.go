package model

import (
	"fmt"
	"slices"
)

// Series is a labeled numeric series: Values[i] is the value at label Index[i].
type Series struct {
	Name   string
	Index  []int
	Values []float64
}

// NewSeries labels values 0..n-1.
func NewSeries(name string, values []float64) *Series {
	index := make([]int, len(values))
	for i := range index {
		index[i] = i
	}
	return &Series{Name: name, Index: index, Values: values}
}

// Len returns the number of entries.
func (s *Series) Len() int { return len(s.Values) }

// Validate checks that every value has exactly one label.
func (s *Series) Validate() error {
	if len(s.Index) != len(s.Values) {
		return fmt.Errorf("series %q: %d labels for %d values", s.Name, len(s.Index), len(s.Values))
	}
	return nil
}

// Equal reports structural equality.
func (s *Series) Equal(o *Series) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Name == o.Name && slices.Equal(s.Index, o.Index) && slices.Equal(s.Values, o.Values)
}
