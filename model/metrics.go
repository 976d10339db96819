package model

import "fmt"

// Accuracy is the fraction of positions where predicted equals actual.
func Accuracy(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("accuracy: %d labels but %d predictions", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, fmt.Errorf("accuracy: no samples")
	}
	var hits int
	for i := range actual {
		if actual[i] == predicted[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(actual)), nil
}
