package artifact

import (
	"path"
	"strings"

	"github.com/kbukum/mlopskit/model"
)

// Kind tags the payload carried by an Artifact.
type Kind string

const (
	KindNumericSeries Kind = "numeric_series"
	KindClassifier    Kind = "classifier"
)

// Artifact is a value passed between pipeline steps. Exactly one payload
// field, the one named by Kind, is set.
type Artifact struct {
	Kind       Kind
	Series     *model.Series
	Classifier *model.LogisticRegression
}

// FromSeries wraps a series.
func FromSeries(s *model.Series) Artifact {
	return Artifact{Kind: KindNumericSeries, Series: s}
}

// FromClassifier wraps a classifier.
func FromClassifier(c *model.LogisticRegression) Artifact {
	return Artifact{Kind: KindClassifier, Classifier: c}
}

// Equal reports structural equality of kind and payload.
func (a Artifact) Equal(o Artifact) bool {
	if a.Kind != o.Kind {
		return false
	}
	switch a.Kind {
	case KindNumericSeries:
		return a.Series.Equal(o.Series)
	case KindClassifier:
		return a.Classifier.Equal(o.Classifier)
	}
	return false
}

// Location is a directory-like key in the artifact store, handed out per
// step output. Each location holds at most one materialized artifact.
type Location string

// Join appends path elements.
func (l Location) Join(elem ...string) Location {
	return Location(path.Join(append([]string{string(l)}, elem...)...))
}

// FileName is the fixed object name written inside every location.
const FileName = "CustomerChurnEnvironment"

// File returns the store path of the materialized object.
func (l Location) File() string {
	return strings.TrimSuffix(string(l), "/") + "/" + FileName
}
