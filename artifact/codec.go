package artifact

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/kbukum/mlopskit/model"
)

type codec struct {
	encode func(Artifact) ([]byte, error)
	decode func([]byte) (Artifact, error)
}

// codecs is the closed set of supported kinds. It is not extensible at runtime.
var codecs = map[Kind]codec{
	KindNumericSeries: {
		encode: func(a Artifact) ([]byte, error) { return gobEncode(a.Series) },
		decode: func(data []byte) (Artifact, error) {
			var s model.Series
			if err := gobDecode(data, &s); err != nil {
				return Artifact{}, err
			}
			if err := s.Validate(); err != nil {
				return Artifact{}, err
			}
			return FromSeries(&s), nil
		},
	},
	KindClassifier: {
		encode: func(a Artifact) ([]byte, error) { return gobEncode(a.Classifier) },
		decode: func(data []byte) (Artifact, error) {
			var c model.LogisticRegression
			if err := gobDecode(data, &c); err != nil {
				return Artifact{}, err
			}
			if err := c.Validate(); err != nil {
				return Artifact{}, err
			}
			return FromClassifier(&c), nil
		},
	},
}

// Kinds lists the supported kinds in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(codecs))
	for k := range codecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Supported reports whether k has a codec.
func Supported(k Kind) bool {
	_, ok := codecs[k]
	return ok
}

// payloadSet reports whether the payload field selected by Kind is non-nil.
func (a Artifact) payloadSet() bool {
	switch a.Kind {
	case KindNumericSeries:
		return a.Series != nil
	case KindClassifier:
		return a.Classifier != nil
	}
	return false
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty object")
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
