package artifact

import (
	"context"
	"testing"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/model"
	"github.com/kbukum/mlopskit/storage/memory"
)

func fittedClassifier(t *testing.T) *model.LogisticRegression {
	t.Helper()
	X := [][]float64{{1, 20}, {2, 25}, {8, 70}, {9, 90}}
	y := []float64{0, 0, 1, 1}
	c := model.NewLogisticRegression(model.DefaultParams())
	if err := c.Fit(X, y, []string{"tenure", "MonthlyCharges"}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return c
}

func newMaterializer() (*Materializer, *memory.Storage) {
	store := memory.New()
	return NewMaterializer(store, logger.NewNop()), store
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newMaterializer()

	tests := []struct {
		name string
		a    Artifact
	}{
		{"series", FromSeries(model.NewSeries("predictions", []float64{1, 0, 0, 1}))},
		{"empty series", FromSeries(model.NewSeries("empty", nil))},
		{"classifier", FromClassifier(fittedClassifier(t))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc := Location("runs").Join(tc.name)
			if err := m.Persist(ctx, tc.a, loc); err != nil {
				t.Fatalf("Persist: %v", err)
			}
			got, err := m.Restore(ctx, loc, tc.a.Kind)
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if !got.Equal(tc.a) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tc.a)
			}
		})
	}
}

func TestPersistOverwrites(t *testing.T) {
	ctx := context.Background()
	m, _ := newMaterializer()
	loc := Location("runs/1/predictor/predictions")

	_ = m.Persist(ctx, FromSeries(model.NewSeries("p", []float64{1})), loc)
	second := FromSeries(model.NewSeries("p", []float64{0, 0}))
	if err := m.Persist(ctx, second, loc); err != nil {
		t.Fatal(err)
	}
	got, err := m.Restore(ctx, loc, KindNumericSeries)
	if err != nil || !got.Equal(second) {
		t.Errorf("expected latest value, got %+v (%v)", got, err)
	}
}

func TestRestoreCorrupt(t *testing.T) {
	ctx := context.Background()
	m, store := newMaterializer()

	full, err := gobEncode(model.NewSeries("s", []float64{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	mismatched, _ := gobEncode(&model.Series{Name: "s", Index: []int{0}, Values: []float64{1, 2}})
	badWeights := fittedClassifier(t)
	badWeights.Weights = badWeights.Weights[:1]
	inconsistent, _ := gobEncode(badWeights)

	store.Put("empty/"+FileName, nil)
	store.Put("truncated/"+FileName, full[:len(full)/2])
	store.Put("garbage/"+FileName, []byte("not a gob stream"))
	store.Put("mismatched/"+FileName, mismatched)
	store.Put("inconsistent/"+FileName, inconsistent)
	store.Put("series-as-classifier/"+FileName, full)

	tests := []struct {
		loc  Location
		kind Kind
	}{
		{"missing", KindNumericSeries},
		{"empty", KindNumericSeries},
		{"truncated", KindNumericSeries},
		{"garbage", KindClassifier},
		{"mismatched", KindNumericSeries},
		{"inconsistent", KindClassifier},
		{"series-as-classifier", KindClassifier},
	}
	for _, tc := range tests {
		t.Run(string(tc.loc), func(t *testing.T) {
			_, err := m.Restore(ctx, tc.loc, tc.kind)
			if !errors.HasCode(err, errors.ErrCodeCorruptArtifact) {
				t.Errorf("expected CORRUPT_ARTIFACT, got %v", err)
			}
		})
	}
}

func TestUnsupportedType(t *testing.T) {
	ctx := context.Background()
	m, store := newMaterializer()

	if _, err := m.Restore(ctx, "anywhere", Kind("dataframe")); !errors.HasCode(err, errors.ErrCodeUnsupportedType) {
		t.Errorf("restore: expected UNSUPPORTED_TYPE, got %v", err)
	}

	for name, a := range map[string]Artifact{
		"unknown kind": {Kind: "dataframe"},
		"nil series":   {Kind: KindNumericSeries},
		"nil model":    {Kind: KindClassifier, Series: model.NewSeries("x", nil)},
	} {
		if err := m.Persist(ctx, a, "loc"); !errors.HasCode(err, errors.ErrCodeUnsupportedType) {
			t.Errorf("%s: expected UNSUPPORTED_TYPE, got %v", name, err)
		}
	}
	if files, _ := store.List(ctx, ""); len(files) != 0 {
		t.Errorf("rejected artifacts must not be written, got %+v", files)
	}
}

func TestLocation(t *testing.T) {
	loc := Location("pipeline/run").Join("step", "output")
	if loc != "pipeline/run/step/output" {
		t.Errorf("unexpected join %q", loc)
	}
	if loc.File() != "pipeline/run/step/output/CustomerChurnEnvironment" {
		t.Errorf("unexpected file %q", loc.File())
	}
	if len(Kinds()) != 2 || !Supported(KindClassifier) || Supported("dataframe") {
		t.Errorf("unexpected kinds %v", Kinds())
	}
}
