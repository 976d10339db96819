package dataset

import (
	"reflect"
	"strings"
	"testing"
)

const churnCSV = `customerID,gender,tenure,TotalCharges,Churn
0001,Female,1,29.85,No
0002,Male,34,1889.5,No
0003,Male,2, ,Yes
0004,Male,45,1840.75,No
0005,Female,2,151.65,Yes
0006,Female,8,820.5,No
`

func readChurn(t *testing.T) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(churnCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

func TestReadCSV(t *testing.T) {
	tbl := readChurn(t)
	if tbl.Len() != 6 || len(tbl.Columns) != 5 {
		t.Fatalf("unexpected shape %dx%d", tbl.Len(), len(tbl.Columns))
	}
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ReadCSV(strings.NewReader("a,b\n1\n")); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestCategorical(t *testing.T) {
	got := readChurn(t).Categorical()
	want := []string{"gender", "Churn"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEncodeLabels(t *testing.T) {
	tbl := readChurn(t)
	enc, encodings, err := tbl.EncodeLabels("gender", "Churn")
	if err != nil {
		t.Fatal(err)
	}
	col, _ := enc.Column("Churn")
	if !reflect.DeepEqual(col, []string{"0", "0", "1", "0", "1", "0"}) {
		t.Errorf("unexpected encoded churn %v", col)
	}
	if encodings["gender"]["Male"] != 1 || encodings["gender"]["Female"] != 0 {
		t.Errorf("unexpected gender encoding %v", encodings["gender"])
	}
	orig, _ := tbl.Column("Churn")
	if orig[0] != "No" {
		t.Error("EncodeLabels must not modify the receiver")
	}

	unseen := &Table{Columns: []string{"gender"}, Rows: [][]string{{"Other"}, {"Male"}}}
	applied, err := unseen.ApplyEncodings(map[string]Encoding{"gender": encodings["gender"]})
	if err != nil {
		t.Fatal(err)
	}
	if applied.Rows[0][0] != "-1" || applied.Rows[1][0] != "1" {
		t.Errorf("unexpected applied encoding %v", applied.Rows)
	}
}

func TestOversample(t *testing.T) {
	tbl := readChurn(t)
	out, err := tbl.Oversample("Churn", 7)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	col, _ := out.Column("Churn")
	for _, c := range col {
		counts[c]++
	}
	if counts["Yes"] != 4 || counts["No"] != 4 {
		t.Errorf("expected balanced classes, got %v", counts)
	}
	if tbl.Len() != 6 {
		t.Error("Oversample must not modify the receiver")
	}
	if _, err := tbl.Oversample("missing", 1); err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestDrop(t *testing.T) {
	out, err := readChurn(t).Drop("customerID")
	if err != nil {
		t.Fatal(err)
	}
	if out.Index("customerID") != -1 || len(out.Rows[0]) != 4 {
		t.Errorf("column not dropped: %v", out.Columns)
	}
	if _, err := readChurn(t).Drop("nope"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestSplitDeterministicAndDisjoint(t *testing.T) {
	tbl := readChurn(t)
	train, test, err := tbl.Split(0.5, 42)
	if err != nil {
		t.Fatal(err)
	}
	if train.Len() != 3 || test.Len() != 3 {
		t.Fatalf("expected 3/3, got %d/%d", train.Len(), test.Len())
	}
	seen := map[string]bool{}
	for _, row := range append(train.Rows, test.Rows...) {
		if seen[row[0]] {
			t.Errorf("row %s in both splits", row[0])
		}
		seen[row[0]] = true
	}
	train2, _, _ := tbl.Split(0.5, 42)
	if !reflect.DeepEqual(train.Rows, train2.Rows) {
		t.Error("same seed must give the same split")
	}
	for _, bad := range []float64{0, 1, 0.01} {
		if _, _, err := tbl.Split(bad, 1); err == nil {
			t.Errorf("expected error for test size %v", bad)
		}
	}
}

func TestMatrix(t *testing.T) {
	tbl, _ := readChurn(t).Drop("customerID")
	enc, _, _ := tbl.EncodeLabels("gender", "Churn")
	X, y, features, err := enc.Matrix("Churn")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(features, []string{"gender", "tenure", "TotalCharges"}) {
		t.Errorf("unexpected features %v", features)
	}
	if X[2][2] != 0 {
		t.Errorf("blank cell should be 0, got %v", X[2][2])
	}
	if y[2] != 1 || len(y) != 6 {
		t.Errorf("unexpected labels %v", y)
	}
	if _, _, _, err := readChurn(t).Matrix("Churn"); err == nil {
		t.Error("expected error for non-numeric cells")
	}
	X, y, _, err = enc.Matrix("")
	if err != nil || y != nil || len(X[0]) != 4 {
		t.Errorf("expected unlabeled matrix, got %v %v (%v)", X[0], y, err)
	}
}

func TestHeadFilterSelect(t *testing.T) {
	tbl := readChurn(t)
	if tbl.Head(2).Len() != 2 || tbl.Head(100).Len() != 6 {
		t.Error("unexpected Head length")
	}
	yes := tbl.Filter(func(row []string) bool { return row[4] == "Yes" })
	if yes.Len() != 2 {
		t.Errorf("expected 2 churners, got %d", yes.Len())
	}
	sel := tbl.Select([]int{5, 0})
	if sel.Rows[0][0] != "0006" || sel.Rows[1][0] != "0001" {
		t.Errorf("unexpected selection %v", sel.Rows)
	}
}
