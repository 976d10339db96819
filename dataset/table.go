package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"strconv"
	"strings"
)

// Table is a rectangular dataset of string cells addressed by column name.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV parses a CSV stream whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Column returns a copy of a column's cells.
func (t *Table) Column(name string) ([]string, error) {
	j := t.Index(name)
	if j < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out, nil
}

// Select returns a table holding the given rows, in the given order.
// Row slices are shared with t.
func (t *Table) Select(rows []int) *Table {
	out := &Table{Columns: t.Columns, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		out.Rows[i] = t.Rows[r]
	}
	return out
}

// Head returns the first n rows (all of them if n exceeds Len).
func (t *Table) Head(n int) *Table {
	n = min(n, len(t.Rows))
	return &Table{Columns: t.Columns, Rows: t.Rows[:n:n]}
}

// Filter keeps rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Drop returns a copy without the named columns. Unknown names are an error.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[int]bool, len(names))
	for _, n := range names {
		j := t.Index(n)
		if j < 0 {
			return nil, fmt.Errorf("drop: column %q not found", n)
		}
		drop[j] = true
	}
	out := &Table{}
	for j, c := range t.Columns {
		if !drop[j] {
			out.Columns = append(out.Columns, c)
		}
	}
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		kept := make([]string, 0, len(out.Columns))
		for j, v := range row {
			if !drop[j] {
				kept = append(kept, v)
			}
		}
		out.Rows[i] = kept
	}
	return out, nil
}

// Categorical lists columns that have at least one non-blank, non-numeric cell.
func (t *Table) Categorical() []string {
	var cols []string
	for j, c := range t.Columns {
		for _, row := range t.Rows {
			if _, err := parseCell(row[j]); err != nil {
				cols = append(cols, c)
				break
			}
		}
	}
	return cols
}

// Encoding maps category labels to codes for one column.
type Encoding map[string]int

// EncodeLabels replaces each named column's categories with integer codes
// assigned in sorted label order, and returns the encodings used.
func (t *Table) EncodeLabels(names ...string) (*Table, map[string]Encoding, error) {
	out := t.clone()
	encodings := make(map[string]Encoding, len(names))
	for _, name := range names {
		j := t.Index(name)
		if j < 0 {
			return nil, nil, fmt.Errorf("encode: column %q not found", name)
		}
		var labels []string
		for _, row := range t.Rows {
			labels = append(labels, row[j])
		}
		slices.Sort(labels)
		labels = slices.Compact(labels)
		enc := make(Encoding, len(labels))
		for code, l := range labels {
			enc[l] = code
		}
		for _, row := range out.Rows {
			row[j] = strconv.Itoa(enc[row[j]])
		}
		encodings[name] = enc
	}
	return out, encodings, nil
}

// ApplyEncodings re-uses encodings learned on another table. Labels never
// seen during training map to -1.
func (t *Table) ApplyEncodings(encodings map[string]Encoding) (*Table, error) {
	out := t.clone()
	for name, enc := range encodings {
		j := t.Index(name)
		if j < 0 {
			return nil, fmt.Errorf("encode: column %q not found", name)
		}
		for _, row := range out.Rows {
			code, ok := enc[row[j]]
			if !ok {
				code = -1
			}
			row[j] = strconv.Itoa(code)
		}
	}
	return out, nil
}

// Oversample duplicates randomly chosen rows of every minority class of
// target until each class is as large as the majority class.
func (t *Table) Oversample(target string, seed int64) (*Table, error) {
	j := t.Index(target)
	if j < 0 {
		return nil, fmt.Errorf("oversample: column %q not found", target)
	}
	byClass := map[string][]int{}
	var classes []string
	for i, row := range t.Rows {
		c := row[j]
		if _, ok := byClass[c]; !ok {
			classes = append(classes, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	slices.Sort(classes)

	majority := 0
	for _, rows := range byClass {
		majority = max(majority, len(rows))
	}

	rng := rand.New(rand.NewSource(seed))
	out := &Table{Columns: t.Columns, Rows: slices.Clone(t.Rows)}
	for _, c := range classes {
		rows := byClass[c]
		for k := len(rows); k < majority; k++ {
			out.Rows = append(out.Rows, t.Rows[rows[rng.Intn(len(rows))]])
		}
	}
	return out, nil
}

// Split shuffles row positions with seed and returns (train, test) where
// test holds round(testSize * Len) rows.
func (t *Table) Split(testSize float64, seed int64) (*Table, *Table, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("split: test size %v must be in (0, 1)", testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(t.Rows))
	nTest := int(testSize*float64(len(t.Rows)) + 0.5)
	if nTest == 0 || nTest == len(t.Rows) {
		return nil, nil, fmt.Errorf("split: %d rows cannot be split with test size %v", len(t.Rows), testSize)
	}
	return t.Select(perm[nTest:]), t.Select(perm[:nTest]), nil
}

// Matrix converts every column except target into floats. Blank cells are 0.
// The returned label slice is nil when target is empty.
func (t *Table) Matrix(target string) (X [][]float64, y []float64, features []string, err error) {
	tj := -1
	if target != "" {
		if tj = t.Index(target); tj < 0 {
			return nil, nil, nil, fmt.Errorf("matrix: target column %q not found", target)
		}
	}
	for j, c := range t.Columns {
		if j != tj {
			features = append(features, c)
		}
	}
	X = make([][]float64, len(t.Rows))
	if tj >= 0 {
		y = make([]float64, len(t.Rows))
	}
	for i, row := range t.Rows {
		X[i] = make([]float64, 0, len(features))
		for j, cell := range row {
			v, err := parseCell(cell)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("matrix: row %d column %q: %w", i, t.Columns[j], err)
			}
			if j == tj {
				y[i] = v
			} else {
				X[i] = append(X[i], v)
			}
		}
	}
	return X, y, features, nil
}

func (t *Table) clone() *Table {
	out := &Table{Columns: slices.Clone(t.Columns), Rows: make([][]string, len(t.Rows))}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cell, 64)
}
