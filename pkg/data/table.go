// Package data holds the raw tabular records fed to the pipeline and the
// loaders that read them from CSV and Excel files.
package data

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoColumn is returned when a named column is not in the table.
	ErrNoColumn = errors.New("data: column not found")
	// ErrRaggedRow is returned when a row width differs from the header.
	ErrRaggedRow = errors.New("data: row length does not match header")
)

// Table is a raw labeled table. Cells keep their source text so that
// categorical values can be string-cast exactly as read.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable validates that every row matches the header width.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRow, i, len(r), len(columns))
		}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// Clone deep copies the table so callers can mutate the copy freely.
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		copy(rows[i], r)
	}
	return &Table{Columns: cols, Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of a column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, error) {
	j := t.Index(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out, nil
}

// SetColumn overwrites the named column in place.
func (t *Table) SetColumn(name string, values []string) error {
	j := t.Index(name)
	if j < 0 {
		return fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("%w: column %q has %d values for %d rows", ErrRaggedRow, name, len(values), len(t.Rows))
	}
	for i := range t.Rows {
		t.Rows[i][j] = values[i]
	}
	return nil
}

// AddColumn appends a column with every cell set to fill.
func (t *Table) AddColumn(name, fill string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
}

// Float returns the named columns as a row-major numeric matrix, in the
// order given. Cells must parse as float64.
func (t *Table) Float(columns []string) ([][]float64, error) {
	idx := make([]int, len(columns))
	for k, name := range columns {
		idx[k] = t.Index(name)
		if idx[k] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
		}
	}
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]float64, len(idx))
		for k, j := range idx {
			v, err := strconv.ParseFloat(strings.TrimSpace(r[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q row %d value %q", ErrNonNumeric, columns[k], i, r[j])
			}
			row[k] = v
		}
		out[i] = row
	}
	return out, nil
}

// ErrNonNumeric is returned when a feature cell does not parse as a number.
var ErrNonNumeric = errors.New("data: non-numeric value")

// missing markers, matched case-insensitively after trimming.
var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(v string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// FillMissing replaces every missing cell with fill, in place, and returns
// how many cells were replaced.
func (t *Table) FillMissing(fill string) int {
	n := 0
	for _, r := range t.Rows {
		for j, v := range r {
			if IsMissing(v) {
				r[j] = fill
				n++
			}
		}
	}
	return n
}
