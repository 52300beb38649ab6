package dataset

import (
	"fmt"
	"math"
	"strings"
)

// Column kinds inferred from cell contents.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Column describes one table column after detection.
type Column struct {
	Name string
	Unit string
	Kind string
}

// Table is an in-memory tabular dataset. Cells are kept as raw strings;
// Detect infers column kinds and caches parsed numeric values so that the
// analysis layers never re-parse.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string

	// Truncated reports that the reader stopped at a row cap; TotalRows is
	// the count actually seen in the source when known.
	Truncated bool
	TotalRows int

	nums  [][]float64 // per column, aligned to Rows; NaN when absent
	valid [][]bool
}

// New creates an empty table with the given column names. Units are split
// off header names ("Mass [mg/L]" keeps name "Mass", unit "mg/L").
func New(name string, headers []string) *Table {
	t := &Table{Name: name}
	for _, h := range headers {
		clean, unit := SplitUnits(strings.TrimSpace(h))
		t.Columns = append(t.Columns, Column{Name: clean, Unit: unit, Kind: KindUnknown})
	}
	return t
}

// AppendRow adds a row, padding or trimming it to the column count.
func (t *Table) AppendRow(rec []string) {
	n := len(t.Columns)
	row := make([]string, n)
	copy(row, rec)
	t.Rows = append(t.Rows, row)
	t.nums, t.valid = nil, nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnNames returns the cleaned column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// ColumnIndex resolves a column by case-insensitive name; -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Columns {
		if strings.ToLower(c.Name) == name {
			return i
		}
	}
	return -1
}

// Cell returns the raw cell value; empty string out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// IsMissing reports whether a cell is empty after trimming.
func (t *Table) IsMissing(row, col int) bool {
	return strings.TrimSpace(t.Cell(row, col)) == ""
}

// MissingCount returns the number of missing cells in a column.
func (t *Table) MissingCount(col int) int {
	n := 0
	for r := range t.Rows {
		if t.IsMissing(r, col) {
			n++
		}
	}
	return n
}

// NumericValues returns the cached per-row numeric values for a column and a
// parallel mask of which rows parsed. Detect must have run.
func (t *Table) NumericValues(col int) ([]float64, []bool) {
	if t.nums == nil || col < 0 || col >= len(t.nums) {
		return nil, nil
	}
	return t.nums[col], t.valid[col]
}

// NumericColumn returns only the parsed numeric values of a column, in row
// order, skipping missing and non-numeric cells.
func (t *Table) NumericColumn(col int) []float64 {
	vals, ok := t.NumericValues(col)
	out := make([]float64, 0, len(vals))
	for i, v := range vals {
		if ok[i] {
			out = append(out, v)
		}
	}
	return out
}

// NumericIndexes returns the indexes of columns detected as numeric.
func (t *Table) NumericIndexes() []int {
	var out []int
	for i, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, i)
		}
	}
	return out
}

// SetCell overwrites a cell and invalidates the numeric cache.
func (t *Table) SetCell(row, col int, v string) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return
	}
	t.Rows[row][col] = v
	t.nums, t.valid = nil, nil
}

// SetNumericCell overwrites a cell with a formatted numeric value.
func (t *Table) SetNumericCell(row, col int, v float64) {
	if math.IsNaN(v) {
		t.SetCell(row, col, "")
		return
	}
	t.SetCell(row, col, trimFloat(v))
}

// Clone deep-copies the table. Caches are dropped; run Detect again on the
// copy before numeric access.
func (t *Table) Clone() *Table {
	cp := &Table{Name: t.Name, Truncated: t.Truncated, TotalRows: t.TotalRows}
	cp.Columns = make([]Column, len(t.Columns))
	copy(cp.Columns, t.Columns)
	cp.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(r))
		copy(row, r)
		cp.Rows[i] = row
	}
	return cp
}

// Head returns up to n leading rows (shared backing, read-only use).
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// AddColumn appends a column with the given per-row values; short value
// slices are padded with empty cells.
func (t *Table) AddColumn(name string, values []string) {
	t.Columns = append(t.Columns, Column{Name: name, Kind: KindUnknown})
	for i := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
	t.nums, t.valid = nil, nil
}

// DropColumn removes a column by index.
func (t *Table) DropColumn(col int) {
	if col < 0 || col >= len(t.Columns) {
		return
	}
	t.Columns = append(t.Columns[:col], t.Columns[col+1:]...)
	for i := range t.Rows {
		if col < len(t.Rows[i]) {
			t.Rows[i] = append(t.Rows[i][:col], t.Rows[i][col+1:]...)
		}
	}
	t.nums, t.valid = nil, nil
}

// DropRows removes the given row indexes (any order, duplicates tolerated).
func (t *Table) DropRows(idx []int) {
	if len(idx) == 0 {
		return
	}
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	out := t.Rows[:0]
	for i, r := range t.Rows {
		if !drop[i] {
			out = append(out, r)
		}
	}
	t.Rows = out
	t.nums, t.valid = nil, nil
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
