// Package timeseries holds the table model and the alignment engine: range
// slicing, calendar backfill, return derivation and factor rescaling. All
// transforms are pure; they return new tables and never mutate their input.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateColumn is the name of the calendar-date column present in every table.
const DateColumn = "date"

// ErrColumnNotFound is returned when a requested column (a fund code or a
// factor name) is absent from the underlying table.
var ErrColumnNotFound = errors.New("timeseries: column not found")

// Row maps column names to values. Numeric cells are float64 with math.NaN()
// as the missing marker; the date cell holds a Date once normalized.
type Row map[string]any

// Table is an ordered sequence of rows with a significant column order.
type Table struct {
	cols []string
	rows []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(cols ...string) *Table {
	return &Table{cols: append([]string(nil), cols...)}
}

// Append adds a row. Cells for unknown columns are ignored.
func (t *Table) Append(r Row) {
	row := make(Row, len(t.cols))
	for _, c := range t.cols {
		if v, ok := r[c]; ok {
			row[c] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row. The returned map is the table's own storage;
// transforms must copy before mutating.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Date returns the normalized date of the i-th row. Panics if the table has
// not been through SliceRange or a constructor that stores Date values.
func (t *Table) Date(i int) Date { return t.rows[i][DateColumn].(Date) }

// Float returns the numeric value at (row i, column c), coercing strings and
// integer types. Absent cells and nils are NaN.
func (t *Table) Float(i int, c string) (float64, error) {
	return toFloat(t.rows[i][c])
}

// Select returns a new table restricted to the given columns, preserving the
// requested order. A column absent from the table is a NotFound condition.
func (t *Table) Select(cols ...string) (*Table, error) {
	have := make(map[string]bool, len(t.cols))
	for _, c := range t.cols {
		have[c] = true
	}
	for _, c := range cols {
		if !have[c] {
			return nil, fmt.Errorf("%w: column %q", ErrColumnNotFound, c)
		}
	}
	out := NewTable(cols...)
	for _, r := range t.rows {
		out.Append(r)
	}
	return out, nil
}

// Rename returns a new table with columns renamed per the mapping. Columns not
// named in the mapping keep their name; the mapping may not introduce or drop
// columns, so input and output arities always match.
func (t *Table) Rename(mapping map[string]string) *Table {
	cols := make([]string, len(t.cols))
	for i, c := range t.cols {
		if n, ok := mapping[c]; ok {
			cols[i] = n
		} else {
			cols[i] = c
		}
	}
	out := NewTable(cols...)
	for _, r := range t.rows {
		row := make(Row, len(cols))
		for i, c := range t.cols {
			row[cols[i]] = r[c]
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Clone returns a deep copy: callers may mutate the result freely.
func (t *Table) Clone() *Table {
	out := NewTable(t.cols...)
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		row := make(Row, len(r))
		for k, v := range r {
			row[k] = v
		}
		out.rows[i] = row
	}
	return out
}

// Records renders the table in records orientation for JSON encoding. NaN
// cells become nil (JSON null).
func (t *Table) Records() []map[string]any {
	recs := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		rec := make(map[string]any, len(t.cols))
		for _, c := range t.cols {
			v := r[c]
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			rec[c] = v
		}
		recs[i] = rec
	}
	return recs
}

// valueColumns returns every column except the date column, in order.
func (t *Table) valueColumns() []string {
	var cols []string
	for _, c := range t.cols {
		if c != DateColumn {
			cols = append(cols, c)
		}
	}
	return cols
}

// toFloat coerces a cell to float64. nil and absent cells are NaN (missing),
// anything non-numeric is a malformed-input error.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q: %w", x, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("non-numeric value of type %T", v)
	}
}

// toDate coerces a cell to a calendar Date. Strings must be YYYY-MM-DD.
func toDate(v any) (Date, error) {
	switch x := v.(type) {
	case Date:
		return x, nil
	case string:
		return ParseDate(x)
	case time.Time:
		return DateOf(x), nil
	default:
		return Date{}, fmt.Errorf("non-date value of type %T in %q column", v, DateColumn)
	}
}
