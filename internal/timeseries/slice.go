package timeseries

import (
	"fmt"
	"sort"
)

// SliceRange filters a table to the inclusive window and sorts it ascending by
// date. The date column is normalized to Date values on the way through; a
// cell that cannot be read as a calendar date fails the whole slice. An empty
// window (start after end) yields a zero-row table with the same columns.
func SliceRange(t *Table, w Window) (*Table, error) {
	out := NewTable(t.cols...)
	for i, r := range t.rows {
		d, err := toDate(r[DateColumn])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !w.Contains(d) {
			continue
		}
		row := make(Row, len(r))
		for k, v := range r {
			row[k] = v
		}
		row[DateColumn] = d
		out.rows = append(out.rows, row)
	}
	// Dates are unique per input table, so no secondary key is needed.
	sort.SliceStable(out.rows, func(i, j int) bool {
		return out.rows[i][DateColumn].(Date).Before(out.rows[j][DateColumn].(Date))
	})
	return out, nil
}
