package timeseries

import (
	"fmt"
	"math"
)

// FillMode selects how Backfill treats calendar days with no observation.
type FillMode int

const (
	// FillNone returns the sliced series as-is; gaps stay gaps. Used for
	// series whose sparsity is intentional, like factor panels.
	FillNone FillMode = iota

	// FillCalendar reindexes the series onto the complete calendar-day grid
	// of the window and backward-fills: each missing day takes the value of
	// the nearest subsequent day that has data. Trailing days with no future
	// observation remain missing (NaN); callers must treat such output as
	// partial.
	FillCalendar
)

// Backfill slices the table to the window and, in FillCalendar mode, aligns it
// onto a gap-free calendar grid. Markets observe only trading days; consumers
// compound across weekends and holidays at the most recent known level, and
// backward fill never invents future information.
func Backfill(t *Table, w Window, mode FillMode) (*Table, error) {
	sliced, err := SliceRange(t, w)
	if err != nil {
		return nil, err
	}
	if mode == FillNone {
		return sliced, nil
	}

	byDate := make(map[Date]Row, sliced.Len())
	for _, r := range sliced.rows {
		byDate[r[DateColumn].(Date)] = r
	}

	days := w.Days()
	cols := sliced.valueColumns()
	out := NewTable(sliced.cols...)
	out.rows = make([]Row, len(days))

	// Walk the grid newest-first, carrying the next observed value per
	// column so every gap takes the nearest future observation.
	carry := make(map[string]float64, len(cols))
	for _, c := range cols {
		carry[c] = math.NaN()
	}
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		row := Row{DateColumn: d}
		src, observed := byDate[d]
		for _, c := range cols {
			v := carry[c]
			if observed {
				f, err := toFloat(src[c])
				if err != nil {
					return nil, fmt.Errorf("column %q at %s: %w", c, d, err)
				}
				if !math.IsNaN(f) {
					v = f
					carry[c] = f
				}
			}
			row[c] = v
		}
		out.rows[i] = row
	}
	return out, nil
}
