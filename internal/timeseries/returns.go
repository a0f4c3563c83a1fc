package timeseries

import "math"

// Returns derives period returns from price levels. The window is extended one
// calendar day back before filling, because the return for the first requested
// date needs the prior day's level. Monthly frequency restricts the filled
// series to calendar month-end rows before differencing. Each return is taken
// against the immediately preceding surviving row, not a fixed calendar
// offset, and any row left incomplete (the first row, or NaN propagated from a
// trailing gap) is dropped.
func Returns(index *Table, codes []string, w Window, freq Frequency) (*Table, error) {
	out := NewTable(append([]string{DateColumn}, codes...)...)
	if w.Empty() {
		return out, nil
	}
	if len(codes) == 0 {
		// No return column can force a drop, so serve the plain date grid
		// over the requested window; the lookback day must not leak out.
		sliced, err := SliceRange(index, w)
		if err != nil {
			return nil, err
		}
		for _, r := range sliced.rows {
			out.Append(r)
		}
		return out, nil
	}

	panel, err := index.Select(append([]string{DateColumn}, codes...)...)
	if err != nil {
		return nil, err
	}
	extended := Window{Start: w.Start.Add(-1), End: w.End}

	// Backward fill would also synthesize levels for grid days before the
	// first real observation; a return differenced against such a level is
	// fabricated, so anything earlier than the first observation stays
	// unknown and the rows it touches are dropped below.
	observed, err := SliceRange(panel, extended)
	if err != nil {
		return nil, err
	}
	if observed.Len() == 0 {
		return out, nil
	}
	firstObserved := observed.Date(0)

	filled, err := Backfill(panel, extended, FillCalendar)
	if err != nil {
		return nil, err
	}

	rows := filled.rows
	if freq == Monthly {
		kept := rows[:0:0]
		for _, r := range rows {
			if r[DateColumn].(Date).IsMonthEnd() {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	for i := 1; i < len(rows); i++ {
		if rows[i-1][DateColumn].(Date).Before(firstObserved) {
			continue
		}
		row := Row{DateColumn: rows[i][DateColumn]}
		complete := true
		for _, c := range codes {
			cur := rows[i][c].(float64)
			prev := rows[i-1][c].(float64)
			ret := cur/prev - 1
			if math.IsNaN(ret) {
				complete = false
				break
			}
			row[c] = ret
		}
		if complete {
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}
