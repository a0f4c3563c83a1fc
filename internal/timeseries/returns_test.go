package timeseries

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReturnsDaily(t *testing.T) {
	// Levels on three consecutive days; the first requested day needs the
	// prior day's level, so the panel starts one day early.
	tbl := priceTable(
		[]string{"2020-01-01", "2020-01-02", "2020-01-03"},
		map[string][]float64{"fund": {100, 110, 99}},
		"fund",
	)
	w := Window{Start: MustParseDate("2020-01-02"), End: MustParseDate("2020-01-03")}

	out, err := Returns(tbl, []string{"fund"}, w, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("got %d rows, want 2", out.Len())
	}
	if got := out.Row(0)["fund"].(float64); !almostEqual(got, 0.10) {
		t.Errorf("day 2 return: got %v, want 0.10", got)
	}
	if got := out.Row(1)["fund"].(float64); !almostEqual(got, -0.10) {
		t.Errorf("day 3 return: got %v, want -0.10", got)
	}
	if out.Date(0).String() != "2020-01-02" {
		t.Errorf("first return should be for the first requested day, got %s", out.Date(0))
	}
}

func TestReturnsFirstRowDropped(t *testing.T) {
	// No data before the window start: the first day has no predecessor and
	// must be dropped.
	tbl := priceTable(
		[]string{"2020-01-01", "2020-01-02", "2020-01-03"},
		map[string][]float64{"fund": {100, 110, 99}},
		"fund",
	)
	w := Window{Start: MustParseDate("2020-01-01"), End: MustParseDate("2020-01-03")}

	out, err := Returns(tbl, []string{"fund"}, w, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("got %d rows, want 2 (first day dropped)", out.Len())
	}
	if out.Date(0).String() != "2020-01-02" {
		t.Errorf("got first date %s, want 2020-01-02", out.Date(0))
	}
}

func TestReturnsSingleDayWindow(t *testing.T) {
	tbl := priceTable([]string{"2020-01-02"}, map[string][]float64{"fund": {100}}, "fund")
	w := Window{Start: MustParseDate("2020-01-02"), End: MustParseDate("2020-01-02")}

	out, err := Returns(tbl, []string{"fund"}, w, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("no return can be computed for a single day, got %d rows", out.Len())
	}
}

func TestReturnsEmptyCodes(t *testing.T) {
	tbl := priceTable(
		[]string{"2020-01-01", "2020-01-02"},
		map[string][]float64{"fund": {100, 110}},
		"fund",
	)
	w := Window{Start: MustParseDate("2020-01-01"), End: MustParseDate("2020-01-02")}

	out, err := Returns(tbl, nil, w, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cols := out.Columns()
	if len(cols) != 1 || cols[0] != DateColumn {
		t.Fatalf("want only the date column, got %v", cols)
	}
	if out.Len() != 2 {
		t.Errorf("got %d rows, want 2 (requested window only)", out.Len())
	}
}

func TestReturnsMonthly(t *testing.T) {
	// Daily levels spanning two month ends; monthly returns difference the
	// month-end observations against each other.
	dates := []string{"2020-01-30", "2020-01-31", "2020-02-15", "2020-02-29", "2020-03-31"}
	levels := []float64{99, 100, 105, 110, 121}
	tbl := priceTable(dates, map[string][]float64{"fund": levels}, "fund")
	w := Window{Start: MustParseDate("2020-01-31"), End: MustParseDate("2020-03-31")}

	out, err := Returns(tbl, []string{"fund"}, w, Monthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("got %d rows, want 2", out.Len())
	}
	if out.Date(0).String() != "2020-02-29" || out.Date(1).String() != "2020-03-31" {
		t.Errorf("unexpected month-end dates: %v, %v", out.Date(0), out.Date(1))
	}
	if got := out.Row(0)["fund"].(float64); !almostEqual(got, 0.10) {
		t.Errorf("february return: got %v, want 0.10", got)
	}
	if got := out.Row(1)["fund"].(float64); !almostEqual(got, 0.10) {
		t.Errorf("march return: got %v, want 0.10", got)
	}
}

func TestReturnsDropsIncompleteRows(t *testing.T) {
	// The last day has no observation and no future value; its NaN level
	// propagates into the return, and the row is dropped.
	tbl := priceTable(
		[]string{"2020-01-01", "2020-01-02"},
		map[string][]float64{"fund": {100, 110}},
		"fund",
	)
	w := Window{Start: MustParseDate("2020-01-02"), End: MustParseDate("2020-01-03")}

	out, err := Returns(tbl, []string{"fund"}, w, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("got %d rows, want 1", out.Len())
	}
	if out.Date(0).String() != "2020-01-02" {
		t.Errorf("surviving row should be 2020-01-02, got %s", out.Date(0))
	}
}

func TestReturnsPreservesCodeOrder(t *testing.T) {
	tbl := priceTable(
		[]string{"2020-01-01", "2020-01-02"},
		map[string][]float64{"x": {1, 2}, "y": {10, 20}},
		"x", "y",
	)
	w := Window{Start: MustParseDate("2020-01-02"), End: MustParseDate("2020-01-02")}

	out, err := Returns(tbl, []string{"y", "x"}, w, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cols := out.Columns()
	if len(cols) != 3 || cols[0] != DateColumn || cols[1] != "y" || cols[2] != "x" {
		t.Errorf("requested code order not preserved: %v", cols)
	}
}
