package timeseries

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the textual form used for dates everywhere in this module.
const DateFormat = "2006-01-02"

// Date represents a calendar date with day granularity and no time component.
// The zero value is the zero date (year 1, January 1).
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// DateOf truncates a time.Time to its calendar date (in the time's location).
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, DateFormat, err)
	}
	return NewDate(t.Date()), nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and
// static configuration.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// time returns the canonical representation of the day: midnight UTC.
func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Add returns the date shifted by the given number of calendar days.
func (d Date) Add(days int) Date { return NewDate(d.y, d.m, d.d+days) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Equal reports whether d and x are the same calendar day.
func (d Date) Equal(x Date) bool { return d == x }

// IsMonthEnd reports whether d is the last calendar day of its month.
func (d Date) IsMonthEnd() bool { return d.Add(1).m != d.m }

// Year returns the year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.time().Format(DateFormat) }

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive date range. Start after End is a valid, empty window.
type Window struct {
	Start Date
	End   Date
}

// NewWindow builds a window from two YYYY-MM-DD strings.
func NewWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// Empty reports whether the window contains no days.
func (w Window) Empty() bool { return w.Start.After(w.End) }

// Contains reports whether d falls inside the window, bounds included.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns every calendar day in the window, ascending. Empty windows
// yield nil.
func (w Window) Days() []Date {
	if w.Empty() {
		return nil
	}
	var days []Date
	for d := w.Start; !d.After(w.End); d = d.Add(1) {
		days = append(days, d)
	}
	return days
}

// Frequency selects the observation grid of a derived series.
type Frequency string

const (
	Daily   Frequency = "daily"
	Monthly Frequency = "monthly"
)

// ParseFrequency validates a textual frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Daily, Monthly:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("invalid frequency %q, want %q or %q", s, Daily, Monthly)
	}
}
