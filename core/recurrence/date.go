package recurrence

import (
	"fmt"
	"time"
)

// DateLayout is the textual form of a calendar date.
const DateLayout = "2006-01-02"

// Date returns the calendar date y-m-d as UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock and location of t, keeping its calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRule, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDate builds y-m-d, pulling day back to the last day of the month when it overflows.
func clampDate(year int, month time.Month, day int) time.Time {
	if n := daysIn(year, month); day > n {
		day = n
	}
	return Date(year, month, day)
}
