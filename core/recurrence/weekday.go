package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is an ISO weekday, Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayCodes = [...]string{"", "MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// WeekdayOf returns the ISO weekday of t.
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// Valid reports whether w is one of the seven weekdays.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// String returns the two letter code (MO, TU, ...).
func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayCodes[w]
}

// ParseWeekday parses a two letter weekday code, case-insensitively.
func ParseWeekday(code string) (Weekday, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i := Monday; i <= Sunday; i++ {
		if weekdayCodes[i] == code {
			return i, true
		}
	}
	return 0, false
}

func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: weekday %d", ErrInvalidRule, int(w))
	}
	return []byte(weekdayCodes[w]), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, ok := ParseWeekday(string(text))
	if !ok {
		return fmt.Errorf("%w: weekday %q", ErrInvalidRule, string(text))
	}
	*w = parsed
	return nil
}
