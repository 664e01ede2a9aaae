package recurrence

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrUnsupportedFrequency is returned for a frequency outside the supported set.
	ErrUnsupportedFrequency = errors.New("recurrence: unsupported frequency")
	// ErrInvalidRule is returned for a rule whose fields are out of range.
	ErrInvalidRule = errors.New("recurrence: invalid rule")
)

// Tag names a frequency in storage and on the wire.
type Tag string

const (
	TagDaily   Tag = "DAILY"
	TagWeekly  Tag = "WEEKLY"
	TagMonthly Tag = "MONTHLY"
	TagYearly  Tag = "YEARLY"
)

// Frequency is the closed set of recurrence frequencies.
// Only Daily, Weekly, Monthly and Yearly implement it.
type Frequency interface {
	Tag() Tag
	frequency()
}

// Daily repeats every Interval days.
type Daily struct{}

// Weekly repeats on the listed weekdays every Interval weeks.
// An empty ByDay means the anchor's weekday.
type Weekly struct {
	ByDay []Weekday
}

// Monthly repeats on ByMonthDay every Interval months.
// Zero means the anchor's day of month.
type Monthly struct {
	ByMonthDay int
}

// Yearly repeats on the anchor's month and day every Interval years.
type Yearly struct{}

func (Daily) Tag() Tag   { return TagDaily }
func (Weekly) Tag() Tag  { return TagWeekly }
func (Monthly) Tag() Tag { return TagMonthly }
func (Yearly) Tag() Tag  { return TagYearly }

func (Daily) frequency()   {}
func (Weekly) frequency()  {}
func (Monthly) frequency() {}
func (Yearly) frequency()  {}

// Visitor has one method per frequency. Adding a frequency adds a method here,
// which breaks every implementation until it handles the new case.
type Visitor[T any] interface {
	Daily(Daily) T
	Weekly(Weekly) T
	Monthly(Monthly) T
	Yearly(Yearly) T
}

// Visit dispatches f to the matching method of v.
func Visit[T any](f Frequency, v Visitor[T]) (T, error) {
	switch f := f.(type) {
	case Daily:
		return v.Daily(f), nil
	case Weekly:
		return v.Weekly(f), nil
	case Monthly:
		return v.Monthly(f), nil
	case Yearly:
		return v.Yearly(f), nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %T", ErrUnsupportedFrequency, f)
}

// EndKind tells how a rule terminates.
type EndKind int

const (
	EndNone EndKind = iota
	EndUntil
	EndCount
)

// End is the termination condition of a rule. At most one of until and
// count is ever set; build values with NoEnd, Until or Count.
type End struct {
	kind  EndKind
	until time.Time
	count int
}

// NoEnd is an open ended rule.
func NoEnd() End { return End{} }

// Until ends the rule after the given date, inclusive.
func Until(date time.Time) End { return End{kind: EndUntil, until: DateOf(date)} }

// Count ends the rule after n occurrences.
func Count(n int) End { return End{kind: EndCount, count: n} }

func (e End) Kind() EndKind { return e.kind }

// UntilDate returns the inclusive last date when the rule ends by date.
func (e End) UntilDate() (time.Time, bool) {
	return e.until, e.kind == EndUntil
}

// CountValue returns the occurrence count when the rule ends by count.
func (e End) CountValue() (int, bool) {
	return e.count, e.kind == EndCount
}

// MaxInterval is the largest accepted interval.
const MaxInterval = 10000

// Rule describes how a series repeats.
type Rule struct {
	Freq     Frequency
	Interval int
	End      End
}

// Validate checks that the rule can be expanded.
func (r Rule) Validate() error {
	if r.Freq == nil {
		return fmt.Errorf("%w: missing frequency", ErrUnsupportedFrequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1, got %d", ErrInvalidRule, r.Interval)
	}
	if r.Interval > MaxInterval {
		return fmt.Errorf("%w: interval must be <= %d, got %d", ErrInvalidRule, MaxInterval, r.Interval)
	}
	if n, ok := r.End.CountValue(); ok && n < 1 {
		return fmt.Errorf("%w: count must be >= 1, got %d", ErrInvalidRule, n)
	}
	freqErr, err := Visit[error](r.Freq, validator{})
	if err != nil {
		return err
	}
	return freqErr
}

type validator struct{}

func (validator) Daily(Daily) error { return nil }

func (validator) Weekly(w Weekly) error {
	seen := make(map[Weekday]bool, len(w.ByDay))
	for _, d := range w.ByDay {
		if !d.Valid() {
			return fmt.Errorf("%w: weekday %d", ErrInvalidRule, int(d))
		}
		if seen[d] {
			return fmt.Errorf("%w: duplicate weekday %s", ErrInvalidRule, d)
		}
		seen[d] = true
	}
	return nil
}

func (validator) Monthly(m Monthly) error {
	if m.ByMonthDay < 0 || m.ByMonthDay > 31 {
		return fmt.Errorf("%w: month day %d", ErrInvalidRule, m.ByMonthDay)
	}
	return nil
}

func (validator) Yearly(Yearly) error { return nil }

// ruleJSON is the flat storage and API form of a Rule.
type ruleJSON struct {
	Freq       Tag       `json:"freq"`
	Interval   int       `json:"interval,omitempty"`
	ByDay      []Weekday `json:"byDay,omitempty"`
	ByMonthDay int       `json:"byMonthDay,omitempty"`
	Until      string    `json:"until,omitempty"`
	Count      int       `json:"count,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Freq == nil {
		return nil, fmt.Errorf("%w: missing frequency", ErrUnsupportedFrequency)
	}
	out := ruleJSON{Freq: r.Freq.Tag(), Interval: r.Interval}
	switch f := r.Freq.(type) {
	case Weekly:
		out.ByDay = f.ByDay
	case Monthly:
		out.ByMonthDay = f.ByMonthDay
	}
	if d, ok := r.End.UntilDate(); ok {
		out.Until = FormatDate(d)
	}
	if n, ok := r.End.CountValue(); ok {
		out.Count = n
	}
	return json.Marshal(out)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	var rule Rule
	switch in.Freq {
	case TagDaily:
		rule.Freq = Daily{}
	case TagWeekly:
		rule.Freq = Weekly{ByDay: in.ByDay}
	case TagMonthly:
		rule.Freq = Monthly{ByMonthDay: in.ByMonthDay}
	case TagYearly:
		rule.Freq = Yearly{}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFrequency, in.Freq)
	}

	rule.Interval = in.Interval
	if rule.Interval == 0 {
		rule.Interval = 1
	}

	switch {
	case in.Until != "" && in.Count != 0:
		return fmt.Errorf("%w: until and count are exclusive", ErrInvalidRule)
	case in.Until != "":
		d, err := ParseDate(in.Until)
		if err != nil {
			return err
		}
		rule.End = Until(d)
	case in.Count != 0:
		rule.End = Count(in.Count)
	}

	*r = rule
	return nil
}

// Value stores the rule as its JSON form.
func (r Rule) Value() (driver.Value, error) {
	b, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a rule stored by Value.
func (r *Rule) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	case nil:
		*r = Rule{}
		return nil
	}
	return fmt.Errorf("recurrence: cannot scan %T into Rule", src)
}
