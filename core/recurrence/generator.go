package recurrence

import (
	"slices"
	"time"
)

// DefaultMaxOccurrences caps open ended rules when no limit is configured.
const DefaultMaxOccurrences = 52

// LastYear is the last year a date may fall in. Generation stops past it.
const LastYear = 9999

// Config holds recurrence settings.
type Config struct {
	// MaxOccurrences caps how many dates one rule may produce.
	MaxOccurrences int `mapstructure:"max_occurrences" default:"52"`
}

// Generator expands rules into dates.
type Generator struct {
	MaxOccurrences int
}

// NewGenerator returns a generator capped at limit occurrences per rule.
// A non-positive limit falls back to DefaultMaxOccurrences.
func NewGenerator(limit int) *Generator {
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}
	return &Generator{MaxOccurrences: limit}
}

var defaultGenerator = NewGenerator(DefaultMaxOccurrences)

// Generate expands rule from anchor using the default cap.
func Generate(rule Rule, anchor time.Time) ([]time.Time, error) {
	return defaultGenerator.Generate(rule, anchor)
}

// Generate returns the occurrence dates of rule starting at anchor.
// The result is strictly ascending, never before anchor and never after the
// rule's until date. A counted rule yields at most count dates; any other
// rule stops at MaxOccurrences. An interval below 1 is read as 1.
func (g *Generator) Generate(rule Rule, anchor time.Time) ([]time.Time, error) {
	if rule.Interval < 1 {
		rule.Interval = 1
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	limit := g.MaxOccurrences
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}
	if n, ok := rule.End.CountValue(); ok {
		limit = n
	}

	e := &emitter{
		anchor:   DateOf(anchor),
		interval: rule.Interval,
		limit:    limit,
		out:      make([]time.Time, 0, min(limit, 64)),
	}
	if until, ok := rule.End.UntilDate(); ok {
		e.until, e.hasUntil = until, true
	}

	if _, err := Visit[struct{}](rule.Freq, e); err != nil {
		return nil, err
	}
	return e.out, nil
}

// emitter walks candidate dates in ascending order and collects them
// until the until date or the limit stops it.
type emitter struct {
	anchor   time.Time
	interval int
	limit    int
	until    time.Time
	hasUntil bool
	out      []time.Time
}

// push appends d and reports whether more dates are wanted. A date that
// does not advance past the previous one ends the walk.
func (e *emitter) push(d time.Time) bool {
	if e.hasUntil && d.After(e.until) {
		return false
	}
	if d.Year() > LastYear || d.Before(e.anchor) {
		return false
	}
	if n := len(e.out); n > 0 && !d.After(e.out[n-1]) {
		return false
	}
	e.out = append(e.out, d)
	return len(e.out) < e.limit
}

func (e *emitter) Daily(Daily) struct{} {
	for k := 0; ; k++ {
		if !e.push(e.anchor.AddDate(0, 0, k*e.interval)) {
			return struct{}{}
		}
	}
}

func (e *emitter) Weekly(w Weekly) struct{} {
	days := slices.Clone(w.ByDay)
	if len(days) == 0 {
		days = []Weekday{WeekdayOf(e.anchor)}
	}
	slices.Sort(days)

	monday := e.anchor.AddDate(0, 0, -int(WeekdayOf(e.anchor)-Monday))
	for k := 0; ; k++ {
		week := monday.AddDate(0, 0, 7*k*e.interval)
		for _, wd := range days {
			d := week.AddDate(0, 0, int(wd-Monday))
			if k == 0 && d.Before(e.anchor) {
				continue
			}
			if !e.push(d) {
				return struct{}{}
			}
		}
	}
}

func (e *emitter) Monthly(m Monthly) struct{} {
	day := m.ByMonthDay
	if day == 0 {
		day = e.anchor.Day()
	}
	year, month := e.anchor.Year(), e.anchor.Month()
	for k := 0; ; k++ {
		first := Date(year, month+time.Month(k*e.interval), 1)
		d := clampDate(first.Year(), first.Month(), day)
		if k == 0 && d.Before(e.anchor) {
			continue
		}
		if !e.push(d) {
			return struct{}{}
		}
	}
}

func (e *emitter) Yearly(Yearly) struct{} {
	for k := 0; ; k++ {
		d := clampDate(e.anchor.Year()+k*e.interval, e.anchor.Month(), e.anchor.Day())
		if !e.push(d) {
			return struct{}{}
		}
	}
}
