// Package codec converts recurrence rules to and from RFC 5545 RRULE text.
//
// Only the subset exchanged with external calendars is understood: FREQ of
// DAILY, WEEKLY or MONTHLY, with INTERVAL, BYDAY, BYMONTHDAY, UNTIL and COUNT.
// Anything else decodes to absence rather than an error, so callers can fall
// back to storing the item without a rule.
//
// UNTIL travels on the wire as a UTC timestamp. The codec maps it from and to
// a calendar date in its configured location: the date's last second is what
// gets sent, and an incoming timestamp is read back as the local date.
package codec

import (
	"strconv"
	"strings"
	"time"

	"planner/core/recurrence"
)

const (
	prefix          = "RRULE:"
	untilLayout     = "20060102T150405Z"
	untilDateLayout = "20060102"
)

// Codec encodes and decodes RRULE text relative to a location.
type Codec struct {
	loc *time.Location
}

// New returns a codec for loc. A nil loc means time.Local.
func New(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// Location returns the location UNTIL dates are interpreted in.
func (c *Codec) Location() *time.Location { return c.loc }

// Decode parses "RRULE:..." text. It reports false for empty text, a missing
// prefix or an unsupported FREQ. Malformed optional parts are dropped.
func (c *Codec) Decode(text string) (recurrence.Rule, bool) {
	text = strings.TrimSpace(text)
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return recurrence.Rule{}, false
	}
	params := parseParams(text[len(prefix):])

	var freq recurrence.Frequency
	switch strings.ToUpper(params["FREQ"]) {
	case "DAILY":
		freq = recurrence.Daily{}
	case "WEEKLY":
		freq = recurrence.Weekly{ByDay: parseByDay(params["BYDAY"])}
	case "MONTHLY":
		freq = recurrence.Monthly{ByMonthDay: parseMonthDay(params["BYMONTHDAY"])}
	default:
		return recurrence.Rule{}, false
	}

	rule := recurrence.Rule{Freq: freq, Interval: 1, End: recurrence.NoEnd()}
	if n, err := strconv.Atoi(params["INTERVAL"]); err == nil && n > 0 {
		rule.Interval = n
	}
	if until, ok := c.ParseUntil(params["UNTIL"]); ok {
		rule.End = recurrence.Until(until)
	} else if n, err := strconv.Atoi(params["COUNT"]); err == nil && n > 0 {
		rule.End = recurrence.Count(n)
	}
	return rule, true
}

// Encode renders rule as "RRULE:..." text. It reports false for a nil rule
// and for frequencies outside the wire subset.
func (c *Codec) Encode(rule *recurrence.Rule) (string, bool) {
	if rule == nil || rule.Freq == nil {
		return "", false
	}
	parts, err := recurrence.Visit[[]string](rule.Freq, wireParts{})
	if err != nil || parts == nil {
		return "", false
	}

	out := []string{parts[0]}
	if rule.Interval > 1 {
		out = append(out, "INTERVAL="+strconv.Itoa(rule.Interval))
	}
	out = append(out, parts[1:]...)

	if until, ok := rule.End.UntilDate(); ok {
		out = append(out, "UNTIL="+c.FormatUntil(until))
	} else if n, ok := rule.End.CountValue(); ok {
		out = append(out, "COUNT="+strconv.Itoa(n))
	}
	return prefix + strings.Join(out, ";"), true
}

// FormatUntil renders a local calendar date as the wire UNTIL value: the last
// second of that day in the codec's location, in UTC.
func (c *Codec) FormatUntil(date time.Time) string {
	y, m, d := date.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, c.loc).UTC().Format(untilLayout)
}

// ParseUntil reads a wire UNTIL value back into a local calendar date.
// Both the UTC timestamp form and a bare YYYYMMDD date are accepted.
func (c *Codec) ParseUntil(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(untilLayout, token); err == nil {
		return recurrence.DateOf(t.In(c.loc)), true
	}
	if t, err := time.ParseInLocation(untilDateLayout, token, c.loc); err == nil {
		return recurrence.DateOf(t), true
	}
	return time.Time{}, false
}

// wireParts yields FREQ followed by the frequency specific parts. A nil
// slice marks a frequency that has no wire form.
type wireParts struct{}

func (wireParts) Daily(recurrence.Daily) []string { return []string{"FREQ=DAILY"} }

func (wireParts) Weekly(w recurrence.Weekly) []string {
	parts := []string{"FREQ=WEEKLY"}
	if len(w.ByDay) > 0 {
		codes := make([]string, 0, len(w.ByDay))
		for _, d := range w.ByDay {
			codes = append(codes, d.String())
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	return parts
}

func (wireParts) Monthly(m recurrence.Monthly) []string {
	parts := []string{"FREQ=MONTHLY"}
	if m.ByMonthDay > 0 {
		parts = append(parts, "BYMONTHDAY="+strconv.Itoa(m.ByMonthDay))
	}
	return parts
}

func (wireParts) Yearly(recurrence.Yearly) []string { return nil }

func parseParams(body string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(body, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return params
}

// parseByDay keeps the plain two letter codes and skips anything else,
// including positional forms like 1MO.
func parseByDay(value string) []recurrence.Weekday {
	if value == "" {
		return nil
	}
	var days []recurrence.Weekday
	seen := make(map[recurrence.Weekday]bool)
	for _, code := range strings.Split(value, ",") {
		wd, ok := recurrence.ParseWeekday(code)
		if !ok || seen[wd] {
			continue
		}
		seen[wd] = true
		days = append(days, wd)
	}
	return days
}

// parseMonthDay takes the first day in 1..31 from a BYMONTHDAY list.
func parseMonthDay(value string) int {
	for _, part := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n >= 1 && n <= 31 {
			return n
		}
	}
	return 0
}
