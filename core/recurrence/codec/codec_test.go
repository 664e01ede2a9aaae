package codec

import (
	"sort"
	"strings"
	"testing"
	"time"

	"planner/core/recurrence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedParts(text string) []string {
	parts := strings.Split(strings.TrimPrefix(text, prefix), ";")
	sort.Strings(parts)
	return parts
}

// TestCodec_MonthlyCountRoundTrip decodes and re-encodes a monthly rule.
func TestCodec_MonthlyCountRoundTrip(t *testing.T) {
	c := New(time.UTC)
	in := "RRULE:FREQ=MONTHLY;BYMONTHDAY=31;COUNT=3"

	rule, ok := c.Decode(in)
	require.True(t, ok)
	assert.Equal(t, recurrence.Monthly{ByMonthDay: 31}, rule.Freq)
	assert.Equal(t, 1, rule.Interval)

	out, ok := c.Encode(&rule)
	require.True(t, ok)
	assert.Equal(t, sortedParts(in), sortedParts(out))
	assert.True(t, strings.HasPrefix(out, prefix))
}

func TestCodec_RoundTripAcrossZones(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("west", -8*3600),
		time.FixedZone("east", 9*3600+30*60),
	}
	rules := []recurrence.Rule{
		{Freq: recurrence.Daily{}, Interval: 1, End: recurrence.NoEnd()},
		{Freq: recurrence.Daily{}, Interval: 3, End: recurrence.Count(10)},
		{Freq: recurrence.Weekly{ByDay: []recurrence.Weekday{recurrence.Monday, recurrence.Thursday}}, Interval: 2, End: recurrence.Until(recurrence.Date(2025, time.June, 30))},
		{Freq: recurrence.Weekly{}, Interval: 1, End: recurrence.Count(4)},
		{Freq: recurrence.Monthly{ByMonthDay: 15}, Interval: 1, End: recurrence.Until(recurrence.Date(2025, time.December, 31))},
		{Freq: recurrence.Monthly{}, Interval: 6, End: recurrence.NoEnd()},
	}

	for _, loc := range zones {
		c := New(loc)
		for _, rule := range rules {
			text, ok := c.Encode(&rule)
			require.True(t, ok)
			back, ok := c.Decode(text)
			require.True(t, ok, text)
			assert.Equal(t, rule, back, "%s in %s", text, loc)
		}
	}
}

func TestCodec_EncodeOrderAndUntil(t *testing.T) {
	c := New(time.FixedZone("west", -5*3600))
	rule := recurrence.Rule{
		Freq:     recurrence.Weekly{ByDay: []recurrence.Weekday{recurrence.Monday, recurrence.Wednesday}},
		Interval: 2,
		End:      recurrence.Until(recurrence.Date(2025, time.January, 31)),
	}

	text, ok := c.Encode(&rule)
	require.True(t, ok)
	// The last second of Jan 31 at UTC-5 is Feb 1 04:59:59 UTC.
	assert.Equal(t, "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;UNTIL=20250201T045959Z", text)
}

func TestCodec_EncodeUnsupported(t *testing.T) {
	c := New(time.UTC)

	_, ok := c.Encode(nil)
	assert.False(t, ok)

	_, ok = c.Encode(&recurrence.Rule{Freq: recurrence.Yearly{}, Interval: 1})
	assert.False(t, ok)

	_, ok = c.Encode(&recurrence.Rule{Interval: 1})
	assert.False(t, ok)
}

func TestCodec_DecodeAbsence(t *testing.T) {
	c := New(time.UTC)

	for _, text := range []string{
		"",
		"FREQ=DAILY",
		"RRULE:",
		"RRULE:FREQ=YEARLY",
		"RRULE:FREQ=HOURLY;COUNT=2",
		"EXDATE:20250101",
	} {
		_, ok := c.Decode(text)
		assert.False(t, ok, text)
	}
}

func TestCodec_DecodeTolerance(t *testing.T) {
	c := New(time.UTC)

	// Malformed UNTIL falls back to COUNT.
	rule, ok := c.Decode("RRULE:FREQ=DAILY;UNTIL=garbage;COUNT=4")
	require.True(t, ok)
	n, isCount := rule.End.CountValue()
	assert.True(t, isCount)
	assert.Equal(t, 4, n)

	// Lower case, bare date UNTIL, positional BYDAY entries skipped.
	rule, ok = c.Decode("rrule:freq=weekly;byday=1MO,tu,FR;until=20250301;interval=x")
	require.True(t, ok)
	assert.Equal(t, recurrence.Weekly{ByDay: []recurrence.Weekday{recurrence.Tuesday, recurrence.Friday}}, rule.Freq)
	assert.Equal(t, 1, rule.Interval)
	until, isUntil := rule.End.UntilDate()
	assert.True(t, isUntil)
	assert.Equal(t, recurrence.Date(2025, time.March, 1), until)

	// Out of range BYMONTHDAY reads as the anchor day.
	rule, ok = c.Decode("RRULE:FREQ=MONTHLY;BYMONTHDAY=40")
	require.True(t, ok)
	assert.Equal(t, recurrence.Monthly{}, rule.Freq)
	assert.Equal(t, recurrence.EndNone, rule.End.Kind())
}

func TestCodec_ParseUntilLocalDate(t *testing.T) {
	c := New(time.FixedZone("east", 10*3600))

	d, ok := c.ParseUntil("20250131T200000Z")
	require.True(t, ok)
	assert.Equal(t, recurrence.Date(2025, time.February, 1), d)

	_, ok = c.ParseUntil("2025-01-31")
	assert.False(t, ok)
}
