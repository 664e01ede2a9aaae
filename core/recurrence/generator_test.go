package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(t *testing.T, values ...string) []time.Time {
	t.Helper()
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

// TestGenerate_WeeklyMidWeekAnchor covers a Wednesday anchor with MO/WE/FR.
func TestGenerate_WeeklyMidWeekAnchor(t *testing.T) {
	rule := Rule{
		Freq:     Weekly{ByDay: []Weekday{Monday, Wednesday, Friday}},
		Interval: 1,
		End:      Count(5),
	}

	got, err := Generate(rule, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-01-01", "2025-01-03", "2025-01-06", "2025-01-08", "2025-01-10"), got)
}

func TestGenerate_WeeklyUnsortedDaysAndInterval(t *testing.T) {
	rule := Rule{
		Freq:     Weekly{ByDay: []Weekday{Thursday, Tuesday}},
		Interval: 2,
		End:      Count(4),
	}

	got, err := Generate(rule, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-01-02", "2025-01-14", "2025-01-16", "2025-01-28"), got)
}

func TestGenerate_WeeklyDefaultsToAnchorWeekday(t *testing.T) {
	rule := Rule{Freq: Weekly{}, Interval: 1, End: Count(3)}

	got, err := Generate(rule, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-01-01", "2025-01-08", "2025-01-15"), got)
}

func TestGenerate_MonthlyClampsShortMonths(t *testing.T) {
	rule := Rule{Freq: Monthly{ByMonthDay: 31}, Interval: 1, End: Count(5)}

	got, err := Generate(rule, Date(2025, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30", "2025-05-31"), got)

	leap, err := Generate(Rule{Freq: Monthly{}, Interval: 1, End: Count(2)}, Date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2024-01-31", "2024-02-29"), leap)
}

func TestGenerate_MonthlySkipsDayBeforeAnchor(t *testing.T) {
	rule := Rule{Freq: Monthly{ByMonthDay: 15}, Interval: 2, End: Count(3)}

	got, err := Generate(rule, Date(2025, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-03-15", "2025-05-15", "2025-07-15"), got)
}

func TestGenerate_YearlyLeapDay(t *testing.T) {
	rule := Rule{Freq: Yearly{}, Interval: 1, End: Count(5)}

	got, err := Generate(rule, Date(2024, time.February, 29))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"), got)
}

func TestGenerate_DailyUntilIsInclusive(t *testing.T) {
	rule := Rule{Freq: Daily{}, Interval: 3, End: Until(Date(2025, time.January, 10))}

	got, err := Generate(rule, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-01-01", "2025-01-04", "2025-01-07", "2025-01-10"), got)
}

func TestGenerate_UntilBeforeAnchorIsEmpty(t *testing.T) {
	rule := Rule{Freq: Daily{}, Interval: 1, End: Until(Date(2024, time.December, 31))}

	got, err := Generate(rule, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerate_SafetyCap(t *testing.T) {
	gen := NewGenerator(10)

	open, err := gen.Generate(Rule{Freq: Daily{}, Interval: 1}, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, open, 10)

	// An explicit count is honoured past the cap.
	counted, err := gen.Generate(Rule{Freq: Daily{}, Interval: 1, End: Count(12)}, Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, counted, 12)

	assert.Equal(t, DefaultMaxOccurrences, NewGenerator(0).MaxOccurrences)
}

func TestGenerate_AnchorClockIsDropped(t *testing.T) {
	anchor := time.Date(2025, time.March, 3, 17, 45, 0, 0, time.FixedZone("X", 2*3600))

	got, err := Generate(Rule{Freq: Daily{}, Interval: 1, End: Count(1)}, anchor)
	require.NoError(t, err)
	assert.Equal(t, dates(t, "2025-03-03"), got)
}

// TestGenerate_Ordering checks ordering and bounds over a spread of rules and anchors.
func TestGenerate_Ordering(t *testing.T) {
	rules := []Rule{
		{Freq: Daily{}, Interval: 2},
		{Freq: Weekly{ByDay: []Weekday{Sunday, Monday, Saturday}}, Interval: 1},
		{Freq: Weekly{ByDay: []Weekday{Friday}}, Interval: 3},
		{Freq: Monthly{ByMonthDay: 30}, Interval: 1},
		{Freq: Monthly{ByMonthDay: 1}, Interval: 5},
		{Freq: Yearly{}, Interval: 2},
	}
	anchors := []time.Time{
		Date(2024, time.February, 29),
		Date(2025, time.January, 1),
		Date(2025, time.June, 15),
		Date(2025, time.December, 31),
	}

	for _, rule := range rules {
		for _, anchor := range anchors {
			got, err := Generate(rule, anchor)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got), DefaultMaxOccurrences)
			assert.False(t, got[0].Before(anchor), "%s from %s", rule.Freq.Tag(), anchor)
			for i := 1; i < len(got); i++ {
				assert.True(t, got[i].After(got[i-1]), "%s from %s at %d", rule.Freq.Tag(), anchor, i)
			}
		}
	}
}

func TestGenerate_CountMatches(t *testing.T) {
	for n := 1; n <= 20; n++ {
		got, err := Generate(Rule{Freq: Monthly{ByMonthDay: 31}, Interval: 1, End: Count(n)}, Date(2025, time.January, 1))
		require.NoError(t, err)
		assert.Len(t, got, n)
	}
}

func TestGenerate_InvalidRules(t *testing.T) {
	anchor := Date(2025, time.January, 1)

	_, err := Generate(Rule{Interval: 1}, anchor)
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)

	_, err = Generate(Rule{Freq: Weekly{ByDay: []Weekday{9}}, Interval: 1}, anchor)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = Generate(Rule{Freq: Weekly{ByDay: []Weekday{Monday, Monday}}, Interval: 1}, anchor)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = Generate(Rule{Freq: Monthly{ByMonthDay: 32}, Interval: 1}, anchor)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = Generate(Rule{Freq: Daily{}, Interval: 1, End: Count(0)}, anchor)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestGenerate_RejectsHugeInterval(t *testing.T) {
	anchor := Date(2025, time.January, 1)
	for _, freq := range []Frequency{Daily{}, Weekly{}, Monthly{}, Yearly{}} {
		_, err := Generate(Rule{Freq: freq, Interval: 1 << 62, End: Count(3)}, anchor)
		assert.ErrorIs(t, err, ErrInvalidRule, "%T", freq)
	}
}

func TestGenerate_LargestIntervalStaysOrdered(t *testing.T) {
	anchor := Date(2025, time.January, 1)
	tests := []struct {
		freq Frequency
		want int
	}{
		{Daily{}, 3},
		{Weekly{}, 3},
		{Monthly{}, 3},
		// The second year would be 12025.
		{Yearly{}, 1},
	}
	for _, tt := range tests {
		got, err := Generate(Rule{Freq: tt.freq, Interval: MaxInterval, End: Count(3)}, anchor)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "%T", tt.freq)
		for i, d := range got {
			assert.False(t, d.Before(anchor), "%T", tt.freq)
			assert.LessOrEqual(t, d.Year(), LastYear, "%T", tt.freq)
			if i > 0 {
				assert.True(t, d.After(got[i-1]), "%T not ascending at %d", tt.freq, i)
			}
		}
	}
}
