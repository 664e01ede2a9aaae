package recurrence

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_JSONShape(t *testing.T) {
	rule := Rule{
		Freq:     Weekly{ByDay: []Weekday{Monday, Friday}},
		Interval: 2,
		End:      Until(Date(2025, time.March, 1)),
	}

	b, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.JSONEq(t, `{"freq":"WEEKLY","interval":2,"byDay":["MO","FR"],"until":"2025-03-01"}`, string(b))

	var back Rule
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rule, back)
}

func TestRule_UnmarshalDefaultsAndErrors(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"freq":"MONTHLY","byMonthDay":31,"count":3}`), &r))
	assert.Equal(t, Monthly{ByMonthDay: 31}, r.Freq)
	assert.Equal(t, 1, r.Interval)
	n, ok := r.End.CountValue()
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	err := json.Unmarshal([]byte(`{"freq":"HOURLY"}`), &r)
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)

	err = json.Unmarshal([]byte(`{"freq":"DAILY","until":"2025-01-01","count":2}`), &r)
	assert.ErrorIs(t, err, ErrInvalidRule)

	err = json.Unmarshal([]byte(`{"freq":"WEEKLY","byDay":["XX"]}`), &r)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestRule_ScanValue(t *testing.T) {
	rule := Rule{Freq: Yearly{}, Interval: 1, End: NoEnd()}

	v, err := rule.Value()
	require.NoError(t, err)

	var fromString Rule
	require.NoError(t, fromString.Scan(v))
	assert.Equal(t, rule, fromString)

	var fromBytes Rule
	require.NoError(t, fromBytes.Scan([]byte(v.(string))))
	assert.Equal(t, rule, fromBytes)

	assert.Error(t, fromBytes.Scan(42))
}

type tagCollector struct{}

func (tagCollector) Daily(Daily) string     { return "d" }
func (tagCollector) Weekly(Weekly) string   { return "w" }
func (tagCollector) Monthly(Monthly) string { return "m" }
func (tagCollector) Yearly(Yearly) string   { return "y" }

func TestVisit(t *testing.T) {
	for freq, want := range map[Frequency]string{
		Daily{}:   "d",
		Monthly{}: "m",
		Yearly{}:  "y",
	} {
		got, err := Visit[string](freq, tagCollector{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := Visit[string](Weekly{ByDay: []Weekday{Monday}}, tagCollector{})
	require.NoError(t, err)
	assert.Equal(t, "w", got)

	_, err = Visit[string](nil, tagCollector{})
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Wednesday, WeekdayOf(Date(2025, time.January, 1)))
	assert.Equal(t, Sunday, WeekdayOf(Date(2025, time.January, 5)))
	assert.Equal(t, "SU", Sunday.String())

	wd, ok := ParseWeekday("fr")
	assert.True(t, ok)
	assert.Equal(t, Friday, wd)
}
