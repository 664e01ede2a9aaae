package calsync

import (
	"fmt"
	"strings"
	"time"

	"planner/core/recurrence"
	"planner/core/series"

	"google.golang.org/api/calendar/v3"
)

const startTimeLayout = "15:04"

// eventTimes returns the start and end of an item on date. Items without a
// start time are all-day.
func eventTimes(date time.Time, tpl series.Template, loc *time.Location) (start, end *calendar.EventDateTime, err error) {
	if tpl.StartTime == "" {
		day := recurrence.DateOf(date)
		return &calendar.EventDateTime{Date: recurrence.FormatDate(day)},
			&calendar.EventDateTime{Date: recurrence.FormatDate(day.AddDate(0, 0, 1))},
			nil
	}

	clock, err := time.Parse(startTimeLayout, tpl.StartTime)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start time %q: %w", tpl.StartTime, err)
	}
	y, m, d := date.Date()
	at := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc)
	duration := time.Duration(tpl.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	return &calendar.EventDateTime{DateTime: at.Format(time.RFC3339), TimeZone: loc.String()},
		&calendar.EventDateTime{DateTime: at.Add(duration).Format(time.RFC3339), TimeZone: loc.String()},
		nil
}

// seriesEvent builds the Google event for a series with the given RRULE line.
func seriesEvent(s series.Series, rrule string, loc *time.Location) (*calendar.Event, error) {
	start, end, err := eventTimes(s.Anchor, s.Template, loc)
	if err != nil {
		return nil, err
	}
	return &calendar.Event{
		Summary:     s.Template.Title,
		Description: s.Template.Description,
		Start:       start,
		End:         end,
		Recurrence:  []string{rrule},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{"plannerSeriesId": s.ID},
		},
	}, nil
}

// exdateLine returns the EXDATE recurrence line removing dates from a series
// with template tpl, or "" when there is nothing to remove.
func exdateLine(dates []time.Time, tpl series.Template, loc *time.Location) (string, error) {
	if len(dates) == 0 {
		return "", nil
	}
	values := make([]string, 0, len(dates))
	if tpl.StartTime == "" {
		for _, d := range dates {
			values = append(values, recurrence.DateOf(d).Format(icsDateLayout))
		}
		return "EXDATE;VALUE=DATE:" + strings.Join(values, ","), nil
	}

	clock, err := time.Parse(startTimeLayout, tpl.StartTime)
	if err != nil {
		return "", fmt.Errorf("invalid start time %q: %w", tpl.StartTime, err)
	}
	for _, d := range dates {
		y, m, day := d.Date()
		at := time.Date(y, m, day, clock.Hour(), clock.Minute(), 0, 0, loc)
		values = append(values, at.UTC().Format(icsDateTimeLayout)+"Z")
	}
	return "EXDATE:" + strings.Join(values, ","), nil
}
