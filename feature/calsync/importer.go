package calsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"planner/core/recurrence"
	"planner/core/recurrence/codec"
	"planner/core/series"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// ImportResult counts what an import created.
type ImportResult struct {
	// Series counts recurring events stored as series.
	Series int `json:"series" yaml:"series"`
	// Instances counts every instance created, recurring or standalone.
	Instances int `json:"instances" yaml:"instances"`
	// Expanded counts recurring events whose rule had to be flattened into standalone items.
	Expanded int `json:"expanded" yaml:"expanded"`
	// Skipped counts events that could not be read.
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Importer reads iCalendar files into series and standalone items.
type Importer struct {
	service        *series.Service
	codec          *codec.Codec
	maxOccurrences int
	logger         *zap.Logger
}

// NewImporter creates an importer. Flattened recurrences stop after maxOccurrences dates.
func NewImporter(service *series.Service, c *codec.Codec, maxOccurrences int, logger *zap.Logger) *Importer {
	if maxOccurrences <= 0 {
		maxOccurrences = recurrence.DefaultMaxOccurrences
	}
	return &Importer{service: service, codec: c, maxOccurrences: maxOccurrences, logger: logger}
}

// icsEvent is the part of a VEVENT the importer uses.
type icsEvent struct {
	uid          string
	template     series.Template
	start        time.Time
	allDay       bool
	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
	completed    bool
}

// Import reads r and creates items for ownerID. A recurring event whose
// RRULE the codec understands becomes a series, with EXDATEs deleted and
// RECURRENCE-ID overrides applied as single-instance edits. Other recurring
// events are expanded into standalone items.
func (im *Importer) Import(ctx context.Context, r io.Reader, ownerID string) (*ImportResult, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	result := &ImportResult{}
	var bases []icsEvent
	overrides := make(map[string][]icsEvent)
	for _, ve := range cal.Events() {
		ev, err := im.readEvent(ve)
		if err != nil {
			result.Skipped++
			im.logger.Warn("Skipping unreadable event", zap.Error(err))
			continue
		}
		if ev.recurrenceID != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		bases = append(bases, ev)
	}

	for _, ev := range bases {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := im.importEvent(ctx, ev, overrides[ev.uid], ownerID, result); err != nil {
			return result, err
		}
	}

	im.logger.Info("Calendar imported",
		zap.String("owner", ownerID),
		zap.Int("series", result.Series),
		zap.Int("instances", result.Instances),
		zap.Int("expanded", result.Expanded),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (im *Importer) importEvent(ctx context.Context, ev icsEvent, overrides []icsEvent, ownerID string, result *ImportResult) error {
	if ev.rrule == "" {
		return im.createSingle(ctx, ev, ownerID, result)
	}

	rule, ok := im.codec.Decode("RRULE:" + ev.rrule)
	if ok && rule.Validate() == nil {
		return im.createSeries(ctx, ev, rule, overrides, ownerID, result)
	}

	dates, err := im.expand(ev)
	if err != nil {
		im.logger.Warn("Importing unparseable recurrence as a single event",
			zap.String("uid", ev.uid),
			zap.String("rrule", ev.rrule),
			zap.Error(err),
		)
		return im.createSingle(ctx, ev, ownerID, result)
	}
	result.Expanded++
	byDate := overridesByDate(overrides)
	for _, d := range dates {
		item := ev
		item.start = d
		if o, found := byDate[d]; found {
			item = o
		}
		if err := im.createSingle(ctx, item, ownerID, result); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) createSingle(ctx context.Context, ev icsEvent, ownerID string, result *ImportResult) error {
	created, err := im.service.CreateSeries(ctx, series.CreateRequest{
		Anchor:   ev.start,
		OwnerID:  ownerID,
		Template: ev.template,
	})
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", ev.uid, err)
	}
	result.Instances += len(created)
	if ev.completed && len(created) == 1 {
		done := true
		_, err := im.service.UpdateInstance(ctx, series.UpdateRequest{
			ID:     created[0].ID,
			Scope:  series.ScopeThis,
			Fields: series.Fields{Completed: &done},
		})
		if err != nil {
			return fmt.Errorf("failed to mark %s completed: %w", ev.uid, err)
		}
	}
	return nil
}

func (im *Importer) createSeries(ctx context.Context, ev icsEvent, rule recurrence.Rule, overrides []icsEvent, ownerID string, result *ImportResult) error {
	created, err := im.service.CreateSeries(ctx, series.CreateRequest{
		Rule:     &rule,
		Anchor:   ev.start,
		OwnerID:  ownerID,
		Template: ev.template,
	})
	if err != nil {
		return fmt.Errorf("failed to import series %s: %w", ev.uid, err)
	}
	result.Series++
	result.Instances += len(created)

	byDate := make(map[time.Time]series.Instance, len(created))
	for _, inst := range created {
		byDate[inst.Date] = inst
	}

	for _, ex := range ev.exdates {
		inst, found := byDate[ex]
		if !found {
			continue
		}
		if _, err := im.service.DeleteInstance(ctx, series.DeleteRequest{ID: inst.ID, Scope: series.ScopeThis}); err != nil {
			return fmt.Errorf("failed to apply EXDATE of %s: %w", ev.uid, err)
		}
		delete(byDate, ex)
		result.Instances--
	}

	for _, o := range overrides {
		inst, found := byDate[*o.recurrenceID]
		if !found {
			continue
		}
		fields := overrideFields(inst, o)
		if fields.IsEmpty() {
			continue
		}
		_, err := im.service.UpdateInstance(ctx, series.UpdateRequest{ID: inst.ID, Scope: series.ScopeThis, Fields: fields})
		if err != nil && !errors.Is(err, series.ErrDateConflict) {
			return fmt.Errorf("failed to apply override of %s: %w", ev.uid, err)
		}
	}
	return nil
}

// expand flattens a recurrence the codec cannot represent.
func (im *Importer) expand(ev icsEvent) ([]time.Time, error) {
	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return nil, err
	}
	loc := im.codec.Location()
	y, m, d := ev.start.Date()
	r.DTStart(time.Date(y, m, d, 0, 0, 0, 0, loc))

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exdates {
		ey, em, ed := ex.Date()
		set.ExDate(time.Date(ey, em, ed, 0, 0, 0, 0, loc))
	}

	var dates []time.Time
	next := set.Iterator()
	for len(dates) < im.maxOccurrences {
		t, ok := next()
		if !ok {
			break
		}
		dates = append(dates, recurrence.DateOf(t.In(loc)))
	}
	if len(dates) == im.maxOccurrences {
		im.logger.Info("Flattened recurrence hit the occurrence cap",
			zap.String("uid", ev.uid),
			zap.Int("cap", im.maxOccurrences),
		)
	}
	return dates, nil
}

func (im *Importer) readEvent(ve *ical.VEvent) (icsEvent, error) {
	var ev icsEvent
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.uid = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.template.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.template.Description = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("event %s has no DTSTART", ev.uid)
	}
	start, allDay, err := im.parseTime(dtStart)
	if err != nil {
		return ev, fmt.Errorf("event %s: %w", ev.uid, err)
	}
	ev.start = recurrence.DateOf(start)
	ev.allDay = allDay
	if !allDay {
		ev.template.StartTime = start.Format(startTimeLayout)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, _, err := im.parseTime(dtEnd); err == nil && end.After(start) {
				ev.template.DurationMinutes = int(end.Sub(start) / time.Minute)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = strings.TrimSpace(p.Value)
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := im.parseValue(strings.TrimSpace(part), p.ICalParameters); err == nil {
				ev.exdates = append(ev.exdates, recurrence.DateOf(t))
			}
		}
	}
	if p := ve.GetProperty(recurrenceIDProperty); p != nil {
		if t, _, err := im.parseTime(p); err == nil {
			d := recurrence.DateOf(t)
			ev.recurrenceID = &d
		}
	}
	if p := ve.GetProperty(completedProperty); p != nil {
		ev.completed = strings.EqualFold(strings.TrimSpace(p.Value), "TRUE")
	}
	return ev, nil
}

func (im *Importer) parseTime(p *ical.IANAProperty) (time.Time, bool, error) {
	return im.parseValue(strings.TrimSpace(p.Value), p.ICalParameters)
}

// parseValue reads a DATE or DATE-TIME value into the codec's location.
// The result reports whether the value was a bare date.
func (im *Importer) parseValue(value string, params map[string][]string) (time.Time, bool, error) {
	loc := im.codec.Location()
	if tz, ok := params["TZID"]; ok && len(tz) > 0 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(value, "Z"):
		t, err := time.Parse(icsDateTimeLayout+"Z", value)
		return t.In(im.codec.Location()), false, err
	case strings.Contains(value, "T"):
		t, err := time.ParseInLocation(icsDateTimeLayout, value, loc)
		return t.In(im.codec.Location()), false, err
	default:
		t, err := time.ParseInLocation(icsDateLayout, value, im.codec.Location())
		return t, true, err
	}
}

func overridesByDate(overrides []icsEvent) map[time.Time]icsEvent {
	out := make(map[time.Time]icsEvent, len(overrides))
	for _, o := range overrides {
		out[*o.recurrenceID] = o
	}
	return out
}

// overrideFields is the patch turning inst into override o.
func overrideFields(inst series.Instance, o icsEvent) series.Fields {
	var f series.Fields
	if o.template.Title != inst.Title {
		f.Title = &o.template.Title
	}
	if o.template.Description != inst.Description {
		f.Description = &o.template.Description
	}
	if o.template.StartTime != inst.StartTime {
		f.StartTime = &o.template.StartTime
	}
	if o.template.DurationMinutes != inst.DurationMinutes {
		f.DurationMinutes = &o.template.DurationMinutes
	}
	if o.completed != inst.Completed {
		f.Completed = &o.completed
	}
	if !o.start.Equal(inst.Date) {
		f.Date = &o.start
	}
	return f
}
