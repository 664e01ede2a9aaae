package calsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/core/metrics"
	"planner/core/recurrence"
	"planner/core/recurrence/codec"
	"planner/core/series"

	"go.uber.org/zap"
)

// Report summarizes one sync pass.
type Report struct {
	Inserted int `json:"inserted" yaml:"inserted"`
	Updated  int `json:"updated" yaml:"updated"`
	Deleted  int `json:"deleted" yaml:"deleted"`
	// Skipped counts series the wire format cannot express and dissolved
	// series that were never pushed.
	Skipped int `json:"skipped" yaml:"skipped"`
	Failed  int `json:"failed" yaml:"failed"`
}

// Syncer pushes series masters to an external calendar.
type Syncer struct {
	store      series.Store
	calendar   Calendar
	codec      *codec.Codec
	generator  *recurrence.Generator
	calendarID string
	logger     *zap.Logger
}

// NewSyncer creates a syncer writing to calendarID. generator expands rules
// to find scheduled dates that no longer have an instance.
func NewSyncer(store series.Store, cal Calendar, c *codec.Codec, generator *recurrence.Generator, calendarID string, logger *zap.Logger) *Syncer {
	return &Syncer{store: store, calendar: cal, codec: c, generator: generator, calendarID: calendarID, logger: logger}
}

// Sync pushes every series. Active series are inserted or updated with
// their RRULE plus an EXDATE for every scheduled date without an instance.
// A series ended at its anchor is deleted remotely. A dissolved series is truncated to the day before its split
// date, or deleted remotely when nothing is left before it. One failing
// series does not stop the pass.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	list, err := s.store.ListSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}

	report := &Report{}
	for _, master := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, err := s.push(ctx, master)
		if err != nil {
			report.Failed++
			metrics.SyncPushes.WithLabelValues("failed").Inc()
			s.logger.Error("Series sync failed", zap.String("series", master.ID), zap.Error(err))
			continue
		}
		metrics.SyncPushes.WithLabelValues(outcome).Inc()
		switch outcome {
		case "inserted":
			report.Inserted++
		case "updated":
			report.Updated++
		case "deleted":
			report.Deleted++
		default:
			report.Skipped++
		}
	}

	s.logger.Info("Calendar sync finished",
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Syncer) push(ctx context.Context, master series.Series) (string, error) {
	rule := master.Rule
	if master.Dissolved() {
		if master.ExternalID == "" {
			return "skipped", nil
		}
		last := master.DissolvedAt.AddDate(0, 0, -1)
		if last.Before(master.Anchor) {
			return s.remove(ctx, master)
		}
		rule.End = recurrence.Until(last)
	}

	line, ok := s.codec.Encode(&rule)
	if !ok {
		s.logger.Info("Series rule has no wire form, keeping it local",
			zap.String("series", master.ID),
			zap.String("frequency", string(rule.Freq.Tag())),
		)
		return "skipped", nil
	}
	ev, err := seriesEvent(master, line, s.codec.Location())
	if err != nil {
		return "", err
	}
	removed, err := s.removedDates(ctx, master, rule)
	if err != nil {
		return "", err
	}
	exdate, err := exdateLine(removed, master.Template, s.codec.Location())
	if err != nil {
		return "", err
	}
	if exdate != "" {
		ev.Recurrence = append(ev.Recurrence, exdate)
	}

	if master.ExternalID != "" {
		err := s.calendar.UpdateEvent(ctx, s.calendarID, master.ExternalID, ev)
		if err == nil {
			return "updated", nil
		}
		if !errors.Is(err, ErrEventGone) {
			return "", err
		}
		// Deleted remotely; push it again.
	}

	id, err := s.calendar.InsertEvent(ctx, s.calendarID, ev)
	if err != nil {
		return "", err
	}
	master.ExternalID = id
	if err := s.store.SaveSeries(ctx, &master); err != nil {
		return "", fmt.Errorf("failed to record external id: %w", err)
	}
	return "inserted", nil
}

func (s *Syncer) remove(ctx context.Context, master series.Series) (string, error) {
	err := s.calendar.DeleteEvent(ctx, s.calendarID, master.ExternalID)
	if err != nil && !errors.Is(err, ErrEventGone) {
		return "", err
	}
	master.ExternalID = ""
	if err := s.store.SaveSeries(ctx, &master); err != nil {
		return "", fmt.Errorf("failed to clear external id: %w", err)
	}
	return "deleted", nil
}

// removedDates returns the dates rule schedules for master that no instance
// of the series occupies any more.
func (s *Syncer) removedDates(ctx context.Context, master series.Series, rule recurrence.Rule) ([]time.Time, error) {
	dates, err := s.generator.Generate(rule, master.Anchor)
	if err != nil {
		return nil, fmt.Errorf("failed to expand series %s: %w", master.ID, err)
	}
	members, err := s.store.ListInstances(ctx, master.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of %s: %w", master.ID, err)
	}
	present := make(map[time.Time]bool, len(members))
	for _, inst := range members {
		present[recurrence.DateOf(inst.Date)] = true
	}
	var removed []time.Time
	for _, d := range dates {
		if !present[d] {
			removed = append(removed, d)
		}
	}
	return removed, nil
}
