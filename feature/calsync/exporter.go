package calsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"planner/core/recurrence"
	"planner/core/recurrence/codec"
	"planner/core/series"
	"planner/core/storage"

	ical "github.com/arran4/golang-ical"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ExportPrefix is the object prefix exported calendars are stored under.
const ExportPrefix = "exports/"

var (
	// ErrExportNotFound is returned when an owner has no stored export.
	ErrExportNotFound = errors.New("calsync: export not found")
	// ErrNoStorage is returned by storage operations of an exporter built without a client.
	ErrNoStorage = errors.New("calsync: object storage is not configured")
)

const (
	icsDateLayout     = "20060102"
	icsDateTimeLayout = "20060102T150405"
	productID         = "-//planner//calendar export//EN"

	completedProperty    = ical.ComponentProperty("X-PLANNER-COMPLETED")
	recurrenceIDProperty = ical.ComponentProperty("RECURRENCE-ID")
)

// Exporter renders an owner's items as an iCalendar file.
type Exporter struct {
	store     series.Store
	codec     *codec.Codec
	generator *recurrence.Generator
	client    storage.Client
	bucket    string
	logger    *zap.Logger
}

// NewExporter creates an exporter. client may be nil when only Render is used.
func NewExporter(store series.Store, c *codec.Codec, generator *recurrence.Generator, client storage.Client, bucket string, logger *zap.Logger) *Exporter {
	return &Exporter{store: store, codec: c, generator: generator, client: client, bucket: bucket, logger: logger}
}

// ObjectName is the storage key of an owner's export.
func ObjectName(ownerID string) string {
	return ExportPrefix + ownerID + ".ics"
}

// Render builds the calendar of every instance owned by ownerID. A series the
// wire format can express becomes one recurring VEVENT with EXDATEs for
// removed dates and RECURRENCE-ID overrides for edited ones. Everything else
// is written as single events.
func (e *Exporter) Render(ctx context.Context, ownerID string) ([]byte, error) {
	instances, err := e.store.ListOwnerInstances(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	bySeries := make(map[string][]series.Instance)
	var order []string
	stamp := time.Now().UTC()
	for _, inst := range instances {
		if !inst.IsRecurring() {
			e.addSingle(cal, inst, stamp)
			continue
		}
		id := *inst.SeriesMasterID
		if _, seen := bySeries[id]; !seen {
			order = append(order, id)
		}
		bySeries[id] = append(bySeries[id], inst)
	}

	for _, id := range order {
		members := bySeries[id]
		master, err := e.store.GetSeries(ctx, id)
		if err != nil {
			e.logger.Warn("Exporting orphaned instances as single events", zap.String("series", id), zap.Error(err))
			for _, inst := range members {
				e.addSingle(cal, inst, stamp)
			}
			continue
		}
		if err := e.addSeries(cal, *master, members, stamp); err != nil {
			return nil, err
		}
	}

	return []byte(cal.Serialize()), nil
}

func (e *Exporter) addSeries(cal *ical.Calendar, master series.Series, members []series.Instance, stamp time.Time) error {
	rule := master.Rule
	if master.Dissolved() {
		rule.End = recurrence.Until(master.DissolvedAt.AddDate(0, 0, -1))
	}
	line, ok := e.codec.Encode(&rule)
	if !ok || (master.Dissolved() && master.DissolvedAt.Before(master.Anchor.AddDate(0, 0, 1))) {
		for _, inst := range members {
			e.addSingle(cal, inst, stamp)
		}
		return nil
	}

	dates, err := e.generator.Generate(rule, master.Anchor)
	if err != nil {
		return fmt.Errorf("failed to expand series %s: %w", master.ID, err)
	}
	scheduled := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		scheduled[d] = true
	}

	uid := master.ID + "@planner"
	base := cal.AddEvent(uid)
	base.SetDtStampTime(stamp)
	e.setBody(base, master.Anchor, master.Template)
	base.AddRrule(strings.TrimPrefix(line, "RRULE:"))

	present := make(map[time.Time]bool, len(members))
	for _, inst := range members {
		if !scheduled[inst.Date] {
			// Moved away from its slot; the original date shows up as an EXDATE.
			e.addSingle(cal, inst, stamp)
			continue
		}
		present[inst.Date] = true
		if inst.IsException || inst.Completed || series.TemplateOf(inst) != master.Template {
			override := cal.AddEvent(uid)
			override.SetDtStampTime(stamp)
			e.setBody(override, inst.Date, series.TemplateOf(inst))
			override.SetProperty(recurrenceIDProperty, e.icsValue(inst.Date, master.Template), e.valueParams(master.Template)...)
			if inst.Completed {
				override.SetProperty(completedProperty, "TRUE")
			}
		}
	}
	for _, d := range dates {
		if !present[d] {
			base.AddExdate(e.icsValue(d, master.Template), e.valueParams(master.Template)...)
		}
	}
	return nil
}

func (e *Exporter) addSingle(cal *ical.Calendar, inst series.Instance, stamp time.Time) {
	ev := cal.AddEvent(inst.ID + "@planner")
	ev.SetDtStampTime(stamp)
	e.setBody(ev, inst.Date, series.TemplateOf(inst))
	if inst.Completed {
		ev.SetProperty(completedProperty, "TRUE")
	}
}

func (e *Exporter) setBody(ev *ical.VEvent, date time.Time, tpl series.Template) {
	ev.SetSummary(tpl.Title)
	if tpl.Description != "" {
		ev.SetDescription(tpl.Description)
	}
	start, ok := e.startAt(date, tpl)
	if !ok {
		ev.SetAllDayStartAt(date)
		ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
		return
	}
	duration := time.Duration(tpl.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(duration))
}

func (e *Exporter) startAt(date time.Time, tpl series.Template) (time.Time, bool) {
	if tpl.StartTime == "" {
		return time.Time{}, false
	}
	clock, err := time.Parse(startTimeLayout, tpl.StartTime)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, e.codec.Location()), true
}

// icsValue renders an occurrence reference matching the series' DTSTART form.
func (e *Exporter) icsValue(date time.Time, tpl series.Template) string {
	if start, ok := e.startAt(date, tpl); ok {
		return start.UTC().Format(icsDateTimeLayout) + "Z"
	}
	return date.Format(icsDateLayout)
}

func (e *Exporter) valueParams(tpl series.Template) []ical.PropertyParameter {
	if _, ok := e.startAt(time.Time{}, tpl); ok {
		return nil
	}
	return []ical.PropertyParameter{&ical.KeyValues{Key: "VALUE", Value: []string{"DATE"}}}
}

// Export renders ownerID's calendar and uploads it. It returns the object name.
func (e *Exporter) Export(ctx context.Context, ownerID string) (string, error) {
	if e.client == nil {
		return "", ErrNoStorage
	}
	data, err := e.Render(ctx, ownerID)
	if err != nil {
		return "", err
	}
	name := ObjectName(ownerID)
	_, err = e.client.PutObject(ctx, e.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/calendar; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	e.logger.Info("Exported calendar", zap.String("object", name), zap.Int("bytes", len(data)))
	return name, nil
}

// Open returns a stored export, or ErrExportNotFound.
func (e *Exporter) Open(ctx context.Context, ownerID string) ([]byte, error) {
	if e.client == nil {
		return nil, ErrNoStorage
	}
	name := ObjectName(ownerID)
	rc, err := e.client.GetObject(ctx, e.bucket, name, minio.GetObjectOptions{})
	if err == nil {
		defer rc.Close()
		var data []byte
		if data, err = io.ReadAll(rc); err == nil {
			return data, nil
		}
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}
	return nil, fmt.Errorf("failed to open %s: %w", name, err)
}

// Delete removes a stored export.
func (e *Exporter) Delete(ctx context.Context, ownerID string) error {
	if e.client == nil {
		return ErrNoStorage
	}
	if err := e.client.RemoveObject(ctx, e.bucket, ObjectName(ownerID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete export of %s: %w", ownerID, err)
	}
	return nil
}

// List returns the owner ids that have a stored export.
func (e *Exporter) List(ctx context.Context) ([]string, error) {
	if e.client == nil {
		return nil, ErrNoStorage
	}
	var owners []string
	for obj := range e.client.ListObjects(ctx, e.bucket, minio.ListObjectsOptions{Prefix: ExportPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list exports: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, ExportPrefix)
		if owner, ok := strings.CutSuffix(name, ".ics"); ok {
			owners = append(owners, owner)
		}
	}
	return owners, nil
}
