package calsync_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"planner/core/recurrence"
	"planner/core/recurrence/codec"
	"planner/core/series"
	"planner/core/storage"
	"planner/core/storage/mocks"
	"planner/feature/calsync"

	ical "github.com/arran4/golang-ical"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seedOwner creates a weekly all-day series with one deleted, one edited and
// one completed instance, plus a timed standalone item.
func seedOwner(t *testing.T, svc *series.Service, owner string) string {
	t.Helper()
	ctx := context.Background()
	rule := weekly(recurrence.Monday)
	created, err := svc.CreateSeries(ctx, series.CreateRequest{
		Rule:     &rule,
		Anchor:   recurrence.Date(2025, time.January, 6),
		OwnerID:  owner,
		Template: series.Template{Title: "Plan"},
	})
	require.NoError(t, err)
	require.Len(t, created, 4)

	_, err = svc.DeleteInstance(ctx, series.DeleteRequest{ID: created[1].ID, Scope: series.ScopeThis})
	require.NoError(t, err)
	_, err = svc.UpdateInstance(ctx, series.UpdateRequest{
		ID: created[2].ID, Scope: series.ScopeThis, Fields: series.Fields{Title: ptr("Plan B")},
	})
	require.NoError(t, err)
	_, err = svc.UpdateInstance(ctx, series.UpdateRequest{
		ID: created[3].ID, Scope: series.ScopeThis, Fields: series.Fields{Completed: ptr(true)},
	})
	require.NoError(t, err)

	_, err = svc.CreateSeries(ctx, series.CreateRequest{
		Anchor:   recurrence.Date(2025, time.February, 1),
		OwnerID:  owner,
		Template: series.Template{Title: "Dentist", StartTime: "10:00", DurationMinutes: 45},
	})
	require.NoError(t, err)
	return *created[0].SeriesMasterID
}

func newExporter(svc *series.Service, client storage.Client) *calsync.Exporter {
	return calsync.NewExporter(svc.Store(), codec.New(time.UTC), recurrence.NewGenerator(52), client, "planner", zap.NewNop())
}

func TestExporter_Render(t *testing.T) {
	svc := newService(t)
	seriesID := seedOwner(t, svc, "u1")

	data, err := newExporter(svc, nil).Render(context.Background(), "u1")
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 4)

	var base *ical.VEvent
	var overrides []*ical.VEvent
	var singles []*ical.VEvent
	for _, ev := range events {
		switch {
		case ev.GetProperty(ical.ComponentPropertyUniqueId).Value != seriesID+"@planner":
			singles = append(singles, ev)
		case ev.GetProperty(ical.ComponentPropertyRrule) != nil:
			base = ev
		default:
			overrides = append(overrides, ev)
		}
	}
	require.NotNil(t, base)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;COUNT=4", base.GetProperty(ical.ComponentPropertyRrule).Value)
	assert.Equal(t, "20250106", base.GetProperty(ical.ComponentPropertyDtStart).Value)
	exdates := base.GetProperties(ical.ComponentPropertyExdate)
	require.Len(t, exdates, 1)
	assert.Equal(t, "20250113", exdates[0].Value)

	require.Len(t, overrides, 2)
	byRecurrence := map[string]*ical.VEvent{}
	for _, o := range overrides {
		byRecurrence[o.GetProperty("RECURRENCE-ID").Value] = o
	}
	require.Contains(t, byRecurrence, "20250120")
	assert.Equal(t, "Plan B", byRecurrence["20250120"].GetProperty(ical.ComponentPropertySummary).Value)
	require.Contains(t, byRecurrence, "20250127")
	assert.Equal(t, "TRUE", byRecurrence["20250127"].GetProperty("X-PLANNER-COMPLETED").Value)

	require.Len(t, singles, 1)
	assert.Equal(t, "Dentist", singles[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20250201T100000Z", singles[0].GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20250201T104500Z", singles[0].GetProperty(ical.ComponentPropertyDtEnd).Value)
}

func TestExporter_RenderFlattensYearlySeries(t *testing.T) {
	svc := newService(t)
	rule := recurrence.Rule{Freq: recurrence.Yearly{}, Interval: 1, End: recurrence.Count(2)}
	_, err := svc.CreateSeries(context.Background(), series.CreateRequest{
		Rule:     &rule,
		Anchor:   recurrence.Date(2025, time.March, 14),
		OwnerID:  "u1",
		Template: series.Template{Title: "Birthday"},
	})
	require.NoError(t, err)

	data, err := newExporter(svc, nil).Render(context.Background(), "u1")
	require.NoError(t, err)
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, cal.Events(), 2)
	for _, ev := range cal.Events() {
		assert.Nil(t, ev.GetProperty(ical.ComponentPropertyRrule))
	}
}

func TestExporter_Storage(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	seedOwner(t, svc, "u1")

	t.Run("Export", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, "planner", "exports/u1.ics", mock.Anything, mock.AnythingOfType("int64"),
			mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
				return opts.ContentType == "text/calendar; charset=utf-8"
			})).Return(minio.UploadInfo{}, nil)

		name, err := newExporter(svc, client).Export(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "exports/u1.ics", name)
		client.AssertExpectations(t)
	})

	t.Run("ExportUploadFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, "planner", "exports/u1.ics", mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("bucket gone"))

		_, err := newExporter(svc, client).Export(ctx, "u1")
		assert.ErrorContains(t, err, "bucket gone")
	})

	t.Run("OpenMissing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "planner", "exports/u2.ics", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

		_, err := newExporter(svc, client).Open(ctx, "u2")
		assert.ErrorIs(t, err, calsync.ErrExportNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ch := make(chan minio.ObjectInfo, 3)
		ch <- minio.ObjectInfo{Key: "exports/u1.ics"}
		ch <- minio.ObjectInfo{Key: "exports/readme.txt"}
		ch <- minio.ObjectInfo{Key: "exports/u2.ics"}
		close(ch)
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "planner", minio.ListObjectsOptions{Prefix: "exports/", Recursive: true}).
			Return((<-chan minio.ObjectInfo)(ch))

		owners, err := newExporter(svc, client).List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, owners)
	})

	t.Run("NoStorage", func(t *testing.T) {
		_, err := newExporter(svc, nil).Export(ctx, "u1")
		assert.ErrorIs(t, err, calsync.ErrNoStorage)
		assert.ErrorIs(t, newExporter(svc, nil).Delete(ctx, "u1"), calsync.ErrNoStorage)
	})
}
