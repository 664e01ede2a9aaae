package calsync_test

import (
	"context"
	"sync"
	"testing"

	"planner/core/database"
	"planner/core/recurrence"
	"planner/core/series"
	"planner/feature/planner"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) *series.Service {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	feature := planner.NewFeature(db, recurrence.Config{MaxOccurrences: 52}, zap.NewNop())
	require.NoError(t, feature.Store().Migrate(context.Background()))
	return feature.Service()
}

type pushCall struct {
	op      string
	eventID string
	event   *calendar.Event
}

// fakeCalendar records pushes and returns canned errors.
type fakeCalendar struct {
	mu        sync.Mutex
	calls     []pushCall
	nextID    int
	updateErr error
	insertErr error
	deleteErr error
}

func (f *fakeCalendar) InsertEvent(_ context.Context, _ string, ev *calendar.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	id := "evt-" + string(rune('0'+f.nextID))
	f.calls = append(f.calls, pushCall{op: "insert", eventID: id, event: ev})
	return id, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, _ string, eventID string, ev *calendar.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pushCall{op: "update", eventID: eventID, event: ev})
	return f.updateErr
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _ string, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pushCall{op: "delete", eventID: eventID})
	return f.deleteErr
}

func (f *fakeCalendar) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func (f *fakeCalendar) last() pushCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}
