package series

import (
	"context"
	"errors"
	"testing"
	"time"

	"planner/core/recurrence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, recurrence.NewGenerator(52), zap.NewNop()), store
}

// createWeekly creates a weekly series of n Monday instances starting 2025-01-06.
func createWeekly(t *testing.T, svc *Service, n int) []Instance {
	t.Helper()
	rule := recurrence.Rule{Freq: recurrence.Weekly{}, Interval: 1, End: recurrence.Count(n)}
	created, err := svc.CreateSeries(context.Background(), CreateRequest{
		Rule:     &rule,
		Anchor:   recurrence.Date(2025, time.January, 6),
		OwnerID:  "u1",
		Template: Template{Title: "Standup", StartTime: "09:30", DurationMinutes: 15},
	})
	require.NoError(t, err)
	require.Len(t, created, n)
	return created
}

func createStandalone(t *testing.T, svc *Service) Instance {
	t.Helper()
	created, err := svc.CreateSeries(context.Background(), CreateRequest{
		Anchor:   recurrence.Date(2025, time.February, 3),
		OwnerID:  "u1",
		Template: Template{Title: "Dentist"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

func TestService_CreateSeries(t *testing.T) {
	svc, store := newTestService()
	created := createWeekly(t, svc, 4)

	seriesID := *created[0].SeriesMasterID
	master, err := store.GetSeries(context.Background(), seriesID)
	require.NoError(t, err)
	assert.Equal(t, recurrence.Date(2025, time.January, 6), master.Anchor)
	assert.False(t, master.Dissolved())

	for i, inst := range created {
		assert.Equal(t, recurrence.Date(2025, time.January, 6).AddDate(0, 0, 7*i), inst.Date)
		assert.Equal(t, "Standup", inst.Title)
		assert.Equal(t, "u1", inst.OwnerID)
		assert.False(t, inst.IsException)
	}

	standalone := createStandalone(t, svc)
	assert.Nil(t, standalone.SeriesMasterID)
	assert.False(t, standalone.IsRecurring())
}

// TestService_UpdateFollowingFields edits the title from the fifth of ten instances on.
func TestService_UpdateFollowingFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 10)

	updated, err := svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[4].ID,
		Fields: Fields{Title: ptr("X")},
		Scope:  ScopeFollowing,
	})
	require.NoError(t, err)
	assert.Len(t, updated, 6)

	all, err := svc.ListInstances(ctx, *created[0].SeriesMasterID)
	require.NoError(t, err)
	require.Len(t, all, 10)
	for i, inst := range all {
		if i < 4 {
			assert.Equal(t, "Standup", inst.Title, "instance %d", i+1)
		} else {
			assert.Equal(t, "X", inst.Title, "instance %d", i+1)
		}
	}
}

func TestService_UpdateThisMarksException(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 3)

	updated, err := svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[1].ID,
		Fields: Fields{Completed: ptr(true)},
		Scope:  ScopeThis,
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.True(t, updated[0].Completed)
	assert.True(t, updated[0].IsException)

	all, err := svc.ListInstances(ctx, *created[0].SeriesMasterID)
	require.NoError(t, err)
	assert.False(t, all[0].IsException)
	assert.False(t, all[2].Completed)
}

func TestService_UpdateAllSavesTemplate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 3)

	_, err := svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[2].ID,
		Fields: Fields{DurationMinutes: ptr(30)},
		Scope:  ScopeAll,
	})
	require.NoError(t, err)

	master, err := store.GetSeries(ctx, *created[0].SeriesMasterID)
	require.NoError(t, err)
	assert.Equal(t, 30, master.Template.DurationMinutes)

	all, err := svc.ListInstances(ctx, master.ID)
	require.NoError(t, err)
	for _, inst := range all {
		assert.Equal(t, 30, inst.DurationMinutes)
	}
}

func TestService_MoveDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 3)

	_, err := svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[0].ID,
		Fields: Fields{Date: ptr(created[1].Date)},
		Scope:  ScopeThis,
	})
	assert.ErrorIs(t, err, ErrDateConflict)

	_, err = svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[0].ID,
		Fields: Fields{Date: ptr(recurrence.Date(2025, time.January, 7))},
		Scope:  ScopeFollowing,
	})
	assert.ErrorIs(t, err, ErrScopeNotAllowed)

	moved, err := svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[0].ID,
		Fields: Fields{Date: ptr(recurrence.Date(2025, time.January, 7))},
		Scope:  ScopeThis,
	})
	require.NoError(t, err)
	assert.Equal(t, recurrence.Date(2025, time.January, 7), moved[0].Date)
	assert.True(t, moved[0].IsException)
}

// TestService_DeleteAll removes every instance of a six instance series.
func TestService_DeleteAll(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 6)
	seriesID := *created[0].SeriesMasterID

	removed, err := svc.DeleteInstance(ctx, DeleteRequest{ID: created[2].ID, Scope: ScopeAll})
	require.NoError(t, err)
	assert.Len(t, removed, 6)

	all, err := svc.ListInstances(ctx, seriesID)
	require.NoError(t, err)
	assert.Empty(t, all)

	// The master stays, orphaned and ended at its anchor.
	master, err := store.GetSeries(ctx, seriesID)
	require.NoError(t, err)
	require.True(t, master.Dissolved())
	assert.True(t, master.DissolvedAt.Equal(master.Anchor))
}

func TestService_DeleteFollowingDissolves(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 6)
	seriesID := *created[0].SeriesMasterID

	_, err := svc.UpdateInstance(ctx, UpdateRequest{ID: created[4].ID, Fields: Fields{Title: ptr("moved")}, Scope: ScopeThis})
	require.NoError(t, err)

	removed, err := svc.DeleteInstance(ctx, DeleteRequest{ID: created[3].ID, Scope: ScopeFollowing})
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	all, err := svc.ListInstances(ctx, seriesID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	master, err := store.GetSeries(ctx, seriesID)
	require.NoError(t, err)
	require.NotNil(t, master.DissolvedAt)
	assert.Equal(t, created[3].Date, *master.DissolvedAt)
}

func TestService_DeleteThis(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 3)

	removed, err := svc.DeleteInstance(ctx, DeleteRequest{ID: created[1].ID, Scope: ScopeThis})
	require.NoError(t, err)
	assert.Equal(t, []string{created[1].ID}, removed)

	all, err := svc.ListInstances(ctx, *created[0].SeriesMasterID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_RuleChangeFollowing(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 10)
	oldID := *created[0].SeriesMasterID

	// Instance 7 becomes an exception and must survive regeneration.
	_, err := svc.UpdateInstance(ctx, UpdateRequest{ID: created[6].ID, Fields: Fields{Title: ptr("Retro")}, Scope: ScopeThis})
	require.NoError(t, err)

	daily := recurrence.Rule{Freq: recurrence.Daily{}, Interval: 1, End: recurrence.Count(3)}
	fresh, err := svc.UpdateInstance(ctx, UpdateRequest{
		ID:     created[4].ID,
		Rule:   &daily,
		Fields: Fields{Title: ptr("Daily sync")},
		Scope:  ScopeFollowing,
	})
	require.NoError(t, err)
	require.Len(t, fresh, 3)

	newID := *fresh[0].SeriesMasterID
	assert.NotEqual(t, oldID, newID)
	for i, inst := range fresh {
		assert.Equal(t, created[4].Date.AddDate(0, 0, i), inst.Date)
		assert.Equal(t, "Daily sync", inst.Title)
		assert.Equal(t, "09:30", inst.StartTime)
	}

	old, err := store.GetSeries(ctx, oldID)
	require.NoError(t, err)
	require.NotNil(t, old.DissolvedAt)
	assert.Equal(t, created[4].Date, *old.DissolvedAt)

	kept, err := svc.ListInstances(ctx, oldID)
	require.NoError(t, err)
	require.Len(t, kept, 5)
	assert.Equal(t, "Retro", kept[4].Title)
	assert.True(t, kept[4].IsException)

	next, err := store.GetSeries(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, created[4].Date, next.Anchor)
	assert.Equal(t, daily, next.Rule)
}

func TestService_RuleChangeAllSplitsAtAnchor(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 4)
	oldID := *created[0].SeriesMasterID

	monthly := recurrence.Rule{Freq: recurrence.Monthly{}, Interval: 1, End: recurrence.Count(2)}
	fresh, err := svc.UpdateInstance(ctx, UpdateRequest{ID: created[2].ID, Rule: &monthly, Scope: ScopeAll})
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, recurrence.Date(2025, time.January, 6), fresh[0].Date)
	assert.Equal(t, recurrence.Date(2025, time.February, 6), fresh[1].Date)

	left, err := svc.ListInstances(ctx, oldID)
	require.NoError(t, err)
	assert.Empty(t, left)

	old, err := store.GetSeries(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, created[0].Date, *old.DissolvedAt)
}

func TestService_RuleChangeThis(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 3)
	daily := recurrence.Rule{Freq: recurrence.Daily{}, Interval: 1, End: recurrence.Count(2)}

	_, err := svc.UpdateInstance(ctx, UpdateRequest{ID: created[0].ID, Rule: &daily, Scope: ScopeThis})
	assert.ErrorIs(t, err, ErrScopeNotAllowed)

	// A standalone item becomes a series anchored on its date.
	standalone := createStandalone(t, svc)
	converted, err := svc.UpdateInstance(ctx, UpdateRequest{ID: standalone.ID, Rule: &daily, Scope: ScopeThis})
	require.NoError(t, err)
	require.Len(t, converted, 2)
	assert.Equal(t, standalone.Date, converted[0].Date)
	assert.Equal(t, "Dentist", converted[1].Title)
	assert.True(t, converted[0].IsRecurring())

	_, err = store.GetInstance(ctx, standalone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RequestErrors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	standalone := createStandalone(t, svc)

	_, err := svc.UpdateInstance(ctx, UpdateRequest{ID: standalone.ID, Fields: Fields{Title: ptr("x")}, Scope: ScopeFollowing})
	assert.ErrorIs(t, err, ErrNotRecurring)

	_, err = svc.DeleteInstance(ctx, DeleteRequest{ID: standalone.ID, Scope: ScopeAll})
	assert.ErrorIs(t, err, ErrNotRecurring)

	_, err = svc.DeleteInstance(ctx, DeleteRequest{ID: "missing", Scope: ScopeThis})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateInstance(ctx, UpdateRequest{ID: standalone.ID, Scope: ""})
	assert.ErrorIs(t, err, ErrInvalidScope)

	bad := recurrence.Rule{Freq: recurrence.Weekly{ByDay: []recurrence.Weekday{8}}, Interval: 1}
	_, err = svc.CreateSeries(ctx, CreateRequest{Rule: &bad, Anchor: recurrence.Date(2025, time.January, 1)})
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
	assert.True(t, IsClientError(err))
}

func TestService_TransactionFailureRollsBack(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 6)
	seriesID := *created[0].SeriesMasterID

	store.failDelete = errors.New("disk full")
	_, err := svc.DeleteInstance(ctx, DeleteRequest{ID: created[2].ID, Scope: ScopeFollowing})
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.False(t, IsClientError(err))

	all, err := svc.ListInstances(ctx, seriesID)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	master, err := store.GetSeries(ctx, seriesID)
	require.NoError(t, err)
	assert.False(t, master.Dissolved())

	store.failDelete = nil
	store.failUpsert = errors.New("disk full")
	_, err = svc.UpdateInstance(ctx, UpdateRequest{ID: created[0].ID, Fields: Fields{Title: ptr("X")}, Scope: ScopeAll})
	assert.ErrorIs(t, err, ErrTransactionFailed)

	all, err = svc.ListInstances(ctx, seriesID)
	require.NoError(t, err)
	for _, inst := range all {
		assert.Equal(t, "Standup", inst.Title)
	}
}

func TestService_PlanIsSideEffectFree(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created := createWeekly(t, svc, 5)

	plan, err := svc.PlanDelete(ctx, DeleteRequest{ID: created[1].ID, Scope: ScopeFollowing})
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Summary.Deletes)
	assert.Equal(t, 1, plan.Summary.SeriesSaves)
	require.NotNil(t, plan.Summary.SplitDate)

	all, err := svc.ListInstances(ctx, *created[0].SeriesMasterID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestService_Preview(t *testing.T) {
	svc, _ := newTestService()
	got, err := svc.Preview(recurrence.Rule{Freq: recurrence.Daily{}, Interval: 7, End: recurrence.Count(2)}, recurrence.Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{recurrence.Date(2025, time.January, 1), recurrence.Date(2025, time.January, 8)}, got)
}
