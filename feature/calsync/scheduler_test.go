package calsync_test

import (
	"context"
	"testing"
	"time"

	"planner/core/recurrence"
	"planner/core/recurrence/codec"
	"planner/feature/calsync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler(t *testing.T) {
	svc := newService(t)
	syncer := calsync.NewSyncer(svc.Store(), &fakeCalendar{}, codec.New(time.UTC), recurrence.NewGenerator(52), "primary", zap.NewNop())

	t.Run("InvalidSchedule", func(t *testing.T) {
		_, err := calsync.NewScheduler(syncer, "every now and then", time.UTC, 0, zap.NewNop())
		assert.ErrorContains(t, err, "invalid sync schedule")
	})

	t.Run("StartStop", func(t *testing.T) {
		s, err := calsync.NewScheduler(syncer, "@every 1h", time.UTC, time.Second, zap.NewNop())
		require.NoError(t, err)
		assert.True(t, s.Next().IsZero())

		s.Start()
		assert.WithinDuration(t, time.Now().Add(time.Hour), s.Next(), time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
	})

	t.Run("StandardExpression", func(t *testing.T) {
		_, err := calsync.NewScheduler(syncer, "*/15 * * * *", time.UTC, 0, zap.NewNop())
		assert.NoError(t, err)
	})
}
