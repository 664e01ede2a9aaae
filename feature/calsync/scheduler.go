package calsync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRunTimeout bounds one scheduled sync pass.
const DefaultRunTimeout = 5 * time.Minute

// Scheduler runs a Syncer on a cron schedule. A pass that is still running
// when the next one is due causes that next one to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	syncer  *Syncer
	timeout time.Duration
	logger  *zap.Logger
	entry   cron.EntryID
}

// NewScheduler parses schedule in loc. Standard five field expressions and
// descriptors such as "@every 15m" or "@hourly" are accepted.
func NewScheduler(syncer *Syncer, schedule string, loc *time.Location, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{logger: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		syncer:  syncer,
		timeout: timeout,
		logger:  logger,
	}

	id, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Calendar sync scheduled", zap.Time("next", s.Next()))
}

// Next returns when the next pass is due. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop stops the schedule and waits for a running pass, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.syncer.Sync(ctx); err != nil {
		s.logger.Error("Scheduled calendar sync failed", zap.Error(err))
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
