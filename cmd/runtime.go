package cmd

import (
	"context"
	"fmt"

	"planner/core/config"
	"planner/core/database"
	"planner/core/logger"
	"planner/core/recurrence/codec"
	"planner/core/series"
	"planner/feature/calsync"
	"planner/feature/planner"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime bundles what every local command needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &runtime{cfg: cfg, logger: l}, nil
}

// openPlanner connects to the database, migrates the planner tables and
// returns the planner feature.
func (r *runtime) openPlanner(ctx context.Context) (*planner.Feature, *gorm.DB, error) {
	db, err := database.Connect(r.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	feature := planner.NewFeature(db, r.cfg.Recurrence, r.logger)
	if err := feature.Store().Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate planner tables: %w", err)
	}
	return feature, db, nil
}

// ruleCodec returns the RRULE codec for the configured sync timezone.
func (r *runtime) ruleCodec() (*codec.Codec, error) {
	loc, err := r.cfg.Sync.Location()
	if err != nil {
		return nil, err
	}
	return codec.New(loc), nil
}

// googleCalendar builds the authorized Google Calendar client from the
// cached OAuth token.
func (r *runtime) googleCalendar(ctx context.Context) (*calsync.GoogleCalendar, error) {
	oauthCfg, err := calsync.OAuthConfig(r.cfg.Sync.CredentialsPath)
	if err != nil {
		return nil, err
	}
	httpClient, err := calsync.HTTPClient(ctx, oauthCfg, calsync.TokenFile{Path: r.cfg.Sync.TokenPath})
	if err != nil {
		return nil, err
	}
	return calsync.NewGoogleCalendar(ctx, httpClient, r.cfg.Sync.Endpoint, calsync.GoogleSettings{
		MaxFailures:       uint32(r.cfg.Sync.BreakerMaxFailures),
		Timeout:           r.cfg.Sync.BreakerTimeout(),
		RequestsPerSecond: r.cfg.Sync.RequestsPerSecond,
		Burst:             r.cfg.Sync.Burst,
	}, r.logger)
}

// calendarOptions assembles calsync options around service.
func (r *runtime) calendarOptions(service *series.Service) (calsync.Options, error) {
	loc, err := r.cfg.Sync.Location()
	if err != nil {
		return calsync.Options{}, err
	}
	return calsync.Options{
		Service:        service,
		Bucket:         r.cfg.Storage.Bucket,
		CalendarID:     r.cfg.Sync.CalendarID,
		Location:       loc,
		MaxOccurrences: r.cfg.Recurrence.MaxOccurrences,
	}, nil
}
