package integrity

import (
	"context"

	"planner/core/storage"
	"planner/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new integrity service. Either client or db may be nil;
// the checks needing them then fail.
func NewService(client storage.Client, bucket string, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		db:     db,
		logger: logger,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}
	return checks.CheckStructure(ctx, s.client, s.bucket)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return ErrNoStorage
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckServer compares the database schema with the planner models.
func (s *Service) CheckServer() (*checks.ServerReport, error) {
	return checks.CheckServerIntegrity(s.db)
}

// CheckData looks for orphan instances and duplicate series dates.
func (s *Service) CheckData(ctx context.Context) (*checks.DataReport, error) {
	return checks.CheckData(ctx, s.db)
}

// FixData deletes the orphans found by CheckData.
func (s *Service) FixData(ctx context.Context, report *checks.DataReport) (int64, error) {
	return checks.FixData(ctx, s.db, s.logger, report)
}
