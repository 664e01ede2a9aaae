package planner

import (
	"context"
	"errors"
	"fmt"

	"planner/core/series"
	"planner/feature/planner/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements series.Store on a gorm database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the planner tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate planner tables: %w", err)
	}
	return nil
}

func (s *GormStore) GetInstance(ctx context.Context, id string) (*series.Instance, error) {
	var row models.InstanceRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: instance %s", series.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load instance %s: %w", id, err)
	}
	inst := row.ToDomain()
	return &inst, nil
}

func (s *GormStore) ListInstances(ctx context.Context, seriesID string) ([]series.Instance, error) {
	var rows []models.InstanceRow
	err := s.db.WithContext(ctx).
		Where("series_master_id = ?", seriesID).
		Order("date, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of series %s: %w", seriesID, err)
	}
	return toInstances(rows), nil
}

func (s *GormStore) ListOwnerInstances(ctx context.Context, ownerID string) ([]series.Instance, error) {
	var rows []models.InstanceRow
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of owner %s: %w", ownerID, err)
	}
	return toInstances(rows), nil
}

func (s *GormStore) UpsertInstances(ctx context.Context, instances []series.Instance) error {
	if len(instances) == 0 {
		return nil
	}
	rows := make([]models.InstanceRow, len(instances))
	for i, inst := range instances {
		rows[i] = models.InstanceRowFrom(inst)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("failed to upsert instances: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteInstances(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.InstanceRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete instances: %w", err)
	}
	return nil
}

func (s *GormStore) GetSeries(ctx context.Context, id string) (*series.Series, error) {
	var row models.SeriesRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: series %s", series.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load series %s: %w", id, err)
	}
	master := row.ToDomain()
	return &master, nil
}

func (s *GormStore) ListSeries(ctx context.Context) ([]series.Series, error) {
	var rows []models.SeriesRow
	if err := s.db.WithContext(ctx).Order("anchor, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	out := make([]series.Series, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out, nil
}

func (s *GormStore) SaveSeries(ctx context.Context, master *series.Series) error {
	row := models.SeriesRowFrom(*master)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save series %s: %w", master.ID, err)
	}
	return nil
}

// Transaction runs fn inside a database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx series.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func toInstances(rows []models.InstanceRow) []series.Instance {
	out := make([]series.Instance, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out
}
