package checks

import (
	"context"
	"fmt"

	"planner/feature/planner/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DataReport lists stored rows that break the planner's invariants.
type DataReport struct {
	// OrphanInstances are instances pointing at a series that no longer exists.
	OrphanInstances []string `json:"orphan_instances"`
	// DuplicateDates are "series@date" pairs holding more than one instance.
	DuplicateDates []string `json:"duplicate_dates"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckData scans the instances table for orphans and duplicate series dates.
func CheckData(ctx context.Context, db *gorm.DB) (*DataReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	report := &DataReport{OrphanInstances: []string{}, DuplicateDates: []string{}, Status: "ok"}
	tx := db.WithContext(ctx)

	err := tx.Model(&models.InstanceRow{}).
		Joins("LEFT JOIN series ON series.id = instances.series_master_id").
		Where("instances.series_master_id IS NOT NULL AND series.id IS NULL").
		Order("instances.id").
		Pluck("instances.id", &report.OrphanInstances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orphan instances: %w", err)
	}

	var dupes []struct {
		SeriesMasterID string
		Day            string
	}
	err = tx.Model(&models.InstanceRow{}).
		Select("series_master_id, SUBSTR(CAST(date AS CHAR), 1, 10) AS day").
		Where("series_master_id IS NOT NULL").
		Group("series_master_id, date").
		Having("COUNT(*) > 1").
		Order("series_master_id, date").
		Scan(&dupes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate dates: %w", err)
	}
	for _, d := range dupes {
		report.DuplicateDates = append(report.DuplicateDates, d.SeriesMasterID+"@"+d.Day)
	}

	if len(report.OrphanInstances) > 0 || len(report.DuplicateDates) > 0 {
		report.Status = "error"
	}
	return report, nil
}

// FixData deletes the orphan instances in report. Duplicate dates need a
// decision about which instance wins and are left alone.
func FixData(ctx context.Context, db *gorm.DB, logger *zap.Logger, report *DataReport) (int64, error) {
	if len(report.OrphanInstances) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Where("id IN ?", report.OrphanInstances).Delete(&models.InstanceRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete orphan instances: %w", res.Error)
	}
	logger.Info("Deleted orphan instances", zap.Int64("count", res.RowsAffected))
	return res.RowsAffected, nil
}
