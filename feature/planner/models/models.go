package models

import (
	"time"

	"planner/core/recurrence"
	"planner/core/series"
)

// SeriesRow represents the 'series' table.
type SeriesRow struct {
	ID              string          `gorm:"column:id;primaryKey;type:varchar(36)"`
	OwnerID         string          `gorm:"column:owner_id;type:varchar(64);index"`
	Rule            recurrence.Rule `gorm:"column:rule;type:text;not null"`
	Anchor          time.Time       `gorm:"column:anchor;type:date;not null"`
	Title           string          `gorm:"column:title;type:varchar(255)"`
	Description     string          `gorm:"column:description;type:text"`
	StartTime       string          `gorm:"column:start_time;type:varchar(5)"`
	DurationMinutes int             `gorm:"column:duration_minutes"`
	DissolvedAt     *time.Time      `gorm:"column:dissolved_at;type:date"`
	ExternalID      string          `gorm:"column:external_id;type:varchar(255)"`
}

// TableName overrides the table name.
func (SeriesRow) TableName() string {
	return "series"
}

// ToDomain converts the row to a series.
func (r SeriesRow) ToDomain() series.Series {
	s := series.Series{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Rule:    r.Rule,
		Anchor:  recurrence.DateOf(r.Anchor),
		Template: series.Template{
			Title:           r.Title,
			Description:     r.Description,
			StartTime:       r.StartTime,
			DurationMinutes: r.DurationMinutes,
		},
		ExternalID: r.ExternalID,
	}
	if r.DissolvedAt != nil {
		d := recurrence.DateOf(*r.DissolvedAt)
		s.DissolvedAt = &d
	}
	return s
}

// SeriesRowFrom converts a series to its row.
func SeriesRowFrom(s series.Series) SeriesRow {
	return SeriesRow{
		ID:              s.ID,
		OwnerID:         s.OwnerID,
		Rule:            s.Rule,
		Anchor:          recurrence.DateOf(s.Anchor),
		Title:           s.Template.Title,
		Description:     s.Template.Description,
		StartTime:       s.Template.StartTime,
		DurationMinutes: s.Template.DurationMinutes,
		DissolvedAt:     s.DissolvedAt,
		ExternalID:      s.ExternalID,
	}
}

// InstanceRow represents the 'instances' table.
type InstanceRow struct {
	ID              string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	SeriesMasterID  *string   `gorm:"column:series_master_id;type:varchar(36);index"`
	OwnerID         string    `gorm:"column:owner_id;type:varchar(64);index"`
	Date            time.Time `gorm:"column:date;type:date;not null;index"`
	StartTime       string    `gorm:"column:start_time;type:varchar(5)"`
	Title           string    `gorm:"column:title;type:varchar(255)"`
	Description     string    `gorm:"column:description;type:text"`
	DurationMinutes int       `gorm:"column:duration_minutes"`
	Completed       bool      `gorm:"column:completed"`
	IsException     bool      `gorm:"column:is_exception"`
}

// TableName overrides the table name.
func (InstanceRow) TableName() string {
	return "instances"
}

// ToDomain converts the row to an instance.
func (r InstanceRow) ToDomain() series.Instance {
	return series.Instance{
		ID:              r.ID,
		SeriesMasterID:  r.SeriesMasterID,
		OwnerID:         r.OwnerID,
		Date:            recurrence.DateOf(r.Date),
		StartTime:       r.StartTime,
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		Completed:       r.Completed,
		IsException:     r.IsException,
	}
}

// InstanceRowFrom converts an instance to its row.
func InstanceRowFrom(i series.Instance) InstanceRow {
	return InstanceRow{
		ID:              i.ID,
		SeriesMasterID:  i.SeriesMasterID,
		OwnerID:         i.OwnerID,
		Date:            recurrence.DateOf(i.Date),
		StartTime:       i.StartTime,
		Title:           i.Title,
		Description:     i.Description,
		DurationMinutes: i.DurationMinutes,
		Completed:       i.Completed,
		IsException:     i.IsException,
	}
}

// All returns every model the planner migrates, in dependency order.
func All() []any {
	return []any{&SeriesRow{}, &InstanceRow{}}
}
