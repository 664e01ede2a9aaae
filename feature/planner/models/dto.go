package models

import (
	"planner/core/recurrence"
	"planner/core/series"
)

// CreateSeriesRequest is the body of POST /series. Without a rule it creates a standalone item.
type CreateSeriesRequest struct {
	Rule            *recurrence.Rule `json:"rule"`
	Anchor          string           `json:"anchor" validate:"required,datetime=2006-01-02"`
	OwnerID         string           `json:"ownerId" validate:"omitempty,max=64"`
	Title           string           `json:"title" validate:"required,max=255"`
	Description     string           `json:"description"`
	StartTime       string           `json:"startTime" validate:"omitempty,datetime=15:04"`
	DurationMinutes int              `json:"durationMinutes" validate:"gte=0,lte=1440"`
}

// UpdateInstanceRequest is the body of PATCH /instances/{id}.
type UpdateInstanceRequest struct {
	Title           *string          `json:"title" validate:"omitempty,max=255"`
	Description     *string          `json:"description"`
	StartTime       *string          `json:"startTime" validate:"omitempty,datetime=15:04"`
	DurationMinutes *int             `json:"durationMinutes" validate:"omitempty,gte=0,lte=1440"`
	Completed       *bool            `json:"completed"`
	Date            *string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Rule            *recurrence.Rule `json:"rule"`
}

// PreviewRequest is the body of POST /preview.
type PreviewRequest struct {
	Rule   recurrence.Rule `json:"rule"`
	Anchor string          `json:"anchor" validate:"required,datetime=2006-01-02"`
}

// PreviewResponse lists generated dates as YYYY-MM-DD.
type PreviewResponse struct {
	Dates []string `json:"dates"`
}

// InstancesResponse wraps a list of instances.
type InstancesResponse struct {
	Instances []series.Instance `json:"instances"`
	Count     int               `json:"count"`
}

// DeleteResponse lists removed instance ids.
type DeleteResponse struct {
	DeletedIDs []string `json:"deletedIds"`
	Count      int      `json:"count"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
