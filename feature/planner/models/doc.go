// Package models holds the planner's gorm row models and HTTP payloads.
//
// SeriesRow and InstanceRow map the 'series' and 'instances' tables. The
// recurrence rule is stored as JSON text through recurrence.Rule's
// Valuer/Scanner, so the structured rule survives storage without the
// wire codec. Dates are stored as calendar dates.
package models
