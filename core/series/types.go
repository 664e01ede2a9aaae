package series

import (
	"fmt"
	"time"

	"planner/core/recurrence"
)

// Scope is the blast radius of an update or delete.
type Scope string

const (
	// ScopeThis touches only the target instance.
	ScopeThis Scope = "this"
	// ScopeFollowing touches the target and every later instance of its series.
	ScopeFollowing Scope = "following"
	// ScopeAll touches every instance of the series.
	ScopeAll Scope = "all"
)

// ParseScope validates a scope string.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeThis, ScopeFollowing, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// Instance is one dated occurrence of a series, or a standalone item when
// SeriesMasterID is nil.
type Instance struct {
	ID              string    `json:"id"`
	SeriesMasterID  *string   `json:"seriesMasterId"`
	OwnerID         string    `json:"ownerId,omitempty"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"startTime,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	Completed       bool      `json:"completed"`
	IsException     bool      `json:"isException"`
}

// IsRecurring reports whether the instance belongs to a series.
func (i Instance) IsRecurring() bool {
	return i.SeriesMasterID != nil && *i.SeriesMasterID != ""
}

// Template holds the per-instance fields a series stamps onto the instances it generates.
type Template struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	StartTime       string `json:"startTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

// TemplateOf extracts the template fields of an instance.
func TemplateOf(i Instance) Template {
	return Template{
		Title:           i.Title,
		Description:     i.Description,
		StartTime:       i.StartTime,
		DurationMinutes: i.DurationMinutes,
	}
}

// Stamp builds an instance on date from the template.
func (t Template) Stamp(id, ownerID string, date time.Time) Instance {
	return Instance{
		ID:              id,
		OwnerID:         ownerID,
		Date:            recurrence.DateOf(date),
		StartTime:       t.StartTime,
		Title:           t.Title,
		Description:     t.Description,
		DurationMinutes: t.DurationMinutes,
	}
}

// Series is the master record of a recurring item. Its rule never changes;
// a new pattern dissolves the series at a split date and starts another one.
type Series struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId,omitempty"`
	Rule        recurrence.Rule `json:"rule"`
	Anchor      time.Time       `json:"anchor"`
	Template    Template        `json:"template"`
	DissolvedAt *time.Time      `json:"dissolvedAt,omitempty"`
	ExternalID  string          `json:"externalId,omitempty"`
}

// Dissolved reports whether the series stopped producing occurrences.
func (s Series) Dissolved() bool { return s.DissolvedAt != nil }

// Fields is a partial update. Nil fields are left unchanged.
type Fields struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	StartTime       *string    `json:"startTime,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Completed       *bool      `json:"completed,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
}

// IsEmpty reports whether the patch sets nothing.
func (f Fields) IsEmpty() bool {
	return f.Title == nil && f.Description == nil && f.StartTime == nil &&
		f.DurationMinutes == nil && f.Completed == nil && f.Date == nil
}

// ApplyTo patches inst in place and reports whether anything changed.
func (f Fields) ApplyTo(inst *Instance) bool {
	changed := false
	if f.Title != nil && *f.Title != inst.Title {
		inst.Title, changed = *f.Title, true
	}
	if f.Description != nil && *f.Description != inst.Description {
		inst.Description, changed = *f.Description, true
	}
	if f.StartTime != nil && *f.StartTime != inst.StartTime {
		inst.StartTime, changed = *f.StartTime, true
	}
	if f.DurationMinutes != nil && *f.DurationMinutes != inst.DurationMinutes {
		inst.DurationMinutes, changed = *f.DurationMinutes, true
	}
	if f.Completed != nil && *f.Completed != inst.Completed {
		inst.Completed, changed = *f.Completed, true
	}
	if f.Date != nil {
		if d := recurrence.DateOf(*f.Date); !d.Equal(inst.Date) {
			inst.Date, changed = d, true
		}
	}
	return changed
}

// ApplyToTemplate patches the template fields of t.
func (f Fields) ApplyToTemplate(t Template) Template {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.StartTime != nil {
		t.StartTime = *f.StartTime
	}
	if f.DurationMinutes != nil {
		t.DurationMinutes = *f.DurationMinutes
	}
	return t
}

// CreateRequest creates a series, or a standalone item when Rule is nil.
type CreateRequest struct {
	Rule     *recurrence.Rule
	Anchor   time.Time
	OwnerID  string
	Template Template
}

// UpdateRequest patches an instance. A non-nil Rule changes the recurrence pattern.
type UpdateRequest struct {
	ID     string
	Fields Fields
	Rule   *recurrence.Rule
	Scope  Scope
}

// DeleteRequest removes an instance and, depending on scope, its siblings.
type DeleteRequest struct {
	ID    string
	Scope Scope
}
