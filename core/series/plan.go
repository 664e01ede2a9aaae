package series

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ActionType names one storage step of a plan.
type ActionType string

const (
	ActionUpsertInstance ActionType = "upsert_instance"
	ActionDeleteInstance ActionType = "delete_instance"
	ActionSaveSeries     ActionType = "save_series"
)

// Action is a single planned storage step.
type Action struct {
	Type     ActionType `json:"type"`
	Key      string     `json:"key"`
	Reason   string     `json:"reason"`
	Instance *Instance  `json:"instance,omitempty"`
	Series   *Series    `json:"series,omitempty"`
}

// PlanSummary counts what a plan will do.
type PlanSummary struct {
	Upserts int `json:"upserts"`
	Deletes int `json:"deletes"`
	// SeriesSaves counts created or dissolved series masters.
	SeriesSaves int `json:"series_saves"`
	// Preserved counts exceptions kept across a regeneration.
	Preserved int `json:"preserved"`
	// Generated counts new dates produced by the generator.
	Generated int `json:"generated"`
	// SplitDate is set when a series is dissolved.
	SplitDate *time.Time `json:"split_date,omitempty"`
}

// Plan is the full effect of one mutation. Building a plan has no side
// effects; Service applies it in a single transaction.
type Plan struct {
	Op      string      `json:"op"`
	Scope   Scope       `json:"scope"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

func (p *Plan) upsert(inst Instance, reason string) {
	p.Actions = append(p.Actions, Action{Type: ActionUpsertInstance, Key: inst.ID, Reason: reason, Instance: &inst})
	p.Summary.Upserts++
}

func (p *Plan) remove(inst Instance, reason string) {
	p.Actions = append(p.Actions, Action{Type: ActionDeleteInstance, Key: inst.ID, Reason: reason, Instance: &inst})
	p.Summary.Deletes++
}

func (p *Plan) saveSeries(s Series, reason string) {
	p.Actions = append(p.Actions, Action{Type: ActionSaveSeries, Key: s.ID, Reason: reason, Series: &s})
	p.Summary.SeriesSaves++
}

// Upserted returns the post-mutation instances written by the plan, ordered by date.
func (p *Plan) Upserted() []Instance {
	var out []Instance
	for _, a := range p.Actions {
		if a.Type == ActionUpsertInstance && a.Instance != nil {
			out = append(out, *a.Instance)
		}
	}
	sortInstances(out)
	return out
}

// Deleted returns the ids removed by the plan.
func (p *Plan) Deleted() []string {
	var ids []string
	for _, a := range p.Actions {
		if a.Type == ActionDeleteInstance {
			ids = append(ids, a.Key)
		}
	}
	return ids
}

// Affected is the number of instance rows the plan writes or removes.
func (p *Plan) Affected() int {
	return p.Summary.Upserts + p.Summary.Deletes
}

// ApplyPlan executes the plan's actions against store, grouped by type:
// deletes first, then series saves, then instance upserts. Callers that need
// atomicity pass a transactional store.
func ApplyPlan(ctx context.Context, store Store, plan *Plan) (executed int, err error) {
	var (
		deleteIDs []string
		saves     []*Series
		upserts   []Instance
	)
	for _, action := range plan.Actions {
		switch action.Type {
		case ActionDeleteInstance:
			deleteIDs = append(deleteIDs, action.Key)
		case ActionSaveSeries:
			saves = append(saves, action.Series)
		case ActionUpsertInstance:
			upserts = append(upserts, *action.Instance)
		}
	}

	if len(deleteIDs) > 0 {
		if err := store.DeleteInstances(ctx, deleteIDs); err != nil {
			return executed, fmt.Errorf("failed to delete %d instances: %w", len(deleteIDs), err)
		}
		executed += len(deleteIDs)
	}

	for _, s := range saves {
		if err := store.SaveSeries(ctx, s); err != nil {
			return executed, fmt.Errorf("failed to save series %s: %w", s.ID, err)
		}
		executed++
	}

	if len(upserts) > 0 {
		if err := store.UpsertInstances(ctx, upserts); err != nil {
			return executed, fmt.Errorf("failed to upsert %d instances: %w", len(upserts), err)
		}
		executed += len(upserts)
	}

	return executed, nil
}

func sortInstances(list []Instance) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
}
