package series

import (
	"fmt"

	"planner/core/recurrence"

	"github.com/google/uuid"
)

// State is what the resolver needs to know about a mutation target.
type State struct {
	Target Instance
	// Series is nil for a standalone target.
	Series *Series
	// Siblings are the instances of the target's series, ordered by date.
	Siblings []Instance
}

// Resolver builds plans for create, update and delete requests.
type Resolver struct {
	generator *recurrence.Generator
	newID     func() string
}

// NewResolver returns a resolver that expands rules with generator.
func NewResolver(generator *recurrence.Generator) *Resolver {
	if generator == nil {
		generator = recurrence.NewGenerator(recurrence.DefaultMaxOccurrences)
	}
	return &Resolver{generator: generator, newID: uuid.NewString}
}

// PlanCreate plans a new series with its instances, or a single standalone
// item when the request has no rule.
func (r *Resolver) PlanCreate(req CreateRequest) (*Plan, error) {
	plan := &Plan{Op: "create", Scope: ScopeThis}
	anchor := recurrence.DateOf(req.Anchor)

	if req.Rule == nil {
		plan.upsert(req.Template.Stamp(r.newID(), req.OwnerID, anchor), "standalone item")
		return plan, nil
	}

	s := Series{
		ID:       r.newID(),
		OwnerID:  req.OwnerID,
		Rule:     *req.Rule,
		Anchor:   anchor,
		Template: req.Template,
	}
	if err := r.generate(plan, s, "new series"); err != nil {
		return nil, err
	}
	return plan, nil
}

// PlanUpdate plans a patch of state.Target at req.Scope.
func (r *Resolver) PlanUpdate(state State, req UpdateRequest) (*Plan, error) {
	if _, err := ParseScope(string(req.Scope)); err != nil {
		return nil, err
	}
	plan := &Plan{Op: "update", Scope: req.Scope}
	target := state.Target

	if !target.IsRecurring() || state.Series == nil {
		if req.Scope != ScopeThis {
			return nil, fmt.Errorf("%w: %s", ErrNotRecurring, target.ID)
		}
		if req.Rule != nil {
			return r.convertToSeries(plan, target, req)
		}
		if req.Fields.ApplyTo(&target) {
			plan.upsert(target, "field edit")
		}
		return plan, nil
	}

	if req.Rule != nil {
		return r.changeRule(plan, state, req)
	}

	switch req.Scope {
	case ScopeThis:
		if req.Fields.Date != nil {
			moved := recurrence.DateOf(*req.Fields.Date)
			for _, sib := range state.Siblings {
				if sib.ID != target.ID && sib.Date.Equal(moved) {
					return nil, fmt.Errorf("%w: %s", ErrDateConflict, recurrence.FormatDate(moved))
				}
			}
		}
		if req.Fields.ApplyTo(&target) {
			target.IsException = true
			plan.upsert(target, "exception")
		}
	case ScopeFollowing, ScopeAll:
		if req.Fields.Date != nil {
			return nil, fmt.Errorf("%w: date can only be moved at scope %s", ErrScopeNotAllowed, ScopeThis)
		}
		for _, sib := range r.affected(state, req.Scope) {
			if req.Fields.ApplyTo(&sib) {
				plan.upsert(sib, "uniform edit")
			}
		}
		if req.Scope == ScopeAll {
			s := *state.Series
			if tmpl := req.Fields.ApplyToTemplate(s.Template); tmpl != s.Template {
				s.Template = tmpl
				plan.saveSeries(s, "template edit")
			}
		}
	}
	return plan, nil
}

// PlanDelete plans removal of state.Target at scope.
func (r *Resolver) PlanDelete(state State, scope Scope) (*Plan, error) {
	if _, err := ParseScope(string(scope)); err != nil {
		return nil, err
	}
	plan := &Plan{Op: "delete", Scope: scope}
	target := state.Target

	if !target.IsRecurring() || state.Series == nil {
		if scope != ScopeThis {
			return nil, fmt.Errorf("%w: %s", ErrNotRecurring, target.ID)
		}
		plan.remove(target, "standalone item")
		return plan, nil
	}

	if scope == ScopeThis {
		plan.remove(target, "single occurrence")
		return plan, nil
	}

	for _, sib := range r.affected(state, scope) {
		plan.remove(sib, string(scope))
	}
	s := *state.Series
	switch scope {
	case ScopeFollowing:
		split := target.Date
		s.DissolvedAt = &split
		plan.Summary.SplitDate = &split
		plan.saveSeries(s, "dissolved")
	case ScopeAll:
		// Ended at its anchor: the master stays, with no dates left.
		end := s.Anchor
		s.DissolvedAt = &end
		plan.saveSeries(s, "ended")
	}
	return plan, nil
}

// affected returns the siblings a following or all mutation reaches. The
// target is always included even if the sibling list missed it.
func (r *Resolver) affected(state State, scope Scope) []Instance {
	var out []Instance
	seenTarget := false
	for _, sib := range state.Siblings {
		if scope == ScopeFollowing && sib.Date.Before(state.Target.Date) {
			continue
		}
		if sib.ID == state.Target.ID {
			seenTarget = true
		}
		out = append(out, sib)
	}
	if !seenTarget {
		out = append(out, state.Target)
		sortInstances(out)
	}
	return out
}

func (r *Resolver) changeRule(plan *Plan, state State, req UpdateRequest) (*Plan, error) {
	if req.Scope == ScopeThis {
		return nil, fmt.Errorf("%w: rule change needs scope %s or %s", ErrScopeNotAllowed, ScopeFollowing, ScopeAll)
	}
	if req.Fields.Date != nil {
		return nil, fmt.Errorf("%w: date can only be moved at scope %s", ErrScopeNotAllowed, ScopeThis)
	}
	if err := req.Rule.Validate(); err != nil {
		return nil, err
	}

	old := *state.Series
	split := old.Anchor
	base := old.Template
	if req.Scope == ScopeFollowing {
		split = state.Target.Date
		if !state.Target.IsException {
			base = TemplateOf(state.Target)
		}
	}

	for _, sib := range r.affected(state, req.Scope) {
		if sib.IsException {
			plan.Summary.Preserved++
			continue
		}
		plan.remove(sib, "regenerated")
	}

	old.DissolvedAt = &split
	plan.Summary.SplitDate = &split
	plan.saveSeries(old, "dissolved")

	next := Series{
		ID:       r.newID(),
		OwnerID:  old.OwnerID,
		Rule:     *req.Rule,
		Anchor:   split,
		Template: req.Fields.ApplyToTemplate(base),
	}
	if err := r.generate(plan, next, "regenerated"); err != nil {
		return nil, err
	}
	return plan, nil
}

// convertToSeries turns a standalone item into a series anchored on its date.
func (r *Resolver) convertToSeries(plan *Plan, target Instance, req UpdateRequest) (*Plan, error) {
	if req.Fields.Date != nil {
		target.Date = recurrence.DateOf(*req.Fields.Date)
	}
	s := Series{
		ID:       r.newID(),
		OwnerID:  target.OwnerID,
		Rule:     *req.Rule,
		Anchor:   target.Date,
		Template: req.Fields.ApplyToTemplate(TemplateOf(target)),
	}
	plan.remove(target, "converted to series")
	if err := r.generate(plan, s, "converted"); err != nil {
		return nil, err
	}
	return plan, nil
}

// generate saves s and plans one instance per generated date.
func (r *Resolver) generate(plan *Plan, s Series, reason string) error {
	dates, err := r.generator.Generate(s.Rule, s.Anchor)
	if err != nil {
		return err
	}
	plan.saveSeries(s, reason)
	for _, d := range dates {
		inst := s.Template.Stamp(r.newID(), s.OwnerID, d)
		id := s.ID
		inst.SeriesMasterID = &id
		plan.upsert(inst, reason)
	}
	plan.Summary.Generated += len(dates)
	return nil
}
