package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/core/metrics"
	"planner/core/recurrence"

	"go.uber.org/zap"
)

// Service runs scoped mutations against a Store.
type Service struct {
	store     Store
	resolver  *Resolver
	generator *recurrence.Generator
	logger    *zap.Logger
}

// NewService creates a new series service.
func NewService(store Store, generator *recurrence.Generator, logger *zap.Logger) *Service {
	if generator == nil {
		generator = recurrence.NewGenerator(recurrence.DefaultMaxOccurrences)
	}
	return &Service{
		store:     store,
		resolver:  NewResolver(generator),
		generator: generator,
		logger:    logger,
	}
}

// Store returns the backing store.
func (s *Service) Store() Store { return s.store }

// Preview expands rule from anchor without persisting anything.
func (s *Service) Preview(rule recurrence.Rule, anchor time.Time) ([]time.Time, error) {
	return s.generator.Generate(rule, anchor)
}

// CreateSeries persists a new series and its instances, or a standalone item
// when req.Rule is nil. It returns the created instances ordered by date.
func (s *Service) CreateSeries(ctx context.Context, req CreateRequest) ([]Instance, error) {
	plan, err := s.execute(ctx, func(ctx context.Context, tx Store) (*Plan, error) {
		return s.resolver.PlanCreate(req)
	})
	s.observe("create", ScopeThis, plan, err)
	if err != nil {
		return nil, err
	}
	if req.Rule != nil {
		metrics.OccurrencesGenerated.WithLabelValues(string(req.Rule.Freq.Tag())).Add(float64(plan.Summary.Generated))
	}
	return plan.Upserted(), nil
}

// UpdateInstance applies req and returns every instance written by it.
func (s *Service) UpdateInstance(ctx context.Context, req UpdateRequest) ([]Instance, error) {
	plan, err := s.execute(ctx, func(ctx context.Context, tx Store) (*Plan, error) {
		return s.planUpdate(ctx, tx, req)
	})
	s.observe("update", req.Scope, plan, err)
	if err != nil {
		return nil, err
	}
	if req.Rule != nil && plan.Summary.Generated > 0 {
		metrics.OccurrencesGenerated.WithLabelValues(string(req.Rule.Freq.Tag())).Add(float64(plan.Summary.Generated))
	}
	return plan.Upserted(), nil
}

// DeleteInstance removes the target and, depending on scope, its siblings.
// It returns the removed ids.
func (s *Service) DeleteInstance(ctx context.Context, req DeleteRequest) ([]string, error) {
	plan, err := s.execute(ctx, func(ctx context.Context, tx Store) (*Plan, error) {
		return s.planDelete(ctx, tx, req)
	})
	s.observe("delete", req.Scope, plan, err)
	if err != nil {
		return nil, err
	}
	return plan.Deleted(), nil
}

// PlanUpdate returns the plan UpdateInstance would apply, without applying it.
func (s *Service) PlanUpdate(ctx context.Context, req UpdateRequest) (*Plan, error) {
	return s.planUpdate(ctx, s.store, req)
}

// PlanDelete returns the plan DeleteInstance would apply, without applying it.
func (s *Service) PlanDelete(ctx context.Context, req DeleteRequest) (*Plan, error) {
	return s.planDelete(ctx, s.store, req)
}

// GetInstance returns one instance.
func (s *Service) GetInstance(ctx context.Context, id string) (*Instance, error) {
	return s.store.GetInstance(ctx, id)
}

// GetSeries returns one series master.
func (s *Service) GetSeries(ctx context.Context, id string) (*Series, error) {
	return s.store.GetSeries(ctx, id)
}

// ListInstances returns the instances of a series ordered by date.
func (s *Service) ListInstances(ctx context.Context, seriesID string) ([]Instance, error) {
	if _, err := s.store.GetSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	return s.store.ListInstances(ctx, seriesID)
}

// ListOwnerInstances returns all instances of an owner ordered by date.
func (s *Service) ListOwnerInstances(ctx context.Context, ownerID string) ([]Instance, error) {
	return s.store.ListOwnerInstances(ctx, ownerID)
}

func (s *Service) loadState(ctx context.Context, store Store, id string) (State, error) {
	target, err := store.GetInstance(ctx, id)
	if err != nil {
		return State{}, err
	}
	state := State{Target: *target}
	if !target.IsRecurring() {
		return state, nil
	}

	master, err := store.GetSeries(ctx, *target.SeriesMasterID)
	if errors.Is(err, ErrNotFound) {
		// An instance whose master vanished behaves as a standalone item.
		return state, nil
	}
	if err != nil {
		return State{}, err
	}
	siblings, err := store.ListInstances(ctx, master.ID)
	if err != nil {
		return State{}, err
	}
	state.Series = master
	state.Siblings = siblings
	return state, nil
}

func (s *Service) planUpdate(ctx context.Context, store Store, req UpdateRequest) (*Plan, error) {
	if _, err := ParseScope(string(req.Scope)); err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx, store, req.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.PlanUpdate(state, req)
}

func (s *Service) planDelete(ctx context.Context, store Store, req DeleteRequest) (*Plan, error) {
	if _, err := ParseScope(string(req.Scope)); err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx, store, req.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.PlanDelete(state, req.Scope)
}

// execute loads, plans and applies inside one transaction. Request errors
// pass through unchanged; everything else becomes ErrTransactionFailed.
func (s *Service) execute(ctx context.Context, build func(ctx context.Context, tx Store) (*Plan, error)) (*Plan, error) {
	var plan *Plan
	err := s.store.Transaction(ctx, func(tx Store) error {
		p, err := build(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := ApplyPlan(ctx, tx, p); err != nil {
			return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
		}
		plan = p
		return nil
	})
	if err != nil && !IsClientError(err) && !errors.Is(err, ErrTransactionFailed) {
		err = fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) observe(op string, scope Scope, plan *Plan, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsClientError(err):
		outcome = "rejected"
	default:
		outcome = "failed"
	}
	if _, perr := ParseScope(string(scope)); perr != nil {
		scope = "invalid"
	}
	metrics.ScopedMutations.WithLabelValues(op, string(scope), outcome).Inc()

	if err != nil {
		if outcome == "failed" {
			s.logger.Error("Series mutation failed",
				zap.String("op", op),
				zap.String("scope", string(scope)),
				zap.Error(err),
			)
		}
		return
	}

	metrics.InstancesAffected.WithLabelValues(op, string(scope)).Observe(float64(plan.Affected()))
	s.logger.Debug("Series mutation applied",
		zap.String("op", op),
		zap.String("scope", string(scope)),
		zap.Int("upserts", plan.Summary.Upserts),
		zap.Int("deletes", plan.Summary.Deletes),
		zap.Int("preserved", plan.Summary.Preserved),
	)
}
