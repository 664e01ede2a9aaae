package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/core/metrics"
	"planner/core/series"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a partition refetch when none is configured.
const DefaultFetchTimeout = 10 * time.Second

// MutationError is returned when a mutation failed on the server. The cache
// was already restored to its state before the mutation.
type MutationError struct {
	Op        Op
	Partition Partition
	Err       error

	r *Reconciler
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Partition, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Retry invalidates the partition and refetches it from the server.
func (e *MutationError) Retry(ctx context.Context) (Snapshot, error) {
	e.r.cache.Invalidate(e.Partition)
	return e.r.Fetch(ctx, e.Partition)
}

// Reconciler applies the cache policy around Remote calls.
type Reconciler struct {
	cache        *Cache
	remote       Remote
	logger       *zap.Logger
	sf           singleflight.Group
	fetchTimeout time.Duration
	newTempID    func() string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithFetchTimeout bounds each refetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

// NewReconciler creates a reconciler over cache and remote.
func NewReconciler(cache *Cache, remote Remote, logger *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		cache:        cache,
		remote:       remote,
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
		newTempID:    func() string { return "tmp-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the cache the reconciler maintains.
func (r *Reconciler) Cache() *Cache { return r.cache }

// Get returns the cached snapshot of p, fetching it when missing or stale.
func (r *Reconciler) Get(ctx context.Context, p Partition) (Snapshot, error) {
	if r.cache.Fresh(p) {
		snap, _ := r.cache.Snapshot(p)
		return snap, nil
	}
	return r.Fetch(ctx, p)
}

// Fetch loads p from the server. Concurrent fetches of p share one request.
// When a mutation cancels the fetch, the result is dropped and the snapshot
// left by the mutation is returned instead.
func (r *Reconciler) Fetch(ctx context.Context, p Partition) (Snapshot, error) {
	v, err, _ := r.sf.Do(string(p), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.fetchTimeout)
		defer cancel()
		seq := r.cache.beginFetch(p, cancel)

		list, err := r.remote.ListInstances(fetchCtx, p)
		if err != nil {
			if errors.Is(fetchCtx.Err(), context.Canceled) {
				return r.cache.settled(p), nil
			}
			return nil, fmt.Errorf("fetch %s: %w", p, err)
		}

		snap := Apply(nil, Result{Instances: list})
		if !r.cache.finishFetch(p, seq, snap) {
			r.logger.Debug("Discarded superseded fetch", zap.String("partition", string(p)))
			return r.cache.settled(p), nil
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Snapshot).Clone(), nil
}

// Create creates a series or standalone item.
func (r *Reconciler) Create(ctx context.Context, p Partition, req series.CreateRequest) ([]series.Instance, error) {
	m := Mutation{Op: OpCreate, Scope: series.ScopeThis, Recurring: req.Rule != nil}
	unlock := r.cache.lockMutation(p)
	defer unlock()
	r.sf.Forget(string(p))

	if !m.Optimistic() {
		created, err := r.remote.CreateSeries(context.WithoutCancel(ctx), req)
		if err != nil {
			return nil, r.fail(m, p, err)
		}
		r.refresh(ctx, p)
		return created, nil
	}

	tempID := r.newTempID()
	optimistic := req.Template.Stamp(tempID, OptimisticOwner, req.Anchor)
	previous := r.optimistic(p, Result{Instances: []series.Instance{optimistic}})

	created, err := r.remote.CreateSeries(context.WithoutCancel(ctx), req)
	if err != nil {
		r.rollback(m, p, previous)
		return nil, r.fail(m, p, err)
	}
	r.confirm(p, Result{TempID: tempID, Instances: created})
	return created, nil
}

// Update patches an instance at req.Scope.
func (r *Reconciler) Update(ctx context.Context, p Partition, req series.UpdateRequest) ([]series.Instance, error) {
	m := Mutation{Op: OpUpdate, Scope: req.Scope, RuleChange: req.Rule != nil}
	unlock := r.cache.lockMutation(p)
	defer unlock()
	r.sf.Forget(string(p))

	current, _ := r.cache.Snapshot(p)
	target, cached := current.Find(req.ID)
	if !m.Optimistic() || !cached {
		updated, err := r.remote.UpdateInstance(context.WithoutCancel(ctx), req)
		if err != nil {
			return nil, r.fail(m, p, err)
		}
		if m.Optimistic() {
			r.confirm(p, Result{Instances: updated})
		} else {
			r.refresh(ctx, p)
		}
		return updated, nil
	}

	if req.Fields.ApplyTo(&target) && target.IsRecurring() {
		target.IsException = true
	}
	previous := r.optimistic(p, Result{Instances: []series.Instance{target}})

	updated, err := r.remote.UpdateInstance(context.WithoutCancel(ctx), req)
	if err != nil {
		r.rollback(m, p, previous)
		return nil, r.fail(m, p, err)
	}
	r.confirm(p, Result{Instances: updated})
	return updated, nil
}

// Delete removes an instance at req.Scope.
func (r *Reconciler) Delete(ctx context.Context, p Partition, req series.DeleteRequest) ([]string, error) {
	m := Mutation{Op: OpDelete, Scope: req.Scope}
	unlock := r.cache.lockMutation(p)
	defer unlock()
	r.sf.Forget(string(p))

	if !m.Optimistic() {
		removed, err := r.remote.DeleteInstance(context.WithoutCancel(ctx), req)
		if err != nil {
			return nil, r.fail(m, p, err)
		}
		r.refresh(ctx, p)
		return removed, nil
	}

	previous := r.optimistic(p, Result{DeletedIDs: []string{req.ID}})

	removed, err := r.remote.DeleteInstance(context.WithoutCancel(ctx), req)
	if err != nil {
		r.rollback(m, p, previous)
		return nil, r.fail(m, p, err)
	}
	r.confirm(p, Result{DeletedIDs: removed})
	return removed, nil
}

// optimistic applies res to p and returns the snapshot it replaced.
func (r *Reconciler) optimistic(p Partition, res Result) Snapshot {
	previous, _ := r.cache.Snapshot(p)
	r.cache.Replace(p, Apply(previous, res))
	return previous
}

func (r *Reconciler) confirm(p Partition, res Result) {
	current, _ := r.cache.Snapshot(p)
	r.cache.Replace(p, Apply(current, res))
}

func (r *Reconciler) rollback(m Mutation, p Partition, previous Snapshot) {
	r.cache.Replace(p, Rollback(previous))
	metrics.ClientRollbacks.WithLabelValues(string(m.Op)).Inc()
	r.logger.Warn("Rolled back optimistic change",
		zap.String("op", string(m.Op)),
		zap.String("partition", string(p)),
	)
}

// refresh invalidates p after a fan-out mutation and refetches it. A failed
// refetch leaves the partition stale for the next Get.
func (r *Reconciler) refresh(ctx context.Context, p Partition) {
	r.cache.Invalidate(p)
	r.sf.Forget(string(p))
	if _, err := r.fetchDuringMutation(ctx, p); err != nil {
		r.logger.Warn("Refetch after mutation failed",
			zap.String("partition", string(p)),
			zap.Error(err),
		)
	}
}

// fetchDuringMutation loads p while the caller holds its mutation lock, so
// it writes the result directly instead of going through finishFetch.
func (r *Reconciler) fetchDuringMutation(ctx context.Context, p Partition) (Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()
	list, err := r.remote.ListInstances(fetchCtx, p)
	if err != nil {
		return nil, err
	}
	snap := Apply(nil, Result{Instances: list})
	r.cache.Replace(p, snap)
	return snap, nil
}

func (r *Reconciler) fail(m Mutation, p Partition, err error) error {
	r.logger.Warn("Mutation failed",
		zap.String("op", string(m.Op)),
		zap.String("scope", string(m.Scope)),
		zap.String("partition", string(p)),
		zap.Error(err),
	)
	return &MutationError{Op: m.Op, Partition: p, Err: err, r: r}
}
