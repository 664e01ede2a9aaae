// Package reconcile keeps a client-side cache of instances consistent with
// the server across scoped mutations.
//
// The cache is split into partitions (one per series, or one per owner) and
// is an explicit object handed to a Reconciler; there is no package level
// state. Snapshots are immutable values: Apply and Rollback build new ones
// and never modify their inputs.
//
// # Policy
//
// A mutation is optimistic only when it touches exactly one row and cannot
// fan out:
//
//   - creating a standalone item
//   - updating at scope this without a rule change
//   - deleting at scope this
//
// Optimistic mutations change the cache before the request is sent and roll
// back to the previous snapshot, verbatim, if it fails. Every other mutation
// leaves the cache alone until the server answers, then invalidates the
// partition and refetches it.
//
// # Ordering
//
// Mutations on one partition are serialized, so at most one optimistic
// change is visible at a time. A mutation cancels any fetch of its partition
// that is still running and a fetch that finishes while a mutation is
// pending is discarded. Fetches of the same partition are coalesced with
// singleflight. Requests that were already sent are never cancelled.
//
// # Usage Example
//
//	cache := reconcile.NewCache(5 * time.Minute)
//	r := reconcile.NewReconciler(cache, client, logger)
//	p := reconcile.SeriesPartition(seriesID)
//
//	if _, err := r.Update(ctx, p, req); err != nil {
//	    var merr *reconcile.MutationError
//	    if errors.As(err, &merr) {
//	        snapshot, err = merr.Retry(ctx)
//	    }
//	}
package reconcile
