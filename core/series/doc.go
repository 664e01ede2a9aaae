// Package series owns recurring items and resolves scoped mutations on them.
//
// A Series holds an immutable rule and an anchor date. Creating it
// materializes one Instance per generated date. Mutations target a single
// instance and carry a Scope:
//
//   - this: only the target. Editing a series instance marks it as an exception.
//   - following: the target and every later instance of the series.
//   - all: every instance of the series.
//
// Scopes other than this on a standalone item fail with ErrNotRecurring.
//
// # Rule changes
//
// A rule is never edited in place. Changing it at scope following or all
// dissolves the series at a split date (the target's date, or the anchor for
// all), deletes the non-exception instances from that date on and creates a
// new series from the split with freshly generated instances. Exceptions
// from the split onwards stay attached to the dissolved series. A rule
// change at scope this converts a standalone item into a new series; on a
// series instance it fails with ErrScopeNotAllowed.
//
// Plain field edits at following or all overwrite every affected instance,
// exceptions included. Deleting at following or all removes exceptions too.
//
// # Plans
//
// The Resolver turns a request and the loaded state into a Plan of actions
// without touching storage. The Service loads state, plans and applies the
// plan inside one Store transaction; a storage failure anywhere rolls the
// whole mutation back and surfaces as ErrTransactionFailed.
package series
