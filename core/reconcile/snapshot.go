package reconcile

import (
	"slices"
	"sort"

	"planner/core/series"
)

// Snapshot is an immutable, date ordered list of cached instances.
type Snapshot []series.Instance

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Find returns the instance with id.
func (s Snapshot) Find(id string) (series.Instance, bool) {
	for _, inst := range s {
		if inst.ID == id {
			return inst, true
		}
	}
	return series.Instance{}, false
}

// Result is what a mutation changed on the server, or what an optimistic
// change pretends it changed.
type Result struct {
	// TempID is a locally synthesized row to drop.
	TempID string
	// Instances are canonical rows that replace cached rows by id or get added.
	Instances []series.Instance
	// DeletedIDs are rows to drop.
	DeletedIDs []string
}

// Apply returns a new snapshot with r folded into s.
func Apply(s Snapshot, r Result) Snapshot {
	drop := make(map[string]bool, len(r.DeletedIDs)+1)
	for _, id := range r.DeletedIDs {
		drop[id] = true
	}
	if r.TempID != "" {
		drop[r.TempID] = true
	}
	replace := make(map[string]series.Instance, len(r.Instances))
	for _, inst := range r.Instances {
		replace[inst.ID] = inst
	}

	out := make(Snapshot, 0, len(s)+len(r.Instances))
	for _, inst := range s {
		if drop[inst.ID] {
			continue
		}
		if next, ok := replace[inst.ID]; ok {
			out = append(out, next)
			delete(replace, inst.ID)
			continue
		}
		out = append(out, inst)
	}
	for _, inst := range r.Instances {
		if _, pending := replace[inst.ID]; pending && !drop[inst.ID] {
			out = append(out, inst)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Rollback returns the snapshot taken before an optimistic change, unchanged.
func Rollback(previous Snapshot) Snapshot {
	return previous.Clone()
}

// Equal reports whether two snapshots hold the same instances in the same order.
func Equal(a, b Snapshot) bool {
	return slices.EqualFunc(a, b, func(x, y series.Instance) bool {
		return x.ID == y.ID &&
			ptrEqual(x.SeriesMasterID, y.SeriesMasterID) &&
			x.OwnerID == y.OwnerID &&
			x.Date.Equal(y.Date) &&
			x.StartTime == y.StartTime &&
			x.Title == y.Title &&
			x.Description == y.Description &&
			x.DurationMinutes == y.DurationMinutes &&
			x.Completed == y.Completed &&
			x.IsException == y.IsException
	})
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
