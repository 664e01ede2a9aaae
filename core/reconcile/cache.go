package reconcile

import (
	"context"
	"sync"
	"time"
)

// partition is the cached state of one Partition.
type partition struct {
	snapshot Snapshot
	loaded   bool
	stale    bool
	built    time.Time

	// generation is bumped by every Replace.
	generation uint64

	// fetchSeq identifies the current fetch; a finished fetch only writes
	// when its sequence is still current.
	fetchSeq    uint64
	cancelFetch context.CancelFunc

	// pending counts mutations in flight.
	pending int
	// mutate serializes mutations on the partition.
	mutate sync.Mutex
}

// Cache holds partition snapshots. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	partitions map[Partition]*partition
	ttl        time.Duration
}

// NewCache creates a cache whose fetched partitions stay fresh for ttl.
// A zero ttl keeps them until invalidated.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{partitions: make(map[Partition]*partition), ttl: ttl}
}

func (c *Cache) get(p Partition) *partition {
	c.mu.RLock()
	part, ok := c.partitions[p]
	c.mu.RUnlock()
	if ok {
		return part
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if part, ok = c.partitions[p]; !ok {
		part = &partition{}
		c.partitions[p] = part
	}
	return part
}

// Snapshot returns a copy of the cached snapshot and whether the partition was ever loaded.
func (c *Cache) Snapshot(p Partition) (Snapshot, bool) {
	part := c.get(p)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return part.snapshot.Clone(), part.loaded
}

// Fresh reports whether the partition is loaded, not invalidated and within its TTL.
func (c *Cache) Fresh(p Partition) bool {
	part := c.get(p)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !part.loaded || part.stale {
		return false
	}
	return c.ttl == 0 || time.Since(part.built) < c.ttl
}

// Generation returns how many times the partition was replaced.
func (c *Cache) Generation(p Partition) uint64 {
	part := c.get(p)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return part.generation
}

// Replace stores s as the partition's snapshot.
func (c *Cache) Replace(p Partition, s Snapshot) {
	part := c.get(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceLocked(part, s)
}

func (c *Cache) replaceLocked(part *partition, s Snapshot) {
	part.snapshot = s.Clone()
	part.loaded = true
	part.stale = false
	part.built = time.Now()
	part.generation++
}

// Invalidate marks the partition stale and cancels its running fetch.
func (c *Cache) Invalidate(p Partition) {
	part := c.get(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	part.stale = true
	c.cancelFetchLocked(part)
}

// CancelFetch cancels the partition's running fetch, if any. Its result will be discarded.
func (c *Cache) CancelFetch(p Partition) {
	part := c.get(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFetchLocked(part)
}

func (c *Cache) cancelFetchLocked(part *partition) {
	if part.cancelFetch != nil {
		part.cancelFetch()
		part.cancelFetch = nil
	}
	part.fetchSeq++
}

// beginFetch registers a new fetch and returns its sequence number.
func (c *Cache) beginFetch(p Partition, cancel context.CancelFunc) uint64 {
	part := c.get(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFetchLocked(part)
	part.cancelFetch = cancel
	return part.fetchSeq
}

// finishFetch stores s if the fetch is still current and no mutation is pending.
func (c *Cache) finishFetch(p Partition, seq uint64, s Snapshot) bool {
	part := c.get(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	if part.fetchSeq != seq {
		return false
	}
	part.cancelFetch = nil
	if part.pending > 0 {
		return false
	}
	c.replaceLocked(part, s)
	return true
}

// settled waits for running mutations on p and returns the snapshot they left.
func (c *Cache) settled(p Partition) Snapshot {
	part := c.get(p)
	part.mutate.Lock()
	defer part.mutate.Unlock()
	snap, _ := c.Snapshot(p)
	return snap
}

// lockMutation serializes mutations on p and cancels its running fetch.
// The returned func releases the lock.
func (c *Cache) lockMutation(p Partition) func() {
	part := c.get(p)
	part.mutate.Lock()

	c.mu.Lock()
	part.pending++
	c.cancelFetchLocked(part)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		part.pending--
		c.mu.Unlock()
		part.mutate.Unlock()
	}
}
