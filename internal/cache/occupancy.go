// Package cache holds the per-date occupancy snapshots the
// availability engine consults before committing a reservation.  A
// snapshot is derived state: it must always be reconstructible from
// the reservation store, and it is dropped whenever a mutation touches
// its date.  The cache contract is deliberately explicit (GetOrBuild
// plus Invalidate rather than implicit memoization) so the lock
// discipline around invalidate-then-rebuild stays visible and
// testable.
package cache

import (
	"context"
	"sync"

	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

// Snapshot maps each valid schedule slot to the number of seats
// committed across every reservation whose occupied span includes that
// slot.  A snapshot handed out by a cache must be treated as
// read-only; callers needing what-if arithmetic clone it first.
type Snapshot map[schedule.TimeOfDay]int

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	cp := make(Snapshot, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// BuildFunc computes a fresh snapshot for a date from the reservation
// store.  The engine supplies it so cache backends stay ignorant of
// stores and schedules.
type BuildFunc func() (Snapshot, error)

// OccupancyCache answers "committed seats at slot S on date D" in O(1)
// after one build per date.  Implementations must be safe for
// concurrent use; the engine additionally serializes mutation and
// rebuild per date.
type OccupancyCache interface {
	// GetOrBuild returns the cached snapshot for the date, invoking
	// build and caching its result when no entry exists.
	GetOrBuild(ctx context.Context, date string, build BuildFunc) (Snapshot, error)
	// Invalidate drops any cached snapshot for the date.  It is
	// idempotent on a date with no entry.
	Invalidate(ctx context.Context, date string) error
}

// MemoryCache keeps snapshots in an in-process map.  It is the default
// backend and the one used throughout the tests.
type MemoryCache struct {
	mu     sync.RWMutex
	byDate map[string]Snapshot
}

// NewMemoryCache returns an empty in-process occupancy cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{byDate: make(map[string]Snapshot)}
}

// GetOrBuild returns the cached snapshot or builds and stores one.
func (c *MemoryCache) GetOrBuild(ctx context.Context, date string, build BuildFunc) (Snapshot, error) {
	c.mu.RLock()
	snap, ok := c.byDate[date]
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}
	snap, err := build()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.byDate[date] = snap
	c.mu.Unlock()
	return snap, nil
}

// Invalidate drops the entry for the date, if any.
func (c *MemoryCache) Invalidate(ctx context.Context, date string) error {
	c.mu.Lock()
	delete(c.byDate, date)
	c.mu.Unlock()
	return nil
}
