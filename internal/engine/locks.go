package engine

import (
	"sort"
	"sync"
)

// dateLocks hands out one mutex per reservation date so
// check-then-commit sequences for the same date are serialized while
// different dates proceed in parallel.  Mutexes are allocated lazily
// and never reclaimed; the working set is bounded by the number of
// distinct dates the service has seen since startup.
type dateLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDateLocks() *dateLocks {
	return &dateLocks{locks: make(map[string]*sync.Mutex)}
}

func (d *dateLocks) get(date string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[date]
	if !ok {
		l = &sync.Mutex{}
		d.locks[date] = l
	}
	return l
}

// lock acquires the mutexes for the given dates and returns an unlock
// function.  Duplicates are collapsed and the remainder acquired in
// sorted order so a modify touching two dates cannot deadlock against
// another modify touching the same pair in the opposite order.
func (d *dateLocks) lock(dates ...string) func() {
	uniq := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, dt := range dates {
		if _, ok := seen[dt]; !ok {
			seen[dt] = struct{}{}
			uniq = append(uniq, dt)
		}
	}
	sort.Strings(uniq)
	held := make([]*sync.Mutex, 0, len(uniq))
	for _, dt := range uniq {
		l := d.get(dt)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
