// Package engine implements the table-reservation availability engine.
// It is the single point of truth for reservations: every availability
// query and every mutation passes through it, and it is the only
// component permitted to touch the occupancy cache.  The invariant it
// enforces is simple to state and easy to lose: at no slot on any date
// may the committed seats exceed the schedule's total capacity, under
// any interleaving of concurrent bookings, modifications and
// cancellations.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/cache"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

// Engine owns the reservation store and the occupancy cache behind a
// per-date lock scope.  Construct it once and pass it by handle to
// request handlers; it holds no ambient state.
type Engine struct {
	sched schedule.Schedule
	store repository.ReservationStore
	occ   cache.OccupancyCache
	locks *dateLocks
}

// New validates the schedule configuration and returns an engine over
// the given store and cache.
func New(sched schedule.Schedule, store repository.ReservationStore, occ cache.OccupancyCache) (*Engine, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	return &Engine{sched: sched, store: store, occ: occ, locks: newDateLocks()}, nil
}

// Schedule returns the immutable seating configuration.
func (e *Engine) Schedule() schedule.Schedule { return e.sched }

// Change carries the optional fields of a modification.  Nil fields
// default to the reservation's current values.
type Change struct {
	PartySize *int
	Date      *string
	Start     *schedule.TimeOfDay
}

// CanFit reports whether a party of the given size can start at the
// given slot on the given date.  It takes the date lock so the answer
// is consistent with any in-flight mutation for that date.
func (e *Engine) CanFit(ctx context.Context, date string, start schedule.TimeOfDay, partySize int) (bool, error) {
	unlock := e.locks.lock(date)
	defer unlock()
	return e.canFit(ctx, date, start, partySize, "")
}

// Availability returns, in chronological order, every slot on the
// date where the party fits.  An empty slice is a normal answer, not
// an error.
func (e *Engine) Availability(ctx context.Context, date string, partySize int) ([]schedule.TimeOfDay, error) {
	unlock := e.locks.lock(date)
	defer unlock()

	snap, err := e.snapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	slots := e.sched.SlotsForDate(date)
	valid := slotSet(slots)
	out := make([]schedule.TimeOfDay, 0, len(slots))
	for _, s := range slots {
		if fits(e.sched, snap, valid, s, partySize) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Occupancy returns a copy of the occupancy snapshot for a date.  It
// backs the staff overview; callers own the returned map.
func (e *Engine) Occupancy(ctx context.Context, date string) (cache.Snapshot, error) {
	unlock := e.locks.lock(date)
	defer unlock()
	snap, err := e.snapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

// Reservations returns every reservation on the date ordered by start
// time, for the staff overview.
func (e *Engine) Reservations(ctx context.Context, date string) ([]*model.Reservation, error) {
	unlock := e.locks.lock(date)
	defer unlock()
	return e.store.ListByDate(ctx, date)
}

// Create books a new reservation.  The capacity check and the insert
// happen under the date lock, so no other commit can interleave for
// the same date.  On conflict nothing changes and ErrCapacityConflict
// is returned.
func (e *Engine) Create(ctx context.Context, name string, phone *string, partySize int, date string, start schedule.TimeOfDay) (*model.Reservation, error) {
	unlock := e.locks.lock(date)
	defer unlock()

	ok, err := e.canFit(ctx, date, start, partySize, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCapacityConflict
	}
	ref, err := NewReference()
	if err != nil {
		return nil, err
	}
	r := &model.Reservation{
		Reference: ref,
		Name:      name,
		Phone:     phone,
		PartySize: partySize,
		Date:      date,
		Start:     start,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	e.invalidate(ctx, date)
	return r, nil
}

// Modify applies a partial update to an existing reservation,
// all-or-nothing.  The prospective state is checked with the
// reservation's own contribution excluded, so moving to the same
// date/time/size it already holds always succeeds.  On conflict the
// stored reservation is left completely unchanged.
func (e *Engine) Modify(ctx context.Context, reference string, ch Change) (*model.Reservation, error) {
	for {
		cur, err := e.store.Get(ctx, reference)
		if err != nil {
			return nil, err
		}
		next := cur.Clone()
		if ch.PartySize != nil {
			next.PartySize = *ch.PartySize
		}
		if ch.Date != nil {
			next.Date = *ch.Date
		}
		if ch.Start != nil {
			next.Start = *ch.Start
		}

		unlock := e.locks.lock(cur.Date, next.Date)
		// The reservation may have been moved between the read above
		// and taking the locks; re-read and retry when its date no
		// longer matches the locks we hold.
		latest, err := e.store.Get(ctx, reference)
		if err != nil {
			unlock()
			return nil, err
		}
		if latest.Date != cur.Date {
			unlock()
			continue
		}

		ok, err := e.canFit(ctx, next.Date, next.Start, next.PartySize, reference)
		if err != nil {
			unlock()
			return nil, err
		}
		if !ok {
			unlock()
			return nil, ErrCapacityConflict
		}
		if err := e.store.Update(ctx, next); err != nil {
			unlock()
			return nil, err
		}
		e.invalidate(ctx, cur.Date)
		if next.Date != cur.Date {
			e.invalidate(ctx, next.Date)
		}
		unlock()
		return next, nil
	}
}

// Cancel removes a reservation and returns the removed record.
func (e *Engine) Cancel(ctx context.Context, reference string) (*model.Reservation, error) {
	for {
		cur, err := e.store.Get(ctx, reference)
		if err != nil {
			return nil, err
		}
		unlock := e.locks.lock(cur.Date)
		latest, err := e.store.Get(ctx, reference)
		if err != nil {
			unlock()
			return nil, err
		}
		if latest.Date != cur.Date {
			unlock()
			continue
		}
		removed, err := e.store.Delete(ctx, reference)
		if err != nil {
			unlock()
			return nil, err
		}
		e.invalidate(ctx, removed.Date)
		unlock()
		return removed, nil
	}
}

// Get is a pure lookup with no side effects.  It returns
// repository.ErrReservationNotFound for unknown references.
func (e *Engine) Get(ctx context.Context, reference string) (*model.Reservation, error) {
	return e.store.Get(ctx, reference)
}

// snapshot returns the occupancy snapshot for a date, building it from
// the store on a cache miss.  Must be called with the date lock held.
func (e *Engine) snapshot(ctx context.Context, date string) (cache.Snapshot, error) {
	return e.occ.GetOrBuild(ctx, date, func() (cache.Snapshot, error) {
		return e.buildSnapshot(ctx, date)
	})
}

// buildSnapshot scans all reservations for the date and distributes
// each party size across every slot in its occupied span.  Span slots
// outside the current grid are silently ignored: bookings made under
// an older schedule configuration must not corrupt the counts for the
// current one.
func (e *Engine) buildSnapshot(ctx context.Context, date string) (cache.Snapshot, error) {
	slots := e.sched.SlotsForDate(date)
	snap := make(cache.Snapshot, len(slots))
	for _, s := range slots {
		snap[s] = 0
	}
	list, err := e.store.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		for _, s := range e.sched.SpanSlots(r.Start) {
			if _, ok := snap[s]; ok {
				snap[s] += r.PartySize
			}
		}
	}
	return snap, nil
}

// canFit is the capacity check.  Must be called with the date lock
// held.  excluding, when non-empty, removes that reservation's own
// contribution from the working copy so a modify can re-use the slots
// it already occupies.
func (e *Engine) canFit(ctx context.Context, date string, start schedule.TimeOfDay, partySize int, excluding string) (bool, error) {
	if partySize <= 0 {
		return false, nil
	}
	slots := e.sched.SlotsForDate(date)
	valid := slotSet(slots)
	if _, ok := valid[start]; !ok {
		return false, nil
	}

	snap, err := e.snapshot(ctx, date)
	if err != nil {
		return false, err
	}
	used := snap.Clone()

	if excluding != "" {
		if old, err := e.store.Get(ctx, excluding); err == nil && old.Date == date {
			for _, s := range e.sched.SpanSlots(old.Start) {
				if _, ok := used[s]; ok {
					used[s] -= old.PartySize
				}
			}
		}
	}
	return fits(e.sched, used, valid, start, partySize), nil
}

// invalidate drops the cached snapshot for a date.  A failed
// invalidation (possible only on the Redis backend) is logged rather
// than failing the mutation; the entry's TTL bounds the staleness.
func (e *Engine) invalidate(ctx context.Context, date string) {
	if err := e.occ.Invalidate(ctx, date); err != nil {
		log.Printf("engine: invalidate occupancy for %s failed: %v", date, err)
	}
}

// fits walks every slot in the candidate span.  Any span slot off the
// grid means the turn would run past closing; any slot where the
// party would push committed seats over capacity rejects the start.
func fits(sched schedule.Schedule, used cache.Snapshot, valid map[schedule.TimeOfDay]struct{}, start schedule.TimeOfDay, partySize int) bool {
	for _, s := range sched.SpanSlots(start) {
		if _, ok := valid[s]; !ok {
			return false
		}
		if used[s]+partySize > sched.TotalSeats {
			return false
		}
	}
	return true
}

func slotSet(slots []schedule.TimeOfDay) map[schedule.TimeOfDay]struct{} {
	set := make(map[schedule.TimeOfDay]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}
