package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationStore is the authoritative set of reservations, keyed by
// their unique reference.  The availability engine is the only caller
// that mutates the store, and it serializes mutations per date, so
// implementations only need to be safe for concurrent use, not to
// enforce capacity themselves.
type ReservationStore interface {
	// Insert adds a new reservation.  ErrDuplicateReference is
	// returned if the reference already exists.
	Insert(ctx context.Context, r *model.Reservation) error
	// Get returns the reservation for the reference, or
	// ErrReservationNotFound.
	Get(ctx context.Context, reference string) (*model.Reservation, error)
	// Update replaces the stored record with the same reference.
	Update(ctx context.Context, r *model.Reservation) error
	// Delete removes and returns the reservation, or
	// ErrReservationNotFound.
	Delete(ctx context.Context, reference string) (*model.Reservation, error)
	// ListByDate returns every reservation on the given date, ordered
	// by start time then reference for deterministic output.
	ListByDate(ctx context.Context, date string) ([]*model.Reservation, error)
}

// MemoryStore keeps reservations in an in-process map.  It is the
// default backend: state is volatile across restarts by design, which
// matches the service's durability contract.  All methods copy records
// on the way in and out so callers never alias store-owned memory.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Reservation
}

// NewMemoryStore returns an empty in-memory reservation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*model.Reservation)}
}

// Insert adds a new reservation to the map.
func (s *MemoryStore) Insert(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.Reference]; ok {
		return ErrDuplicateReference
	}
	s.byID[r.Reference] = r.Clone()
	return nil
}

// Get looks up a reservation by reference.
func (s *MemoryStore) Get(ctx context.Context, reference string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[reference]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return r.Clone(), nil
}

// Update replaces the stored record in place.
func (s *MemoryStore) Update(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.Reference]; !ok {
		return ErrReservationNotFound
	}
	s.byID[r.Reference] = r.Clone()
	return nil
}

// Delete removes a reservation and returns the removed record.
func (s *MemoryStore) Delete(ctx context.Context, reference string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[reference]
	if !ok {
		return nil, ErrReservationNotFound
	}
	delete(s.byID, reference)
	return r, nil
}

// ListByDate scans the map for reservations on the given date.  The
// result is sorted by start time, then reference, so occupancy builds
// and staff listings are deterministic.
func (s *MemoryStore) ListByDate(ctx context.Context, date string) ([]*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Reservation, 0)
	for _, r := range s.byID {
		if r.Date == date {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Reference < out[j].Reference
	})
	return out, nil
}
