package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/iliyamo/restaurant-table-reservation/internal/cache"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

const testDate = "2026-08-24"

func clock(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	v, err := schedule.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return v
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sched := schedule.Schedule{
		Open:        clock(t, "12:00"),
		Close:       clock(t, "23:00"),
		SlotMinutes: 30,
		TurnMinutes: 90,
		TotalSeats:  40,
	}
	e, err := New(sched, repository.NewMemoryStore(), cache.NewMemoryCache())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	bad := schedule.Schedule{SlotMinutes: 0}
	if _, err := New(bad, repository.NewMemoryStore(), cache.NewMemoryCache()); err == nil {
		t.Fatal("New accepted an invalid schedule")
	}
}

func TestCreateAndGet(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	phone := "555-0100"
	r, err := e.Create(ctx, "Ada", &phone, 4, testDate, clock(t, "19:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(r.Reference, "R-") || len(r.Reference) != 12 {
		t.Errorf("reference %q does not look like R-XXXXXXXXXX", r.Reference)
	}
	got, err := e.Get(ctx, r.Reference)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Ada" || got.PartySize != 4 || got.Date != testDate || got.Start != r.Start {
		t.Errorf("stored reservation differs: %+v", got)
	}
}

func TestCreateOverlapConflict(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Fill the room at 19:00; the 90-minute turn occupies 19:00,
	// 19:30 and 20:00.
	if _, err := e.Create(ctx, "Ada", nil, 40, testDate, clock(t, "19:00")); err != nil {
		t.Fatalf("Create full house: %v", err)
	}

	// Any start whose span overlaps the full turn must conflict,
	// even for a single guest.
	for _, s := range []string{"18:00", "18:30", "19:00", "19:30", "20:00"} {
		if _, err := e.Create(ctx, "Bob", nil, 1, testDate, clock(t, s)); !errors.Is(err, ErrCapacityConflict) {
			t.Errorf("Create at %s: got %v, want ErrCapacityConflict", s, err)
		}
	}

	// 20:30 starts after the turn releases its last slot.
	if _, err := e.Create(ctx, "Bob", nil, 1, testDate, clock(t, "20:30")); err != nil {
		t.Errorf("Create at 20:30: %v", err)
	}
}

func TestCreateRejectsOffGridAndBadSizes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		start string
		size  int
	}{
		{"off-grid time", "19:15", 2},
		{"before opening", "11:30", 2},
		{"turn past closing", "22:00", 2},
		{"zero guests", "19:00", 0},
		{"negative guests", "19:00", -3},
		{"over capacity", "19:00", 41},
	}
	for _, tc := range cases {
		if _, err := e.Create(ctx, "Ada", nil, tc.size, testDate, clock(t, tc.start)); !errors.Is(err, ErrCapacityConflict) {
			t.Errorf("%s: got %v, want ErrCapacityConflict", tc.name, err)
		}
	}
}

func TestCanFit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Create(ctx, "Ada", nil, 38, testDate, clock(t, "19:00")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		start string
		size  int
		want  bool
	}{
		{"19:00", 2, true},   // exactly fills the room
		{"19:00", 3, false},  // one seat over
		{"19:30", 2, true},   // overlapping slot, still 2 free
		{"20:30", 40, true},  // span after the turn releases
		{"19:15", 1, false},  // off-grid
		{"22:00", 1, false},  // turn would run past closing
		{"19:00", 0, false},  // non-positive party
		{"19:00", -1, false}, // non-positive party
	}
	for _, tc := range cases {
		got, err := e.CanFit(ctx, testDate, clock(t, tc.start), tc.size)
		if err != nil {
			t.Fatalf("CanFit(%s, %d): %v", tc.start, tc.size, err)
		}
		if got != tc.want {
			t.Errorf("CanFit(%s, %d) = %v, want %v", tc.start, tc.size, got, tc.want)
		}
	}
}

func TestAvailabilityExcludesBlockedSlots(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Create(ctx, "Ada", nil, 40, testDate, clock(t, "19:00")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	slots, err := e.Availability(ctx, testDate, 1)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	blocked := map[string]bool{
		"18:00": true, "18:30": true, "19:00": true, "19:30": true, "20:00": true,
	}
	for _, s := range slots {
		if blocked[s.String()] {
			t.Errorf("availability includes blocked slot %s", s)
		}
	}
	// Chronological order.
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Errorf("slots out of order: %s after %s", slots[i], slots[i-1])
		}
	}
}

func TestAvailabilityEmptyIsNotAnError(t *testing.T) {
	e := newTestEngine(t)
	slots, err := e.Availability(context.Background(), testDate, 41)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("party larger than the room got %d slots", len(slots))
	}
}

func TestCancelFreesCapacity(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r, err := e.Create(ctx, "Ada", nil, 40, testDate, clock(t, "19:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	removed, err := e.Cancel(ctx, r.Reference)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if removed.Reference != r.Reference {
		t.Errorf("Cancel returned %s, want %s", removed.Reference, r.Reference)
	}
	if _, err := e.Get(ctx, r.Reference); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Errorf("Get after cancel: got %v, want ErrReservationNotFound", err)
	}

	// The freed slot is bookable again and shows up in availability.
	slots, err := e.Availability(ctx, testDate, 40)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	found := false
	for _, s := range slots {
		if s == clock(t, "19:00") {
			found = true
		}
	}
	if !found {
		t.Error("19:00 missing from availability after cancel")
	}
	if _, err := e.Create(ctx, "Bob", nil, 40, testDate, clock(t, "19:00")); err != nil {
		t.Errorf("rebook after cancel: %v", err)
	}
}

func TestCancelUnknownReference(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Cancel(context.Background(), "R-DEADBEEF00"); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Errorf("got %v, want ErrReservationNotFound", err)
	}
}

func TestModifySelfOverlapSucceeds(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r, err := e.Create(ctx, "Ada", nil, 40, testDate, clock(t, "19:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Re-asserting the exact same state must succeed: the check
	// excludes the reservation's own seats.
	size := 40
	date := testDate
	start := clock(t, "19:00")
	got, err := e.Modify(ctx, r.Reference, Change{PartySize: &size, Date: &date, Start: &start})
	if err != nil {
		t.Fatalf("Modify to same state: %v", err)
	}
	if got.PartySize != 40 || got.Start != start {
		t.Errorf("modified reservation differs: %+v", got)
	}

	// Shifting the full house by one slot overlaps itself at 19:30
	// and 20:00; still fine for the same reason.
	shift := clock(t, "19:30")
	if _, err := e.Modify(ctx, r.Reference, Change{Start: &shift}); err != nil {
		t.Errorf("Modify overlapping own span: %v", err)
	}
}

func TestModifyConflictLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Create(ctx, "Ada", nil, 30, testDate, clock(t, "19:00")); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := e.Create(ctx, "Bob", nil, 10, testDate, clock(t, "12:00"))
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}

	// Moving Bob onto Ada's span with a bigger party overflows 19:00.
	size := 11
	start := clock(t, "19:00")
	if _, err := e.Modify(ctx, b.Reference, Change{PartySize: &size, Start: &start}); !errors.Is(err, ErrCapacityConflict) {
		t.Fatalf("Modify: got %v, want ErrCapacityConflict", err)
	}

	// Bob is unchanged, Ada is unchanged, and Bob's old slot still
	// carries his seats.
	got, err := e.Get(ctx, b.Reference)
	if err != nil {
		t.Fatalf("Get b: %v", err)
	}
	if got.PartySize != 10 || got.Start != clock(t, "12:00") {
		t.Errorf("failed modify changed reservation: %+v", got)
	}
	snap, err := e.Occupancy(ctx, testDate)
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	if snap[clock(t, "12:00")] != 10 {
		t.Errorf("occupancy at 12:00 = %d, want 10", snap[clock(t, "12:00")])
	}
	if snap[clock(t, "19:00")] != 30 {
		t.Errorf("occupancy at 19:00 = %d, want 30", snap[clock(t, "19:00")])
	}
}

func TestModifyUnknownReference(t *testing.T) {
	e := newTestEngine(t)
	size := 2
	if _, err := e.Modify(context.Background(), "R-0000000000", Change{PartySize: &size}); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Errorf("got %v, want ErrReservationNotFound", err)
	}
}

func TestModifyAcrossDatesMovesOccupancy(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	other := "2026-08-25"

	r, err := e.Create(ctx, "Ada", nil, 6, testDate, clock(t, "19:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.Modify(ctx, r.Reference, Change{Date: &other}); err != nil {
		t.Fatalf("Modify date: %v", err)
	}

	oldSnap, err := e.Occupancy(ctx, testDate)
	if err != nil {
		t.Fatalf("Occupancy old: %v", err)
	}
	if oldSnap[clock(t, "19:00")] != 0 {
		t.Errorf("old date still carries %d seats at 19:00", oldSnap[clock(t, "19:00")])
	}
	newSnap, err := e.Occupancy(ctx, other)
	if err != nil {
		t.Fatalf("Occupancy new: %v", err)
	}
	if newSnap[clock(t, "19:00")] != 6 {
		t.Errorf("new date carries %d seats at 19:00, want 6", newSnap[clock(t, "19:00")])
	}
}

func TestOccupancyToleratesOffGridReservation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// A booking written under an older grid configuration may sit on
	// a start the current grid does not know.  Inject it directly.
	store := e.store.(*repository.MemoryStore)
	r, err := e.Create(ctx, "Ada", nil, 5, testDate, clock(t, "19:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	legacy := r.Clone()
	legacy.Reference = "R-LEGACY0000"
	legacy.Start = clock(t, "22:45")
	if err := store.Insert(ctx, legacy); err != nil {
		t.Fatalf("Insert legacy: %v", err)
	}
	e.invalidate(ctx, testDate)

	snap, err := e.Occupancy(ctx, testDate)
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	if snap[clock(t, "19:00")] != 5 {
		t.Errorf("occupancy at 19:00 = %d, want 5", snap[clock(t, "19:00")])
	}
	if _, ok := snap[clock(t, "22:45")]; ok {
		t.Error("off-grid slot leaked into the snapshot")
	}
}

// TestConcurrentBookingNeverOverbooks hammers a single date from many
// goroutines and then rebuilds occupancy from the store to prove no
// slot ever exceeds capacity, whatever the interleaving.
func TestConcurrentBookingNeverOverbooks(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const workers = 64
	const perWorker = 8
	starts := []string{"18:00", "18:30", "19:00", "19:30", "20:00"}

	var booked, conflicts int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				start := clock(t, starts[(w+i)%len(starts)])
				_, err := e.Create(ctx, "Guest", nil, 3, testDate, start)
				switch {
				case err == nil:
					atomic.AddInt64(&booked, 1)
				case errors.Is(err, ErrCapacityConflict):
					atomic.AddInt64(&conflicts, 1)
				default:
					t.Errorf("Create: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	if booked == 0 {
		t.Fatal("no booking succeeded")
	}
	if conflicts == 0 {
		t.Fatal("no booking conflicted; contention too low to prove anything")
	}

	// Rebuild from the store, bypassing the cache.
	snap, err := e.buildSnapshot(ctx, testDate)
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	for slot, seats := range snap {
		if seats > e.sched.TotalSeats {
			t.Errorf("slot %s committed %d seats, capacity is %d", slot, seats, e.sched.TotalSeats)
		}
	}
}

// TestConcurrentModifyCancel mixes moves and cancellations against a
// saturated date and checks the invariant still holds afterwards.
func TestConcurrentModifyCancel(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	refs := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		r, err := e.Create(ctx, "Guest", nil, 4, testDate, clock(t, "18:00"))
		if err != nil {
			t.Fatalf("seed Create: %v", err)
		}
		refs = append(refs, r.Reference)
	}

	other := "2026-08-25"
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			if i%2 == 0 {
				if _, err := e.Cancel(ctx, ref); err != nil {
					t.Errorf("Cancel %s: %v", ref, err)
				}
				return
			}
			if _, err := e.Modify(ctx, ref, Change{Date: &other}); err != nil && !errors.Is(err, ErrCapacityConflict) {
				t.Errorf("Modify %s: %v", ref, err)
			}
		}(i, ref)
	}
	wg.Wait()

	for _, date := range []string{testDate, other} {
		snap, err := e.buildSnapshot(ctx, date)
		if err != nil {
			t.Fatalf("buildSnapshot %s: %v", date, err)
		}
		for slot, seats := range snap {
			if seats > e.sched.TotalSeats {
				t.Errorf("%s slot %s committed %d seats over capacity", date, slot, seats)
			}
		}
	}
}

func TestNewReferenceFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := NewReference()
		if err != nil {
			t.Fatalf("NewReference: %v", err)
		}
		if len(ref) != 12 || !strings.HasPrefix(ref, "R-") {
			t.Fatalf("reference %q malformed", ref)
		}
		for _, c := range ref[2:] {
			if !strings.ContainsRune("0123456789ABCDEF", c) {
				t.Fatalf("reference %q contains non-hex %q", ref, c)
			}
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q in 100 draws", ref)
		}
		seen[ref] = true
	}
}
