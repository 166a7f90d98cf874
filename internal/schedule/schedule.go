// Package schedule contains the slot-grid arithmetic for a single
// restaurant day.  A Schedule is immutable configuration; all methods
// are pure functions so results may be recomputed on every call.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a clock value expressed as minutes after midnight.  It
// identifies a slot on the schedule grid without carrying a calendar
// date.  The textual form is 24-hour "HH:MM", which makes the type
// usable both as a JSON value and as a JSON map key.
type TimeOfDay int

// ParseClock converts a 24-hour "HH:MM" string into a TimeOfDay.  It
// rejects anything that is not a valid wall-clock time.
func ParseClock(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0-59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the value as 24-hour "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler so TimeOfDay values
// serialize as "HH:MM" in JSON bodies and as map keys in cached
// occupancy snapshots.
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Schedule is the process-wide seating configuration.  Open and Close
// bound the operating window, SlotMinutes is the grid granularity,
// TurnMinutes is how long a seated party occupies its seats, and
// TotalSeats is the pooled capacity shared by every reservation.
type Schedule struct {
	Open        TimeOfDay
	Close       TimeOfDay
	SlotMinutes int
	TurnMinutes int
	TotalSeats  int
}

// Validate checks the structural invariants of the configuration:
// positive granularity, turn and capacity, a non-empty operating
// window tiled evenly by the slot size, and a turn duration that is a
// whole number of slots so occupied spans land on grid boundaries.
func (s Schedule) Validate() error {
	if s.SlotMinutes <= 0 {
		return fmt.Errorf("slot granularity must be positive, got %d", s.SlotMinutes)
	}
	if s.TurnMinutes <= 0 {
		return fmt.Errorf("turn duration must be positive, got %d", s.TurnMinutes)
	}
	if s.TotalSeats <= 0 {
		return fmt.Errorf("total seats must be positive, got %d", s.TotalSeats)
	}
	if s.Open >= s.Close {
		return fmt.Errorf("opening time %s must precede closing time %s", s.Open, s.Close)
	}
	if int(s.Close-s.Open)%s.SlotMinutes != 0 {
		return fmt.Errorf("slot size %dm does not tile the %s-%s window", s.SlotMinutes, s.Open, s.Close)
	}
	if s.TurnMinutes%s.SlotMinutes != 0 {
		return fmt.Errorf("turn %dm is not a multiple of slot size %dm", s.TurnMinutes, s.SlotMinutes)
	}
	return nil
}

// SlotsForDate returns the ordered start times a reservation may use
// on the given date.  The walk begins at opening time, steps by the
// slot granularity, and keeps every start whose occupied span still
// ends at or before closing time.  The grid has no day-of-week
// variation, so the date parameter only documents the query; it is
// retained for interface symmetry with the per-date occupancy cache.
func (s Schedule) SlotsForDate(date string) []TimeOfDay {
	_ = date
	slots := make([]TimeOfDay, 0, int(s.Close-s.Open)/s.SlotMinutes+1)
	for cur := s.Open; int(cur)+s.TurnMinutes <= int(s.Close); cur += TimeOfDay(s.SlotMinutes) {
		slots = append(slots, cur)
	}
	return slots
}

// SpanSlots expands a start time into every grid slot its occupied
// span [start, start+turn) covers.  Callers decide what to do with
// slots that fall outside the valid grid; the occupancy builder skips
// them, the fit check rejects them.
func (s Schedule) SpanSlots(start TimeOfDay) []TimeOfDay {
	n := s.TurnMinutes / s.SlotMinutes
	span := make([]TimeOfDay, 0, n)
	for i := 0; i < n; i++ {
		span = append(span, start+TimeOfDay(i*s.SlotMinutes))
	}
	return span
}
