package model

import (
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

// Reservation records one party's booking against the shared seating
// pool.  The reservation store owns the record; the availability
// engine reads it but never retains independent copies.
//
// Fields:
//  Reference – opaque unique identifier safe for external display.
//  Name      – guest name the booking was made under.
//  Phone     – optional contact number (nullable).
//  PartySize – number of guests (positive).
//  Date      – calendar date in ISO 8601 YYYY-MM-DD form.
//  Start     – start time on the schedule grid.
//  CreatedAt – creation timestamp in UTC.
//
// The occupied span of a reservation is [Start, Start+turn), derived
// by the schedule rather than stored here.
type Reservation struct {
	Reference string             `json:"reference"`
	Name      string             `json:"name"`
	Phone     *string            `json:"phone,omitempty"`
	PartySize int                `json:"party_size"`
	Date      string             `json:"date"`
	Start     schedule.TimeOfDay `json:"time"`
	CreatedAt time.Time          `json:"created_at"`
}

// Clone returns an independent copy so callers outside the store can
// hold a snapshot without aliasing the stored record.
func (r *Reservation) Clone() *Reservation {
	cp := *r
	if r.Phone != nil {
		p := *r.Phone
		cp.Phone = &p
	}
	return &cp
}
