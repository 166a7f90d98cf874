// Package queue defines message payloads exchanged over the message broker.
package queue

// Reservation lifecycle actions carried in ReservationEvent.Action.
const (
	ActionBooked    = "booked"
	ActionModified  = "modified"
	ActionCancelled = "cancelled"
)

// ReservationEvent is published after a reservation mutation commits.
// It contains enough information for downstream consumers to log,
// notify, or feed analytics without querying the reservation store.
type ReservationEvent struct {
	Action     string `json:"action"`
	Reference  string `json:"reference"`
	GuestName  string `json:"guest_name"`
	PartySize  int    `json:"party_size"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	OccurredAt string `json:"occurred_at"`
}
