// Package repository defines the authoritative reservation store and
// the error values shared across its implementations. The sentinel
// values let higher layers such as the engine and handlers distinguish
// between failure scenarios without inspecting error strings. For
// example, ErrReservationNotFound indicates that a reference does not
// exist for modify/cancel/get and should surface as an HTTP 404.
package repository

import "errors"

// ErrReservationNotFound is returned when no reservation exists for
// the given reference. Handlers translate this into a 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDuplicateReference is returned when an insert collides with an
// existing reference. With random references this is effectively
// unreachable, but the store reports it rather than overwriting.
var ErrDuplicateReference = errors.New("duplicate reservation reference")
