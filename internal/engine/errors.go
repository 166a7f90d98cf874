package engine

import "errors"

// ErrCapacityConflict is returned when a requested span would exceed
// total seating at some slot, or when the requested start time is not
// on the schedule grid (the effect for callers is identical: that
// time is unavailable).  It is a routine outcome, not a fault; the
// caller should re-query availability and offer alternatives.
var ErrCapacityConflict = errors.New("requested time cannot seat the party")
