package utils

import (
	"fmt"

	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

// Format12Hour renders a grid time as a guest-facing 12-hour label,
// e.g. 20:30 -> "8:30 PM".  The engine itself only speaks 24-hour
// HH:MM; presentation belongs to the handler layer.
func Format12Hour(t schedule.TimeOfDay) string {
	h := t.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	hh := h % 12
	if hh == 0 {
		hh = 12
	}
	return fmt.Sprintf("%d:%02d %s", hh, t.Minute(), suffix)
}
