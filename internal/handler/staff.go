package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/engine"
)

// StaffHandler exposes the daily overview endpoints used by the floor
// staff: every reservation on a date and the per-slot occupancy those
// reservations commit.  Routes using it are wrapped in JWTAuth and
// RequireRole(STAFF) by the router.
type StaffHandler struct {
	Engine *engine.Engine
}

// NewStaffHandler constructs a StaffHandler.  The engine must be
// non-nil.
func NewStaffHandler(e *engine.Engine) *StaffHandler {
	if e == nil {
		panic("nil engine passed to NewStaffHandler")
	}
	return &StaffHandler{Engine: e}
}

// ListReservations handles GET /v1/staff/reservations?date=.  It
// returns every reservation on the date ordered by start time.
func (h *StaffHandler) ListReservations(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing date, want YYYY-MM-DD"})
	}
	items, err := h.Engine.Reservations(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  date,
		"items": items,
	})
}

// Occupancy handles GET /v1/staff/occupancy?date=.  It returns the
// committed seats per slot alongside the configured capacity so the
// front desk can see how full each part of the evening is.
func (h *StaffHandler) Occupancy(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing date, want YYYY-MM-DD"})
	}
	snap, err := h.Engine.Occupancy(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occupancy"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":        date,
		"total_seats": h.Engine.Schedule().TotalSeats,
		"slots":       snap,
	})
}
