package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/engine"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
	queue_publisher "github.com/iliyamo/restaurant-table-reservation/internal/service"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// ReservationHandler exposes the availability engine over HTTP.  All
// input validation (dates, times, party sizes) happens here, before
// the engine is touched; the engine only ever sees well-formed values.
// Business outcomes (capacity conflict, not found) map to 409 and 404,
// never to 5xx.
type ReservationHandler struct {
	Engine       *engine.Engine
	QueueEnabled bool // publish reservation events after successful commits
}

// NewReservationHandler constructs a ReservationHandler.  The engine
// must be non-nil.
func NewReservationHandler(e *engine.Engine, queueEnabled bool) *ReservationHandler {
	if e == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: e, QueueEnabled: queueEnabled}
}

// CheckAvailability handles GET /v1/availability?date=&guests=.  It
// returns every start time that can seat the party, in chronological
// order, both as 24-hour values and as guest-facing labels.  An empty
// list is a normal answer.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing date, want YYYY-MM-DD"})
	}
	guests, err := parseGuests(c.QueryParam("guests"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing guests"})
	}
	times, err := h.Engine.Availability(c.Request().Context(), date, guests)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":    date,
		"guests":  guests,
		"times":   clockStrings(times),
		"display": displayLabels(times),
	})
}

// Book handles POST /v1/reservations.  On success it returns 201 with
// the created record.  On a capacity conflict it returns 409 along
// with the currently available alternatives for the same date and
// party size, so clients can re-offer without a second round trip.
func (h *ReservationHandler) Book(c echo.Context) error {
	var body struct {
		Name   string  `json:"name"`
		Phone  *string `json:"phone"`
		Guests int     `json:"guests"`
		Date   string  `json:"date"`
		Time   string  `json:"time"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	date, err := parseDate(body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing date, want YYYY-MM-DD"})
	}
	start, err := schedule.ParseClock(body.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing time, want HH:MM"})
	}
	if body.Guests <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be positive"})
	}

	ctx := c.Request().Context()
	r, err := h.Engine.Create(ctx, name, body.Phone, body.Guests, date, start)
	if err != nil {
		if errors.Is(err, engine.ErrCapacityConflict) {
			return h.conflict(c, date, body.Guests)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	h.publish(queue.ActionBooked, r)
	return c.JSON(http.StatusCreated, echo.Map{"item": r})
}

// Modify handles PATCH /v1/reservations/:reference.  Omitted fields
// keep their current values; the update is all-or-nothing.  A conflict
// leaves the reservation untouched and returns alternatives for the
// prospective date and party size.
func (h *ReservationHandler) Modify(c echo.Context) error {
	ref := strings.ToUpper(strings.TrimSpace(c.Param("reference")))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation reference is required"})
	}
	var body struct {
		Guests *int    `json:"guests"`
		Date   *string `json:"date"`
		Time   *string `json:"time"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ch := engine.Change{PartySize: body.Guests}
	if body.Guests != nil && *body.Guests <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be positive"})
	}
	if body.Date != nil {
		d, err := parseDate(*body.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
		}
		ch.Date = &d
	}
	if body.Time != nil {
		t, err := schedule.ParseClock(*body.Time)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time, want HH:MM"})
		}
		ch.Start = &t
	}

	ctx := c.Request().Context()
	r, err := h.Engine.Modify(ctx, ref, ch)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, engine.ErrCapacityConflict) {
			// Offer alternatives for the state the caller asked for.
			cur, gerr := h.Engine.Get(ctx, ref)
			if gerr != nil {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
			}
			date := cur.Date
			if ch.Date != nil {
				date = *ch.Date
			}
			guests := cur.PartySize
			if ch.PartySize != nil {
				guests = *ch.PartySize
			}
			return h.conflict(c, date, guests)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to modify reservation"})
	}
	h.publish(queue.ActionModified, r)
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// Cancel handles DELETE /v1/reservations/:reference.  It returns the
// removed record so clients can show a final confirmation.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	ref := strings.ToUpper(strings.TrimSpace(c.Param("reference")))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation reference is required"})
	}
	r, err := h.Engine.Cancel(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	h.publish(queue.ActionCancelled, r)
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// Get handles GET /v1/reservations/:reference, a pure lookup.
func (h *ReservationHandler) Get(c echo.Context) error {
	ref := strings.ToUpper(strings.TrimSpace(c.Param("reference")))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation reference is required"})
	}
	r, err := h.Engine.Get(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// conflict answers a rejected booking or modification with 409 and the
// alternatives that would currently fit.
func (h *ReservationHandler) conflict(c echo.Context, date string, guests int) error {
	times, err := h.Engine.Availability(c.Request().Context(), date, guests)
	if err != nil {
		times = nil
	}
	return c.JSON(http.StatusConflict, echo.Map{
		"error":           "requested time is not available",
		"available_times": clockStrings(times),
		"display":         displayLabels(times),
	})
}

// publish sends a reservation lifecycle event to the broker,
// best-effort: failures are already logged by the publisher and must
// never fail the request that committed the mutation.
func (h *ReservationHandler) publish(action string, r *model.Reservation) {
	if !h.QueueEnabled {
		return
	}
	ev := queue.ReservationEvent{
		Action:     action,
		Reference:  r.Reference,
		GuestName:  r.Name,
		PartySize:  r.PartySize,
		Date:       r.Date,
		Time:       r.Start.String(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := newPublishContext()
		defer cancel()
		if err := queue_publisher.PublishReservationEvent(ctx, ev); err != nil {
			log.Printf("handler: publish %s event for %s failed: %v", action, ev.Reference, err)
		}
	}()
}

// parseDate validates an ISO 8601 calendar date and returns it in
// canonical YYYY-MM-DD form.
func parseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

func parseGuests(s string) (int, error) {
	n, err := parsePositiveInt(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func clockStrings(times []schedule.TimeOfDay) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.String())
	}
	return out
}

func displayLabels(times []schedule.TimeOfDay) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, utils.Format12Hour(t))
	}
	return out
}
