package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/engine"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// ChatHandler implements the conversational endpoint used by the
// booking widget.  It is deliberately structured-first: the UI sends
// an explicit action with typed fields, and free text only triggers
// canned guidance.  There is no natural-language understanding and no
// fabricated availability; every answer comes from the engine.
//
// Sessions remember the caller's name, phone and last reservation
// reference so follow-up actions can omit them.
type ChatHandler struct {
	Res      *ReservationHandler
	Sessions *repository.SessionRepo
}

// NewChatHandler constructs a ChatHandler.  Both dependencies must be
// non-nil.
func NewChatHandler(res *ReservationHandler, sessions *repository.SessionRepo) *ChatHandler {
	if res == nil || sessions == nil {
		panic("nil dependency passed to NewChatHandler")
	}
	return &ChatHandler{Res: res, Sessions: sessions}
}

type chatRequest struct {
	SessionID string `json:"session_id"`

	// Free text message (optional); only used for canned guidance.
	Message string `json:"message"`

	// Structured fields, preferred by the UI.
	Action      string  `json:"action"` // availability | book | modify | cancel | menu
	Date        string  `json:"date"`   // YYYY-MM-DD
	Time        string  `json:"time"`   // HH:MM (24h)
	Guests      *int    `json:"guests"`
	Name        string  `json:"name"`
	Phone       *string `json:"phone"`
	Reference   string  `json:"reference"`
	MenuDetails bool    `json:"menu_details"`
}

type chatResponse struct {
	Reply             string             `json:"reply"`
	AvailableTimes    []string           `json:"available_times,omitempty"`
	ActiveReservation *model.Reservation `json:"active_reservation,omitempty"`
}

// Chat handles POST /v1/chat.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	ctx := c.Request().Context()
	sess := h.Sessions.Get(ctx, sid)
	text := strings.ToLower(strings.TrimSpace(req.Message))

	switch {
	case req.Action == "menu" || strings.Contains(text, "menu"):
		details := req.MenuDetails ||
			strings.Contains(text, "details") || strings.Contains(text, "description") || strings.Contains(text, "ingredients")
		return c.JSON(http.StatusOK, chatResponse{Reply: menuText(details)})

	case req.Action == "availability":
		return h.availability(c, req)

	case req.Action == "book":
		return h.book(c, sid, sess, req)

	case req.Action == "modify":
		return h.modify(c, sid, sess, req)

	case req.Action == "cancel":
		return h.cancel(c, sid, sess, req)
	}

	// Strict chat fallback: point the caller at the controls instead
	// of guessing intent.
	return c.JSON(http.StatusOK, chatResponse{Reply: fallbackReply(text)})
}

func (h *ChatHandler) availability(c echo.Context, req chatRequest) error {
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Select a date to check availability."})
	}
	if req.Guests == nil || *req.Guests <= 0 {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Select number of guests to check availability."})
	}
	times, err := h.Res.Engine.Availability(c.Request().Context(), date, *req.Guests)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}
	if len(times) == 0 {
		return c.JSON(http.StatusOK, chatResponse{
			Reply:          "No available times for the selected date and party size.",
			AvailableTimes: []string{},
		})
	}
	return c.JSON(http.StatusOK, chatResponse{
		Reply:          "Available times shown.",
		AvailableTimes: displayLabels(times),
	})
}

func (h *ChatHandler) book(c echo.Context, sid string, sess repository.Session, req chatRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = sess.Name
	}
	phone := req.Phone
	if phone == nil && sess.Phone != "" {
		p := sess.Phone
		phone = &p
	}
	if name == "" {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Enter a name to place the reservation."})
	}
	date, derr := parseDate(req.Date)
	start, terr := schedule.ParseClock(req.Time)
	if derr != nil || terr != nil || req.Guests == nil || *req.Guests <= 0 {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Select guests, date, and time to book."})
	}

	ctx := c.Request().Context()
	r, err := h.Res.Engine.Create(ctx, name, phone, *req.Guests, date, start)
	if err != nil {
		if errors.Is(err, engine.ErrCapacityConflict) {
			times, _ := h.Res.Engine.Availability(ctx, date, *req.Guests)
			return c.JSON(http.StatusOK, chatResponse{
				Reply:          "That time is no longer available. Please choose another available time.",
				AvailableTimes: displayLabels(times),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	h.Res.publish(queue.ActionBooked, r)

	if sess.Name == "" {
		sess.Name = name
	}
	if sess.Phone == "" && phone != nil {
		sess.Phone = *phone
	}
	sess.LastReservation = r.Reference
	h.Sessions.Put(ctx, sid, sess)

	return c.JSON(http.StatusOK, chatResponse{
		Reply:             reservationSummary(r, "Reservation confirmed."),
		ActiveReservation: r,
	})
}

func (h *ChatHandler) modify(c echo.Context, sid string, sess repository.Session, req chatRequest) error {
	ref := strings.ToUpper(strings.TrimSpace(req.Reference))
	if ref == "" {
		ref = sess.LastReservation
	}
	if ref == "" {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Provide a reservation reference to modify (e.g., R-XXXXXXXXXX)."})
	}
	ctx := c.Request().Context()
	cur, err := h.Res.Engine.Get(ctx, ref)
	if err != nil {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Reservation not found. Check the reference and try again."})
	}

	// Fields not supplied keep the reservation's current values.
	ch := engine.Change{}
	date := cur.Date
	if d, err := parseDate(req.Date); err == nil {
		ch.Date = &d
		date = d
	}
	if t, err := schedule.ParseClock(req.Time); err == nil {
		ch.Start = &t
	}
	guests := cur.PartySize
	if req.Guests != nil && *req.Guests > 0 {
		ch.PartySize = req.Guests
		guests = *req.Guests
	}

	r, err := h.Res.Engine.Modify(ctx, ref, ch)
	if err != nil {
		if errors.Is(err, engine.ErrCapacityConflict) {
			times, _ := h.Res.Engine.Availability(ctx, date, guests)
			return c.JSON(http.StatusOK, chatResponse{
				Reply:          "That update is not available. Please choose another available time.",
				AvailableTimes: displayLabels(times),
			})
		}
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusOK, chatResponse{Reply: "Reservation not found. Check the reference and try again."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to modify reservation"})
	}
	h.Res.publish(queue.ActionModified, r)

	sess.LastReservation = r.Reference
	h.Sessions.Put(ctx, sid, sess)

	return c.JSON(http.StatusOK, chatResponse{
		Reply:             reservationSummary(r, "Reservation updated."),
		ActiveReservation: r,
	})
}

func (h *ChatHandler) cancel(c echo.Context, sid string, sess repository.Session, req chatRequest) error {
	ref := strings.ToUpper(strings.TrimSpace(req.Reference))
	if ref == "" {
		ref = sess.LastReservation
	}
	if ref == "" {
		return c.JSON(http.StatusOK, chatResponse{Reply: "Provide a reservation reference to cancel (e.g., R-XXXXXXXXXX)."})
	}
	ctx := c.Request().Context()
	r, err := h.Res.Engine.Cancel(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusOK, chatResponse{Reply: "Reservation not found. Check the reference and try again."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	h.Res.publish(queue.ActionCancelled, r)

	if sess.LastReservation == ref {
		sess.LastReservation = ""
		h.Sessions.Put(ctx, sid, sess)
	}
	return c.JSON(http.StatusOK, chatResponse{
		Reply: fmt.Sprintf("Reservation cancelled.\n- Reference: %s", r.Reference),
	})
}

// reservationSummary renders the confirmation block shown in the chat
// panel, with the guest-facing 12-hour time label.
func reservationSummary(r *model.Reservation, heading string) string {
	return fmt.Sprintf("%s\n- Reference: %s\n- Name: %s\n- Guests: %d\n- Date: %s\n- Time: %s",
		heading, r.Reference, r.Name, r.PartySize, r.Date, utils.Format12Hour(r.Start))
}

func fallbackReply(text string) string {
	switch {
	case containsAny(text, "hi", "hello", "hey"):
		return "How can I help? Use the controls to check availability, book, modify, cancel, or view the menu."
	case strings.Contains(text, "available") || strings.Contains(text, "availability"):
		return "Use 'Check availability' with guests and date to see available times."
	case containsAny(text, "book", "reserve", "reservation"):
		return "Use 'Book' with guests, date, time, and name to confirm a reservation."
	case containsAny(text, "change", "modify", "reschedule", "update"):
		return "Use 'Modify' with your reservation reference and the new details."
	case strings.Contains(text, "cancel"):
		return "Use 'Cancel' with your reservation reference."
	}
	return "I can help with table availability, reservations (book/modify/cancel), or the menu. Please use the controls."
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
