package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuth(t *testing.T) *AuthHandler {
	t.Helper()
	h, err := NewAuthHandler("test-secret", 15, "frontdesk", "s3cret", 4)
	if err != nil {
		t.Fatalf("NewAuthHandler: %v", err)
	}
	return h
}

func TestLoginIssuesStaffToken(t *testing.T) {
	h := newTestAuth(t)

	rec, body := call(t, http.MethodPost, "/v1/staff/login",
		`{"username":"frontdesk","password":"s3cret"}`, nil, h.Login)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	raw, _ := body["access_token"].(string)
	if raw == "" {
		t.Fatal("no access_token in response")
	}

	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"] != "frontdesk" {
		t.Errorf("sub = %v, want frontdesk", claims["sub"])
	}
	if claims["role"] != RoleStaff {
		t.Errorf("role = %v, want %s", claims["role"], RoleStaff)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestAuth(t)

	cases := []string{
		`{"username":"frontdesk","password":"wrong"}`,
		`{"username":"stranger","password":"s3cret"}`,
	}
	for _, body := range cases {
		rec, out := call(t, http.MethodPost, "/v1/staff/login", body, nil, h.Login)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("body %s: status = %d, want 401", body, rec.Code)
		}
		// Same message either way; no username probing.
		if out["error"] != "invalid credentials" {
			t.Errorf("body %s: error = %v", body, out["error"])
		}
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	h := newTestAuth(t)
	rec, _ := call(t, http.MethodPost, "/v1/staff/login", `{"username":"frontdesk"}`, nil, h.Login)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStaffOverviewEndpoints(t *testing.T) {
	eng := newTestEngine(t)
	s := NewStaffHandler(eng)

	if _, err := eng.Create(context.Background(), "Ada", nil, 6, testDate, mustParseClock(t, "19:00")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, body := call(t, http.MethodGet, "/v1/staff/reservations?date="+testDate, "", nil, s.ListReservations)
	if rec.Code != http.StatusOK {
		t.Fatalf("ListReservations status = %d", rec.Code)
	}
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}

	rec, body = call(t, http.MethodGet, "/v1/staff/occupancy?date="+testDate, "", nil, s.Occupancy)
	if rec.Code != http.StatusOK {
		t.Fatalf("Occupancy status = %d", rec.Code)
	}
	if body["total_seats"] != float64(40) {
		t.Errorf("total_seats = %v, want 40", body["total_seats"])
	}
	slots, _ := body["slots"].(map[string]any)
	if slots["19:00"] != float64(6) || slots["19:30"] != float64(6) || slots["20:00"] != float64(6) {
		t.Errorf("occupied span wrong: %v", slots)
	}
	if slots["12:00"] != float64(0) {
		t.Errorf("idle slot = %v, want 0", slots["12:00"])
	}

	rec, _ = call(t, http.MethodGet, "/v1/staff/occupancy", "", nil, s.Occupancy)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing date: status = %d, want 400", rec.Code)
	}
}
