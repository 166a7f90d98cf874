package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// RoleStaff is the role claim carried by staff access tokens.
const RoleStaff = "STAFF"

// AuthHandler issues short-lived access tokens for restaurant staff.
// There is no user table: a single staff identity is configured
// through the environment and its password is bcrypt-hashed at
// startup, so the plain text never outlives process boot.
type AuthHandler struct {
	JWTSecret    string
	AccessTTLMin int
	StaffUser    string
	StaffHash    string // bcrypt hash of the staff password
}

// NewAuthHandler hashes the configured staff password and returns the
// handler.  Hashing failure means a misconfigured bcrypt cost and is
// reported to the caller.
func NewAuthHandler(jwtSecret string, accessTTLMin int, staffUser, staffPassword string, bcryptCost int) (*AuthHandler, error) {
	hash, err := utils.HashPassword(staffPassword, bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{
		JWTSecret:    jwtSecret,
		AccessTTLMin: accessTTLMin,
		StaffUser:    staffUser,
		StaffHash:    hash,
	}, nil
}

// Login handles POST /v1/staff/login.  On valid credentials it
// returns a signed access token and its expiry; otherwise 401.  The
// response never distinguishes a wrong username from a wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	user := strings.TrimSpace(body.Username)
	if user == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}
	if user != h.StaffUser || !utils.VerifyPassword(h.StaffHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, user, RoleStaff, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}
