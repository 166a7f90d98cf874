package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers and monitoring systems to verify that
// the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest-facing endpoints: availability,
// reservation CRUD, menu and the chat widget.  The write endpoints and
// the chat endpoint sit behind the Redis token-bucket rate limiter;
// rdb may be nil, in which case the limiter is a no-op.
func RegisterPublic(e *echo.Echo, res *handler.ReservationHandler, chat *handler.ChatHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(rlCfg, rdb)

	// Reads are cheap (cached occupancy) and stay unthrottled.
	e.GET("/v1/availability", res.CheckAvailability)
	e.GET("/v1/reservations/:reference", res.Get)
	e.GET("/v1/menu", handler.Menu)

	// Mutations and chat go through the limiter.
	e.POST("/v1/reservations", res.Book, limiter)
	e.PATCH("/v1/reservations/:reference", res.Modify, limiter)
	e.DELETE("/v1/reservations/:reference", res.Cancel, limiter)
	e.POST("/v1/chat", chat.Chat, limiter)
}

// RegisterStaff registers authentication and the staff-only overview
// endpoints.  Login is open; everything else under /v1/staff requires
// a valid access token with the STAFF role.
func RegisterStaff(e *echo.Echo, a *handler.AuthHandler, s *handler.StaffHandler, jwtSecret string) {
	e.POST("/v1/staff/login", a.Login)

	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleStaff),
	)
	g.GET("/reservations", s.ListReservations)
	g.GET("/occupancy", s.Occupancy)
}
