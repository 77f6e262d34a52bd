package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, the protected /v1/me
// probe behind JWT + role middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access only mints a new
	// access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout works without the JWT middleware: a refresh token in the body
	// always suffices to close a session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("STAFF", "GUEST"))
	auth.GET("/me", a.Me)

	// Kept for clients that call the old top-level path.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated room-browsing endpoints.
// cache is the Redis response-cache middleware; pass nil middleware (the
// pass-through returned when Redis is absent) to serve uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/rooms", p.ListRooms)
	g.GET("/rooms/:id", p.GetRoom)
	g.GET("/rooms/:id/availability", p.CheckAvailability)
}

// RegisterGuest registers the guest portal under /v1.  All routes require a
// valid JWT; staff pass too so the front desk can act on behalf of guests.
func RegisterGuest(e *echo.Echo, h *handler.GuestHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("GUEST", "STAFF"),
	)
	g.POST("/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.MyReservations)
	g.GET("/reservations/:ref", h.GetReservation)
	g.POST("/reservations/:ref/cancel", h.CancelReservation)
	g.GET("/reservations/:ref/bill", h.GetBill)
}

// RegisterStaff registers the front-desk and inventory endpoints under
// /v1/staff.  STAFF role required throughout.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, r *handler.RoomAdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STAFF"),
	)

	g.POST("/reservations", h.CreateWalkIn)
	g.GET("/reservations/:ref", h.Get)
	g.POST("/reservations/:ref/confirm", h.Confirm)
	g.POST("/reservations/:ref/check-in", h.CheckIn)
	g.POST("/reservations/:ref/check-out", h.CheckOut)
	g.POST("/reservations/:ref/cancel", h.Cancel)
	g.POST("/reservations/:ref/charges", h.AddCharge)
	g.PUT("/reservations/:ref/payment", h.SetPayment)
	g.GET("/reservations/:ref/bill", h.GetBill)

	g.POST("/rooms", r.CreateRoom)
	g.PUT("/rooms/:id", r.UpdateRoom)
	g.GET("/rooms/:id/reservations", h.ListForRoom)
}
