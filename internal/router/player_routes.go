package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/middleware"
	"github.com/iliyamo/stadium-booking/internal/model"
)

// RegisterPlayer mounts the PLAYER endpoints: booking requests and team
// management. Booking creation has its own tighter rate limit bucket.
func RegisterPlayer(e *echo.Echo, h Handlers, jwtSecret string, limit, bookingLimit echo.MiddlewareFunc) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePlayer),
		limit,
	)
	g.POST("/bookings", h.Bookings.Create, bookingLimit)
	g.GET("/my-bookings", h.Bookings.Mine)

	g.POST("/teams", h.Teams.Create)
	g.GET("/my-team", h.Teams.Mine)
	g.PATCH("/my-team", h.Teams.Update)
	g.POST("/my-team/members", h.Teams.AddMember)
	g.DELETE("/my-team/members/:id", h.Teams.RemoveMember)

	// Booking detail is visible to its player and to the stadium owner.
	e.GET("/v1/bookings/:id", h.Bookings.Get,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePlayer, model.RoleStadiumOwner),
	)
}
