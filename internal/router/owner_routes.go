package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/middleware"
	"github.com/iliyamo/stadium-booking/internal/model"
)

// RegisterOwner mounts the STADIUM_OWNER endpoints under /v1/owner.
// Ownership of the addressed stadium or booking is checked in the service
// layer.
func RegisterOwner(e *echo.Echo, h Handlers, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStadiumOwner),
		limit,
	)
	g.GET("/stadiums", h.Stadiums.Mine)
	g.POST("/stadiums", h.Stadiums.Create)
	g.PUT("/stadiums/:id", h.Stadiums.Update)
	g.DELETE("/stadiums/:id", h.Stadiums.Delete)
	g.PUT("/stadiums/:id/slots/:date/:start", h.Bookings.SetSlotStatus)

	g.GET("/bookings", h.Bookings.OwnerList)
	g.POST("/bookings/:id/accept", h.Bookings.Accept)
	g.POST("/bookings/:id/reject", h.Bookings.Reject)
	g.POST("/bookings/:id/cancel", h.Bookings.Cancel)

	g.GET("/analytics", h.Analytics.Summary)
}
