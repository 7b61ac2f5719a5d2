// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stadium-booking/internal/config"
	"github.com/iliyamo/stadium-booking/internal/handler"
	"github.com/iliyamo/stadium-booking/internal/logging"
	"github.com/iliyamo/stadium-booking/internal/middleware"
	"github.com/iliyamo/stadium-booking/internal/model"
)

// Handlers groups every endpoint implementation the router mounts.
type Handlers struct {
	Health    echo.HandlerFunc
	Auth      *handler.AuthHandler
	Stadiums  *handler.StadiumHandler
	Bookings  *handler.BookingHandler
	Teams     *handler.TeamHandler
	Analytics *handler.AnalyticsHandler
}

// Options carries the cross-cutting settings for the middleware chain.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Logger    *logging.Logger
}

// New builds the echo instance with the sonic serializer, validator and
// every route registered.
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.SonicSerializer{}
	e.Validator = handler.NewValidator()
	if opts.Logger != nil {
		e.Use(middleware.RequestLogger(opts.Logger))
	}
	Register(e, h, opts)
	return e
}

// Register mounts all routes on e.
func Register(e *echo.Echo, h Handlers, opts Options) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limit := middleware.NewTokenBucket(opts.RateLimit, opts.Redis)
	RegisterAuth(e, h.Auth, opts.JWTSecret, limit)
	RegisterPublic(e, h, middleware.NewRedisCache(opts.Cache, opts.Redis), limit)
	RegisterPlayer(e, h, opts.JWTSecret, limit, middleware.NewTokenBucket(opts.RateLimit.Booking(), opts.Redis))
	RegisterOwner(e, h, opts.JWTSecret, limit)
}

// RegisterAuth mounts the token endpoints under /v1/auth and the profile
// endpoint /v1/me for any authenticated role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePlayer, model.RoleStadiumOwner),
	)
}

// RegisterPublic mounts the guest-visible catalogue. Responses are cached
// in Redis for a short TTL.
func RegisterPublic(e *echo.Echo, h Handlers, cache, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", limit, cache)
	g.GET("/stadiums", h.Stadiums.List)
	g.GET("/stadiums/:id", h.Stadiums.Get)
	g.GET("/stadiums/:id/slots", h.Stadiums.Day)
	g.GET("/teams", h.Teams.Find)
}
