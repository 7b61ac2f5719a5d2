package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/logging"
	"github.com/iliyamo/stadium-booking/internal/metrics"
)

// RequestLogger logs one line per request and records the HTTP metrics.
// Requests that fail with an error are handed to echo's error handler first
// so the logged status is the one the client sees.
func RequestLogger(log *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req := c.Request()
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(req.Method, route, strconv.Itoa(status), elapsed.Seconds())

			args := []any{
				"method", req.Method,
				"route", route,
				"path", req.URL.Path,
				"status", status,
				"latency_ms", elapsed.Milliseconds(),
				"ip", c.RealIP(),
			}
			if id, ok := IdentityFrom(c); ok {
				args = append(args, "user_id", id.UserID, "role", string(id.Role))
			}
			switch {
			case status >= 500:
				log.Error("request", append(args, "err", err)...)
			case status >= 400:
				log.Warn("request", args...)
			default:
				log.Info("request", args...)
			}
			return nil
		}
	}
}
