package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/model"
)

const identityKey = "identity"

// IdentityFrom returns the identity JWTAuth stored on the context. ok is
// false on routes that do not run JWTAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// userID is the rate limit key component for the caller, "anon" for guests.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
