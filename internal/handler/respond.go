package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/logging"
	"github.com/iliyamo/stadium-booking/internal/middleware"
	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// respondError maps the repository error taxonomy onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondError(c echo.Context, err error) error {
	var ve *repository.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, errorBody{Error: "validation_failed", Message: ve.Reason, Field: ve.Field})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: "not_found"})
	case errors.Is(err, repository.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, errorBody{Error: "slot_unavailable", Message: "the slot is booked or locked"})
	case errors.Is(err, repository.ErrSlotAlreadyBooked):
		return c.JSON(http.StatusConflict, errorBody{Error: "slot_already_booked", Message: "another booking was accepted for this slot"})
	case errors.Is(err, repository.ErrSlotLocked):
		return c.JSON(http.StatusConflict, errorBody{Error: "slot_locked"})
	case errors.Is(err, repository.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrStale):
		return c.JSON(http.StatusConflict, errorBody{Error: "conflict", Message: err.Error()})
	}
	logging.Default().Error("request failed",
		"method", c.Request().Method, "route", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal_error"})
}

// actor returns the caller identity set by middleware.JWTAuth.
func actor(c echo.Context) model.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, repository.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// bind decodes the body and runs the struct validation tags.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return repository.Invalid("", "malformed request body")
	}
	return c.Validate(req)
}
