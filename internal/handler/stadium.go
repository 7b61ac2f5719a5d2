package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/service"
)

// StadiumHandler serves the public catalogue and the owner's stadium
// management endpoints.
type StadiumHandler struct {
	Stadiums *service.StadiumService
	Slots    *service.SlotStore
}

func NewStadiumHandler(stadiums *service.StadiumService, slots *service.SlotStore) *StadiumHandler {
	return &StadiumHandler{Stadiums: stadiums, Slots: slots}
}

type stadiumReq struct {
	Name              string   `json:"name" validate:"required,max=200"`
	Location          string   `json:"location" validate:"required,max=255"`
	PricePerHourCents int64    `json:"price_per_hour_cents" validate:"required,gt=0"`
	Description       string   `json:"description" validate:"max=2000"`
	Images            []string `json:"images" validate:"max=10,dive,url"`
}

func (r stadiumReq) input() service.StadiumInput {
	return service.StadiumInput{
		Name:              r.Name,
		Location:          r.Location,
		PricePerHourCents: r.PricePerHourCents,
		Description:       r.Description,
		Images:            r.Images,
	}
}

// items wraps a list so empty results encode as [] rather than null.
func items[T any](list []T) echo.Map {
	if list == nil {
		list = []T{}
	}
	return echo.Map{"items": list}
}

// List: GET /v1/stadiums?q=&limit=&offset=
func (h *StadiumHandler) List(c echo.Context) error {
	list, err := h.Stadiums.List(c.Request().Context(), c.QueryParam("q"), queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Get: GET /v1/stadiums/:id
func (h *StadiumHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	st, err := h.Stadiums.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Day: GET /v1/stadiums/:id/slots?date=YYYY-MM-DD. Without a date the
// current UTC day is shown.
func (h *StadiumHandler) Day(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	date := c.QueryParam("date")
	if date == "" {
		date = nowUTC().Format(model.DateLayout)
	}
	slots, err := h.Slots.Day(c.Request().Context(), id, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stadium_id": id, "date": date, "slots": slots})
}

// Create: POST /v1/owner/stadiums
func (h *StadiumHandler) Create(c echo.Context) error {
	var req stadiumReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	st, err := h.Stadiums.Create(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// Update: PUT /v1/owner/stadiums/:id
func (h *StadiumHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req stadiumReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	st, err := h.Stadiums.Update(c.Request().Context(), actor(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Delete: DELETE /v1/owner/stadiums/:id
func (h *StadiumHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Stadiums.Delete(c.Request().Context(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Mine: GET /v1/owner/stadiums
func (h *StadiumHandler) Mine(c echo.Context) error {
	list, err := h.Stadiums.ListMine(c.Request().Context(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}
