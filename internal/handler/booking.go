package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
	"github.com/iliyamo/stadium-booking/internal/service"
)

// BookingHandler exposes the booking ledger to players and the
// coordinator's decisions and slot toggles to owners.
type BookingHandler struct {
	Ledger *service.BookingLedger
	Coord  *service.Coordinator
}

func NewBookingHandler(ledger *service.BookingLedger, coord *service.Coordinator) *BookingHandler {
	return &BookingHandler{Ledger: ledger, Coord: coord}
}

// createBookingReq names the slot either by id or by stadium, date and
// start time. The second form creates the slot on first use.
type createBookingReq struct {
	SlotID    uint64  `json:"slot_id" validate:"required_without=StadiumID"`
	StadiumID uint64  `json:"stadium_id" validate:"required_without=SlotID"`
	Date      string  `json:"date" validate:"required_with=StadiumID"`
	StartTime string  `json:"start_time" validate:"required_with=StadiumID"`
	TeamID    *uint64 `json:"team_id"`
	Message   *string `json:"message" validate:"omitempty,max=500"`
}

type slotStatusReq struct {
	Status string `json:"status" validate:"required,oneof=available locked"`
}

// Create: POST /v1/bookings. 201 for a new request, 200 when the player
// already had a pending request for the slot.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx := c.Request().Context()

	var (
		b       model.Booking
		created bool
		err     error
	)
	if req.SlotID != 0 {
		b, created, err = h.Ledger.Create(ctx, actor(c), service.BookingRequest{SlotID: req.SlotID, TeamID: req.TeamID, Message: req.Message})
	} else {
		b, created, err = h.Ledger.CreateAt(ctx, actor(c), req.StadiumID, req.Date, req.StartTime, req.TeamID, req.Message)
	}
	if err != nil {
		return respondError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, b)
}

// Get: GET /v1/bookings/:id, visible to the requester and the stadium owner.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.Ledger.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Mine: GET /v1/my-bookings
func (h *BookingHandler) Mine(c echo.Context) error {
	list, err := h.Ledger.ListByPlayer(c.Request().Context(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// OwnerList: GET /v1/owner/bookings?status=
func (h *BookingHandler) OwnerList(c echo.Context) error {
	list, err := h.Ledger.ListByStadiumOwner(c.Request().Context(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	if s := c.QueryParam("status"); s != "" {
		kept := list[:0]
		for _, v := range list {
			if string(v.Status) == s {
				kept = append(kept, v)
			}
		}
		list = kept
	}
	return c.JSON(http.StatusOK, items(list))
}

func (h *BookingHandler) decide(d model.Decision) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := paramID(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		b, err := h.Ledger.Resolve(c.Request().Context(), actor(c), id, d)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

// Accept: POST /v1/owner/bookings/:id/accept
func (h *BookingHandler) Accept(c echo.Context) error { return h.decide(model.DecisionAccept)(c) }

// Reject: POST /v1/owner/bookings/:id/reject
func (h *BookingHandler) Reject(c echo.Context) error { return h.decide(model.DecisionReject)(c) }

// Cancel: POST /v1/owner/bookings/:id/cancel withdraws an accepted booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.Ledger.Cancel(c.Request().Context(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// SetSlotStatus: PUT /v1/owner/stadiums/:id/slots/:date/:start
func (h *BookingHandler) SetSlotStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req slotStatusReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	status := model.SlotStatus(req.Status)
	if status != model.SlotAvailable && status != model.SlotLocked {
		return respondError(c, repository.Invalid("status", "must be available or locked"))
	}
	change, err := h.Coord.SetSlotStatus(c.Request().Context(), actor(c), id, c.Param("date"), c.Param("start"), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, change)
}
