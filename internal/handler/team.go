package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/service"
)

// TeamHandler serves captains managing their roster and the public team
// search.
type TeamHandler struct {
	Teams *service.TeamService
}

func NewTeamHandler(teams *service.TeamService) *TeamHandler {
	return &TeamHandler{Teams: teams}
}

type teamReq struct {
	Name              string `json:"name" validate:"required,max=120"`
	Level             *uint8 `json:"level" validate:"omitempty,min=1,max=10"`
	LookingForPlayers bool   `json:"looking_for_players"`
	CaptainName       string `json:"captain_name" validate:"max=120"`
}

func (r teamReq) input() service.TeamInput {
	return service.TeamInput{Name: r.Name, Level: r.Level, LookingForPlayers: r.LookingForPlayers, CaptainName: r.CaptainName}
}

type memberReq struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Age      *uint8  `json:"age" validate:"omitempty,min=5,max=99"`
	Position *string `json:"position" validate:"omitempty,max=40"`
	Level    *uint8  `json:"level" validate:"omitempty,min=1,max=10"`
}

// Find: GET /v1/teams?q=
func (h *TeamHandler) Find(c echo.Context) error {
	list, err := h.Teams.Find(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Create: POST /v1/teams
func (h *TeamHandler) Create(c echo.Context) error {
	var req teamReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	t, err := h.Teams.Create(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Mine: GET /v1/my-team
func (h *TeamHandler) Mine(c echo.Context) error {
	t, err := h.Teams.Mine(c.Request().Context(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Update: PATCH /v1/my-team
func (h *TeamHandler) Update(c echo.Context) error {
	var req teamReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	t, err := h.Teams.Update(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// AddMember: POST /v1/my-team/members
func (h *TeamHandler) AddMember(c echo.Context) error {
	var req memberReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	m, err := h.Teams.AddMember(c.Request().Context(), actor(c), service.MemberInput{
		Name: req.Name, Age: req.Age, Position: req.Position, Level: req.Level,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// RemoveMember: DELETE /v1/my-team/members/:id
func (h *TeamHandler) RemoveMember(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Teams.RemoveMember(c.Request().Context(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
