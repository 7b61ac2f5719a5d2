package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-booking/internal/service"
)

type AnalyticsHandler struct {
	Analytics *service.AnalyticsService
}

func NewAnalyticsHandler(a *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: a}
}

// Summary: GET /v1/owner/analytics
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	sum, err := h.Analytics.Summary(c.Request().Context(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
