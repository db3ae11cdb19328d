package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness probe.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// SupportHandler serves the static contact card shown on the support page.
type SupportHandler struct {
	Email          string
	EmergencyPhone string
}

// Contact returns the emergency line and support address.
func (h *SupportHandler) Contact(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"emergency_phone": h.EmergencyPhone,
		"email":           h.Email,
		"hours":           "24/7",
	})
}
