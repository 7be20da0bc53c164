package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/namann16/support-tickets/internal/screens"
)

// ScreensHandler serves per-tenant dashboard screen definitions.
type ScreensHandler struct {
	registry *screens.Registry
}

// NewScreensHandler constructs handler.
func NewScreensHandler(registry *screens.Registry) *ScreensHandler {
	return &ScreensHandler{registry: registry}
}

// List handles GET /screens.
func (h *ScreensHandler) List(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	defs := h.registry.ForTenant(principal.User.CustomerID)
	return respond(c, http.StatusOK, defs, "Fetched screens successfully")
}
