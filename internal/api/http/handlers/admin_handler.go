package handlers

import "github.com/gofiber/fiber/v2"

// AdminHandler exposes operator views over gateway state.
type AdminHandler struct {
	revocations RevocationCounter
}

// NewAdminHandler constructs handler.
func NewAdminHandler(revocations RevocationCounter) *AdminHandler {
	return &AdminHandler{revocations: revocations}
}

// Revocations handles GET /admin/revocations.
func (h *AdminHandler) Revocations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"revokedTokens": h.revocations.Len()})
}
