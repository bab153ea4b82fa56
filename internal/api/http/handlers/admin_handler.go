package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/service"
)

// AdminHandler exposes account management for admins.
type AdminHandler struct {
	directory *service.DirectoryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(directory *service.DirectoryService) *AdminHandler {
	return &AdminHandler{directory: directory}
}

// RemoveParticipant DELETE /admin/participants/:id.
func (h *AdminHandler) RemoveParticipant(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	purged, err := h.directory.RemoveParticipant(c.UserContext(), *principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "matches_removed": purged}})
}
