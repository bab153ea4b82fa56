package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/api/dto"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
	"github.com/spec-kit/match-service/internal/service"
	apperrors "github.com/spec-kit/match-service/pkg/util/errorutil"
)

// MatchesHandler exposes the match lifecycle.
type MatchesHandler struct {
	matches *service.MatchService
}

// NewMatchesHandler constructs handler.
func NewMatchesHandler(matches *service.MatchService) *MatchesHandler {
	return &MatchesHandler{matches: matches}
}

// List GET /matches.
func (h *MatchesHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	matches, err := h.matches.ListMatches(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	items := make([]dto.MatchResponse, 0, len(matches))
	for i := range matches {
		items = append(items, matchResponse(&matches[i]))
	}
	return c.JSON(fiber.Map{"data": items, "count": len(items)})
}

// Suggestions GET /matches/suggestions.
func (h *MatchesHandler) Suggestions(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ranked, err := h.matches.SuggestMatches(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	items := make([]dto.SuggestionResponse, 0, len(ranked))
	for i := range ranked {
		items = append(items, suggestionResponse(&ranked[i]))
	}
	return c.JSON(fiber.Map{"data": items, "count": len(items)})
}

// Create POST /matches.
func (h *MatchesHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	match, err := h.matches.CreateMatch(c.UserContext(), *principal, req.MatchWith)
	if err != nil {
		if existing, ok := service.DuplicateOf(err); ok {
			return apperrors.NewDuplicateMatch(matchResponse(existing))
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": matchResponse(match)})
}

// Get GET /matches/:id.
func (h *MatchesHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	match, err := h.matches.GetMatch(c.UserContext(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": matchResponse(match)})
}

// UpdateStatus PUT /matches/:id.
func (h *MatchesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateMatchStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	match, err := h.matches.TransitionStatus(c.UserContext(), principal.ID, c.Params("id"), domain.MatchStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": matchResponse(match)})
}

// Delete DELETE /matches/:id.
func (h *MatchesHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.matches.DeleteMatch(c.UserContext(), principal.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": c.Params("id")}})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}
