package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/api/dto"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/service"
	apperrors "github.com/spec-kit/match-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	directory *service.DirectoryService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(directory *service.DirectoryService) *AuthHandler {
	return &AuthHandler{directory: directory}
}

// RegisterStartup handles POST /auth/startups/register.
func (h *AuthHandler) RegisterStartup(c *fiber.Ctx) error {
	var req dto.RegisterStartupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.directory.RegisterStartup(c.UserContext(), service.RegisterStartupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Industry: req.Industry,
		Stage:    req.Stage,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// RegisterIncubator handles POST /auth/incubators/register.
func (h *AuthHandler) RegisterIncubator(c *fiber.Ctx) error {
	var req dto.RegisterIncubatorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.directory.RegisterIncubator(c.UserContext(), service.RegisterIncubatorInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		FocusAreas:     req.FocusAreas,
		PreferredStage: req.PreferredStage,
		Website:        req.Website,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	session, err := h.directory.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	participant, err := h.directory.GetProfile(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": participantResponse(participant)})
}
