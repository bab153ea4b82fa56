package auth

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/match-service/internal/domain"
	apperrors "github.com/spec-kit/match-service/pkg/util/errorutil"
)

// Authorize returns FORBIDDEN unless role is one of allowed. An empty
// allowed list admits every role.
func Authorize(role domain.Role, allowed ...domain.Role) error {
	if len(allowed) == 0 || slices.Contains(allowed, role) {
		return nil
	}
	return apperrors.NewForbidden("insufficient role")
}

// RequireRoles adapts Authorize to a fiber route guard.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := Authorize(principal.Role, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}
