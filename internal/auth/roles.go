package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/namann16/support-tickets/internal/domain"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
// Roles outside the closed enum are rejected outright.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}

		role := principal.User.Role
		switch role {
		case domain.RoleAdmin, domain.RoleAgent, domain.RoleCustomer:
		default:
			return apperrors.NewForbidden("access denied")
		}

		for _, candidate := range allowed {
			if role == candidate {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("access denied")
	}
}
