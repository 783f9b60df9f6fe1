package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// RequireAdmin ensures the session principal is an administrator. The admin flag is
// read from the freshly loaded user row, not from the session claims.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
