package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
)

// Authorize allows the request when the principal holds at least one of
// allowed. It must run after Authenticate.
func Authorize(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return apperr.Unauthenticated("Authentication required")
			}
			if !p.HasAnyRole(allowed...) {
				current := p.Roles
				if current == nil {
					current = []string{}
				}
				return apperr.Forbidden("Insufficient permissions", map[string]any{
					"required": allowed,
					"current":  current,
				})
			}
			return next(c)
		}
	}
}
