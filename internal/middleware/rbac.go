package middleware

import (
	"catalogsync/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireCapability rejects callers whose principal lacks capability.
func RequireCapability(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := common.GetPrincipalFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			if !principal.HasCapability(capability) {
				return common.SendForbiddenError(c, capability)
			}
			return next(c)
		}
	}
}
