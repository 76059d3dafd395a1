package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"catalogsync/internal/caching"
	"catalogsync/internal/common"
	"catalogsync/internal/services"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	maxFailedLogins    = 10
	failedLoginsWindow = 15 * time.Minute
)

// BasicAuth authenticates Transfer Protocol callers with a username and
// application secret and stores the principal on the request context.
// Failed attempts are counted per client IP when limiter is set.
func BasicAuth(auth services.AuthService, limiter caching.CacheService, logger *slog.Logger) echo.MiddlewareFunc {
	return echoMiddleware.BasicAuthWithConfig(echoMiddleware.BasicAuthConfig{
		Realm: "catalog-sync",
		Validator: func(username, secret string, c echo.Context) (bool, error) {
			ctx := c.Request().Context()

			principal, err := auth.Authenticate(ctx, username, secret)
			if errors.Is(err, services.ErrInvalidCredentials) {
				logger.Warn("basic auth rejected", "username", username, "ip", c.RealIP())
				if throttled(ctx, limiter, c.RealIP(), logger) {
					return false, echo.NewHTTPError(http.StatusTooManyRequests, "too many failed authentication attempts")
				}
				return false, nil
			}
			if err != nil {
				logger.Error("basic auth lookup failed", "username", username, "error", err)
				return false, err
			}

			c.SetRequest(c.Request().WithContext(common.WithPrincipal(ctx, principal)))
			return true, nil
		},
	})
}

func throttled(ctx context.Context, limiter caching.CacheService, ip string, logger *slog.Logger) bool {
	if limiter == nil {
		return false
	}
	limited, err := limiter.IsRateLimited(ctx, "auth:"+ip, maxFailedLogins, failedLoginsWindow)
	if err != nil {
		logger.Warn("auth rate limiter unavailable", "error", err)
		return false
	}
	return limited
}
