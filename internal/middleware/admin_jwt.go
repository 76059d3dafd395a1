package middleware

import (
	"errors"
	"log/slog"
	"time"

	"catalogsync/internal/common"
	"catalogsync/internal/models"
	"catalogsync/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type AdminJWTConfig struct {
	// Secret verifies HS256 tokens. Ignored when JWKSURL is set.
	Secret  string
	JWKSURL string
	Logger  *slog.Logger
}

// AdminJWT validates admin bearer tokens and stores their principal on the
// request context. The returned stop func ends JWKS refreshing.
func AdminJWT(cfg AdminJWTConfig) (echo.MiddlewareFunc, func(), error) {
	jwtConfig := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.AdminClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*services.AdminClaims)
			if !ok {
				return
			}
			principal := &models.Principal{Subject: claims.Subject, Capabilities: claims.Capabilities}
			c.SetRequest(c.Request().WithContext(common.WithPrincipal(c.Request().Context(), principal)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			cfg.Logger.Debug("admin token rejected", "error", err)
			return common.SendUnauthorizedError(c)
		},
	}

	stop := func() {}
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				cfg.Logger.Error("jwks refresh failed", "error", err)
			},
		})
		if err != nil {
			return nil, nil, err
		}
		jwtConfig.KeyFunc = jwks.Keyfunc
		stop = jwks.EndBackground
	case cfg.Secret != "":
		jwtConfig.SigningKey = []byte(cfg.Secret)
	default:
		return nil, nil, errors.New("admin auth requires a JWT secret or a JWKS url")
	}

	return echojwt.WithConfig(jwtConfig), stop, nil
}
