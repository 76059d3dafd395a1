package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"catalogsync/internal/common"

	"github.com/labstack/echo/v4"
)

// AuditMiddleware writes an audit record for every mutating request on the
// routes it guards, attributed to the authenticated principal.
type AuditMiddleware struct {
	logger *slog.Logger
}

func NewAuditMiddleware(logger *slog.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.With("component", "audit")}
}

// AuditMutations records POST, PUT, PATCH and DELETE requests once they
// complete. Reads pass through untouched.
func (m *AuditMiddleware) AuditMutations() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isMutation(c.Request().Method) {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			subject := "anonymous"
			if p, ok := common.GetPrincipalFromContext(c.Request().Context()); ok {
				subject = p.Subject
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			attrs := []any{
				"subject", subject,
				"action", c.Request().Method + " " + c.Path(),
				"uri", c.Request().RequestURI,
				"status", status,
				"duration", time.Since(start),
			}
			for _, name := range c.ParamNames() {
				attrs = append(attrs, "param_"+name, c.Param(name))
			}
			if err != nil || status >= http.StatusBadRequest {
				m.logger.Warn("catalog mutation failed", attrs...)
			} else {
				m.logger.Info("catalog mutation", attrs...)
			}
			return err
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
