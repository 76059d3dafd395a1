package common

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catalogsync/internal/models"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", message, details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, code, message string, details map[string]string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(code, message, details))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string, details map[string]string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), details))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// SendForbiddenError sends a forbidden error response
func SendForbiddenError(c echo.Context, capability string) error {
	return c.JSON(http.StatusForbidden, CreateErrorResponse("FORBIDDEN",
		"Sorry, you are not allowed to access this resource",
		map[string]string{"capability": capability}))
}

// SendConflictError sends a conflict error response
func SendConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, CreateErrorResponse("CONFLICT", message, nil))
}

// ParseIDParam reads a positive integer path parameter.
func ParseIDParam(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipalFromContext extracts the authenticated caller from the request context
func GetPrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*models.Principal)
	return p, ok && p != nil
}
