package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"catalogsync/internal/common"
	"catalogsync/internal/models"
	"catalogsync/internal/protocol"
	"catalogsync/internal/services"

	"github.com/labstack/echo/v4"
)

// SyncHandlers is the client's admin surface over the sync engine.
type SyncHandlers struct {
	sync   services.SyncService
	logger *slog.Logger
}

func NewSyncHandlers(sync services.SyncService, logger *slog.Logger) *SyncHandlers {
	return &SyncHandlers{sync: sync, logger: logger}
}

type TriggerSyncRequest struct {
	AttributeSlug string `json:"attribute_slug"`
}

type TriggerSyncResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Summary *models.SyncSummary `json:"summary"`
}

// TriggerSync godoc
// @Summary      Pull attribute definitions and terms from the provider
// @Description  Syncs every attribute, or only attribute_slug when given.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  TriggerSyncRequest  false  "optional single attribute"
// @Success      200  {object}  TriggerSyncResponse
// @Failure      409  {object}  common.ErrorResponse
// @Failure      500  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/sync/attributes [post]
func (h *SyncHandlers) TriggerSync(c echo.Context) error {
	var req TriggerSyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	// The run outlives a dropped admin connection.
	ctx := context.WithoutCancel(c.Request().Context())
	summary, err := h.sync.SyncAttributesAndTerms(ctx, models.StripTaxonomyPrefix(req.AttributeSlug))
	if err != nil {
		if errors.Is(err, services.ErrSyncInProgress) {
			return common.SendConflictError(c, err.Error())
		}
		h.logger.Error("sync run aborted", "attribute_slug", req.AttributeSlug, "error", err)
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, TriggerSyncResponse{
		Success: true,
		Message: summary.Message,
		Summary: summary,
	})
}

// ProviderAttributes godoc
// @Summary      List the provider's attribute definitions
// @Tags         sync
// @Produce      json
// @Success      200  {array}   protocol.Attribute
// @Failure      500  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/sync/provider-attributes [get]
func (h *SyncHandlers) ProviderAttributes(c echo.Context) error {
	attrs, err := h.sync.FetchProviderAttributes(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to fetch provider attributes", "error", err)
		return common.SendServerError(c, err.Error())
	}

	out := make([]protocol.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, protocol.FromAttribute(attr))
	}
	return c.JSON(http.StatusOK, out)
}
