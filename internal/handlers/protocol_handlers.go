package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"catalogsync/internal/common"
	"catalogsync/internal/protocol"
	"catalogsync/internal/services"

	"github.com/labstack/echo/v4"
)

// ProtocolHandlers serves the provider side of the Transfer Protocol.
type ProtocolHandlers struct {
	listing services.ListingService
	logger  *slog.Logger
}

func NewProtocolHandlers(listing services.ListingService, logger *slog.Logger) *ProtocolHandlers {
	return &ProtocolHandlers{listing: listing, logger: logger}
}

// ListAttributes godoc
// @Summary      List attribute definitions
// @Tags         transfer-protocol
// @Produce      json
// @Param        modified_since  query  string  false  "only entities modified strictly after this UTC instant (YYYY-MM-DDTHH:MM:SS[Z])"
// @Success      200  {array}   protocol.Attribute
// @Failure      400  {object}  common.ErrorResponse
// @Failure      401  {object}  common.ErrorResponse
// @Failure      403  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/attributes [get]
func (h *ProtocolHandlers) ListAttributes(c echo.Context) error {
	attrs, err := h.listing.ListAttributes(c.Request().Context(), c.QueryParam("modified_since"))
	if err != nil {
		return h.listingError(c, err, "Error fetching attribute definitions")
	}

	out := make([]protocol.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, protocol.FromAttribute(attr))
	}
	return c.JSON(http.StatusOK, out)
}

// GetAttribute godoc
// @Summary      Get one attribute definition
// @Tags         transfer-protocol
// @Produce      json
// @Param        slug  path  string  true  "attribute slug, with or without the pa_ prefix"
// @Success      200  {object}  protocol.Attribute
// @Failure      404  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/attributes/{slug} [get]
func (h *ProtocolHandlers) GetAttribute(c echo.Context) error {
	attr, err := h.listing.GetAttribute(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return h.listingError(c, err, "Error fetching attribute definition")
	}
	return c.JSON(http.StatusOK, protocol.FromAttribute(attr))
}

// ListTerms godoc
// @Summary      List the terms of an attribute
// @Tags         transfer-protocol
// @Produce      json
// @Param        attribute_slug  path   string  true   "prefixed taxonomy slug, e.g. pa_color"
// @Param        modified_since  query  string  false  "only terms modified strictly after this UTC instant"
// @Success      200  {array}   protocol.Term
// @Failure      400  {object}  common.ErrorResponse
// @Failure      500  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/attributes/{attribute_slug}/terms [get]
func (h *ProtocolHandlers) ListTerms(c echo.Context) error {
	terms, err := h.listing.ListTerms(c.Request().Context(), c.Param("attribute_slug"), c.QueryParam("modified_since"))
	if err != nil {
		return h.listingError(c, err, "Error fetching terms for the attribute")
	}

	out := make([]protocol.Term, 0, len(terms))
	for _, term := range terms {
		out = append(out, protocol.FromTerm(term, term.SwatchImageURL))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProtocolHandlers) listingError(c echo.Context, err error, serverMessage string) error {
	switch {
	case errors.Is(err, protocol.ErrInvalidModifiedSince):
		return common.SendClientError(c, "INVALID_PARAM", protocol.ErrInvalidModifiedSince.Error(),
			map[string]string{"param": "modified_since"})
	case errors.Is(err, services.ErrInvalidTaxonomy):
		return common.SendClientError(c, "INVALID_ATTRIBUTE_TAXONOMY", "Invalid attribute taxonomy slug provided",
			map[string]string{"slug": c.Param("attribute_slug")})
	case errors.Is(err, services.ErrAttributeNotFound):
		return common.SendNotFoundError(c, "Attribute definition", map[string]string{"slug": c.Param("slug")})
	}

	h.logger.Error(serverMessage, "path", c.Path(), "error", err)
	return common.SendServerError(c, serverMessage)
}
