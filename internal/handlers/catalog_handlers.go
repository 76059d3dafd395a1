package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"catalogsync/internal/common"
	"catalogsync/internal/models"
	"catalogsync/internal/protocol"
	"catalogsync/internal/services"

	"github.com/labstack/echo/v4"
)

// CatalogHandlers exposes provider catalog mutation. Every successful
// mutation stamps the Modification Tracker through the catalog service.
type CatalogHandlers struct {
	catalog services.CatalogService
	listing services.ListingService
	logger  *slog.Logger
}

func NewCatalogHandlers(catalog services.CatalogService, listing services.ListingService, logger *slog.Logger) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog, listing: listing, logger: logger}
}

type CreateAttributeRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Type        string `json:"type"`
	OrderBy     string `json:"order_by"`
	HasArchives bool   `json:"has_archives"`
}

type UpdateAttributeRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Type        *string `json:"type"`
	OrderBy     *string `json:"order_by"`
	HasArchives *bool   `json:"has_archives"`
}

type CreateTermRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Suffix      string `json:"suffix"`
}

type UpdateTermRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Suffix      *string `json:"suffix"`
}

// CreateAttribute godoc
// @Summary      Create an attribute definition
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body  CreateAttributeRequest  true  "attribute"
// @Success      201  {object}  protocol.Attribute
// @Failure      400  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/catalog/attributes [post]
func (h *CatalogHandlers) CreateAttribute(c echo.Context) error {
	var req CreateAttributeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	attr := &models.AttributeDefinition{
		Name:        req.Name,
		Slug:        req.Slug,
		Type:        models.AttributeType(req.Type),
		OrderBy:     models.AttributeOrderBy(req.OrderBy),
		HasArchives: req.HasArchives,
	}
	if err := h.catalog.CreateAttribute(c.Request().Context(), attr); err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(http.StatusCreated, protocol.FromAttribute(attr))
}

// UpdateAttribute godoc
// @Summary      Update an attribute definition; omitted fields are kept
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true  "attribute id"
// @Param        body  body  UpdateAttributeRequest  true  "fields to change"
// @Success      200  {object}  protocol.Attribute
// @Failure      400  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/catalog/attributes/{id} [put]
func (h *CatalogHandlers) UpdateAttribute(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	var req UpdateAttributeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	attr, err := h.catalog.UpdateAttribute(c.Request().Context(), id, services.AttributePatch{
		Name:        req.Name,
		Slug:        req.Slug,
		Type:        req.Type,
		OrderBy:     req.OrderBy,
		HasArchives: req.HasArchives,
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(http.StatusOK, protocol.FromAttribute(attr))
}

// CreateTerm godoc
// @Summary      Create a term in an attribute
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        attribute_slug  path  string             true  "prefixed taxonomy slug"
// @Param        body            body  CreateTermRequest  true  "term"
// @Success      201  {object}  protocol.Term
// @Failure      400  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/catalog/attributes/{attribute_slug}/terms [post]
func (h *CatalogHandlers) CreateTerm(c echo.Context) error {
	var req CreateTermRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	term := &models.AttributeTerm{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Suffix:      req.Suffix,
	}
	if err := h.catalog.CreateTerm(c.Request().Context(), c.Param("attribute_slug"), term); err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(http.StatusCreated, protocol.FromTerm(term, ""))
}

// UpdateTerm godoc
// @Summary      Update a term; omitted fields are kept
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "term id"
// @Param        body  body  UpdateTermRequest  true  "fields to change"
// @Success      200  {object}  protocol.Term
// @Failure      400  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/catalog/terms/{id} [put]
func (h *CatalogHandlers) UpdateTerm(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	var req UpdateTermRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	ctx := c.Request().Context()
	term, err := h.catalog.UpdateTerm(ctx, id, services.TermPatch{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Suffix:      req.Suffix,
	})
	if err != nil {
		return h.mutationError(c, err)
	}

	imageURL, err := h.listing.GetTermImageURL(ctx, term)
	if err != nil {
		h.logger.Warn("failed to resolve swatch image", "term_id", term.ID, "error", err)
	}
	return c.JSON(http.StatusOK, protocol.FromTerm(term, imageURL))
}

// SetTermImage godoc
// @Summary      Upload the swatch image of a term
// @Tags         catalog
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      int   true  "term id"
// @Param        image  formData  file  true  "swatch image"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/catalog/terms/{id}/image [put]
func (h *CatalogHandlers) SetTermImage(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image", "image file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	ctx := c.Request().Context()
	asset, err := h.catalog.SetTermImage(ctx, id, fileHeader.Filename, file, fileHeader.Size, fileHeader.Header.Get(echo.HeaderContentType))
	if err != nil {
		return h.mutationError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"term_id":      id,
		"thumbnail_id": asset.ID,
		"asset":        asset,
	})
}

// ClearTermImage godoc
// @Summary      Remove the swatch image of a term
// @Tags         catalog
// @Param        id  path  int  true  "term id"
// @Success      204
// @Failure      404  {object}  common.ErrorResponse
// @Security     BasicAuth
// @Router       /api/catalog-sync/v1/catalog/terms/{id}/image [delete]
func (h *CatalogHandlers) ClearTermImage(c echo.Context) error {
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	if err := h.catalog.ClearTermImage(c.Request().Context(), id); err != nil {
		return h.mutationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandlers) mutationError(c echo.Context, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return common.SendValidationError(c, verr.Field, verr.Message)
	case errors.Is(err, services.ErrAttributeNotFound):
		return common.SendNotFoundError(c, "Attribute definition", nil)
	case errors.Is(err, services.ErrTermNotFound):
		return common.SendNotFoundError(c, "Term", nil)
	}

	h.logger.Error("catalog mutation failed", "path", c.Path(), "error", err)
	return common.SendServerError(c, "Failed to update catalog")
}
