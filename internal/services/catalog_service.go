package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"strings"

	"catalogsync/internal/models"
	"catalogsync/internal/repositories"

	"github.com/google/uuid"
)

// ChangeListener is notified synchronously after a catalog mutation
// succeeds. Implementations must not fail the mutation.
type ChangeListener interface {
	OnAttributeChanged(ctx context.Context, attributeID int64)
	OnTermChanged(ctx context.Context, termID int64)
}

// CatalogService owns catalog mutation on the provider.
type CatalogService interface {
	CreateAttribute(ctx context.Context, attr *models.AttributeDefinition) error
	UpdateAttribute(ctx context.Context, id int64, patch AttributePatch) (*models.AttributeDefinition, error)
	CreateTerm(ctx context.Context, attributeSlug string, term *models.AttributeTerm) error
	UpdateTerm(ctx context.Context, id int64, patch TermPatch) (*models.AttributeTerm, error)
	SetTermImage(ctx context.Context, termID int64, filename string, reader io.Reader, size int64, contentType string) (*models.ImageAsset, error)
	ClearTermImage(ctx context.Context, termID int64) error
}

// AttributePatch holds the fields of an attribute update. Nil fields are kept.
type AttributePatch struct {
	Name        *string
	Slug        *string
	Type        *string
	OrderBy     *string
	HasArchives *bool
}

// TermPatch holds the fields of a term update. Nil fields are kept.
type TermPatch struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *string
	Suffix      *string
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type catalogService struct {
	attributeRepo repositories.AttributeRepository
	termRepo      repositories.TermRepository
	assetRepo     repositories.ImageAssetRepository
	storage       StorageService
	listener      ChangeListener
	logger        *slog.Logger
}

func NewCatalogService(attributeRepo repositories.AttributeRepository, termRepo repositories.TermRepository, assetRepo repositories.ImageAssetRepository, storage StorageService, listener ChangeListener, logger *slog.Logger) CatalogService {
	return &catalogService{
		attributeRepo: attributeRepo,
		termRepo:      termRepo,
		assetRepo:     assetRepo,
		storage:       storage,
		listener:      listener,
		logger:        logger,
	}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var validTypes = map[models.AttributeType]bool{
	models.AttributeTypeSelect: true,
	models.AttributeTypeText:   true,
	models.AttributeTypeColor:  true,
	models.AttributeTypeImage:  true,
	models.AttributeTypeLabel:  true,
}

var validOrderBy = map[models.AttributeOrderBy]bool{
	models.OrderByMenuOrder: true,
	models.OrderByName:      true,
	models.OrderByNameNum:   true,
	models.OrderByID:        true,
}

func validateAttribute(attr *models.AttributeDefinition) error {
	attr.Name = strings.TrimSpace(attr.Name)
	if attr.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	base := strings.ToLower(strings.TrimSpace(attr.BaseSlug()))
	if !slugPattern.MatchString(base) || len(base) > 28 {
		return &ValidationError{Field: "slug", Message: "slug must be lowercase letters, digits, '-' or '_' and at most 28 characters"}
	}
	attr.Slug = models.TaxonomyName(base)

	if attr.Type == "" {
		attr.Type = models.AttributeTypeSelect
	}
	if !validTypes[attr.Type] {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unsupported type %q", attr.Type)}
	}
	if attr.OrderBy == "" {
		attr.OrderBy = models.OrderByMenuOrder
	}
	if !validOrderBy[attr.OrderBy] {
		return &ValidationError{Field: "order_by", Message: fmt.Sprintf("unsupported order_by %q", attr.OrderBy)}
	}
	return nil
}

func validateTerm(term *models.AttributeTerm) error {
	term.Name = strings.TrimSpace(term.Name)
	if term.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	term.Slug = strings.ToLower(strings.TrimSpace(term.Slug))
	if term.Slug == "" {
		term.Slug = slugify(term.Name)
	}
	if !slugPattern.MatchString(term.Slug) {
		return &ValidationError{Field: "slug", Message: "slug must be lowercase letters, digits, '-' or '_'"}
	}
	return nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *catalogService) CreateAttribute(ctx context.Context, attr *models.AttributeDefinition) error {
	if err := validateAttribute(attr); err != nil {
		return err
	}
	if err := s.attributeRepo.Create(ctx, attr); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return &ValidationError{Field: "slug", Message: fmt.Sprintf("attribute %s already exists", attr.Slug)}
		}
		return fmt.Errorf("create attribute: %w", err)
	}
	s.listener.OnAttributeChanged(ctx, attr.ID)
	s.logger.Info("attribute created", "attribute_id", attr.ID, "slug", attr.Slug)
	return nil
}

func (s *catalogService) UpdateAttribute(ctx context.Context, id int64, patch AttributePatch) (*models.AttributeDefinition, error) {
	attr, err := s.attributeRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAttributeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attribute: %w", err)
	}

	setIf(&attr.Name, patch.Name)
	setIf(&attr.Slug, patch.Slug)
	if patch.Type != nil {
		attr.Type = models.AttributeType(*patch.Type)
	}
	if patch.OrderBy != nil {
		attr.OrderBy = models.AttributeOrderBy(*patch.OrderBy)
	}
	if patch.HasArchives != nil {
		attr.HasArchives = *patch.HasArchives
	}
	if err := validateAttribute(attr); err != nil {
		return nil, err
	}

	if err := s.attributeRepo.Update(ctx, attr); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrAttributeNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, &ValidationError{Field: "slug", Message: fmt.Sprintf("attribute %s already exists", attr.Slug)}
		}
		return nil, fmt.Errorf("update attribute: %w", err)
	}
	s.listener.OnAttributeChanged(ctx, attr.ID)
	s.logger.Info("attribute updated", "attribute_id", attr.ID, "slug", attr.Slug)
	return attr, nil
}

func (s *catalogService) CreateTerm(ctx context.Context, attributeSlug string, term *models.AttributeTerm) error {
	if err := validateTerm(term); err != nil {
		return err
	}
	attr, err := s.attributeRepo.GetBySlug(ctx, attributeSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrAttributeNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve attribute %s: %w", attributeSlug, err)
	}

	term.AttributeID = attr.ID
	term.AttributeSlug = attr.Slug
	if err := s.termRepo.Create(ctx, term); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return &ValidationError{Field: "slug", Message: fmt.Sprintf("term %s already exists in %s", term.Slug, attr.Slug)}
		}
		return fmt.Errorf("create term: %w", err)
	}
	s.listener.OnTermChanged(ctx, term.ID)
	s.logger.Info("term created", "term_id", term.ID, "attribute", attr.Slug, "slug", term.Slug)
	return nil
}

// UpdateTerm writes name, slug, description and display metadata.
func (s *catalogService) UpdateTerm(ctx context.Context, id int64, patch TermPatch) (*models.AttributeTerm, error) {
	term, err := s.termRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTermNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get term: %w", err)
	}

	setIf(&term.Name, patch.Name)
	setIf(&term.Slug, patch.Slug)
	setIf(&term.Description, patch.Description)
	setIf(&term.Price, patch.Price)
	setIf(&term.Suffix, patch.Suffix)
	if err := validateTerm(term); err != nil {
		return nil, err
	}

	if err := s.termRepo.Update(ctx, term); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrTermNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, &ValidationError{Field: "slug", Message: fmt.Sprintf("term %s already exists", term.Slug)}
		}
		return nil, fmt.Errorf("update term: %w", err)
	}
	if err := s.termRepo.UpdateMeta(ctx, term.ID, models.TermMeta{Price: term.Price, Suffix: term.Suffix}); err != nil {
		return nil, fmt.Errorf("update term meta: %w", err)
	}
	s.listener.OnTermChanged(ctx, term.ID)
	s.logger.Info("term updated", "term_id", term.ID, "slug", term.Slug)
	return term, nil
}

// SetTermImage uploads a swatch image and links it to the term.
func (s *catalogService) SetTermImage(ctx context.Context, termID int64, filename string, reader io.Reader, size int64, contentType string) (*models.ImageAsset, error) {
	term, err := s.termRepo.GetByID(ctx, termID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTermNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get term: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, &ValidationError{Field: "image", Message: "file must be an image"}
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = extensionFor(mediaType)
	}
	objectKey := fmt.Sprintf("swatches/%s%s", uuid.NewString(), ext)

	if err := s.storage.PutObject(ctx, objectKey, reader, size, mediaType); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	asset := &models.ImageAsset{
		ObjectKey:   objectKey,
		ContentType: mediaType,
		SizeBytes:   size,
		Title:       term.Name,
	}
	if _, err := s.assetRepo.Create(ctx, asset); err != nil {
		s.removeOrphan(ctx, objectKey)
		return nil, fmt.Errorf("record image asset: %w", err)
	}
	if err := s.termRepo.SetThumbnail(ctx, termID, &asset.ID); err != nil {
		return nil, fmt.Errorf("link image: %w", err)
	}

	s.listener.OnTermChanged(ctx, termID)
	s.logger.Info("term image set", "term_id", termID, "asset_id", asset.ID, "object_key", objectKey)
	return asset, nil
}

func (s *catalogService) ClearTermImage(ctx context.Context, termID int64) error {
	if err := s.termRepo.SetThumbnail(ctx, termID, nil); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTermNotFound
		}
		return fmt.Errorf("unlink image: %w", err)
	}
	s.listener.OnTermChanged(ctx, termID)
	return nil
}

func (s *catalogService) removeOrphan(ctx context.Context, objectKey string) {
	if err := s.storage.RemoveObject(ctx, objectKey); err != nil {
		s.logger.Warn("failed to remove orphaned object", "object_key", objectKey, "error", err)
	}
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
