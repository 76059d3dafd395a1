package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catalogsync/internal/models"
	"catalogsync/internal/protocol"
	"catalogsync/internal/repositories"
)

// ModificationReader is the read side of the modification tracker.
type ModificationReader interface {
	AttributeTimestamps(ctx context.Context) (map[int64]time.Time, error)
	GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error)
}

// ListingService serves the provider's read-only catalog views.
type ListingService interface {
	ListAttributes(ctx context.Context, modifiedSince string) ([]*models.AttributeDefinition, error)
	GetAttribute(ctx context.Context, slug string) (*models.AttributeDefinition, error)
	ListTerms(ctx context.Context, attributeSlug, modifiedSince string) ([]*models.AttributeTerm, error)
	GetTermImageURL(ctx context.Context, term *models.AttributeTerm) (string, error)
}

type listingService struct {
	attributeRepo repositories.AttributeRepository
	termRepo      repositories.TermRepository
	assetRepo     repositories.ImageAssetRepository
	stamps        ModificationReader
	storage       StorageService
	logger        *slog.Logger
}

func NewListingService(attributeRepo repositories.AttributeRepository, termRepo repositories.TermRepository, assetRepo repositories.ImageAssetRepository, stamps ModificationReader, storage StorageService, logger *slog.Logger) ListingService {
	return &listingService{
		attributeRepo: attributeRepo,
		termRepo:      termRepo,
		assetRepo:     assetRepo,
		stamps:        stamps,
		storage:       storage,
		logger:        logger,
	}
}

// includeSince applies the modified_since rule: strictly after the cursor,
// and never an entity without a stamp.
func includeSince(stamp, since *time.Time) bool {
	if since == nil {
		return true
	}
	if stamp == nil {
		return false
	}
	return stamp.After(*since)
}

func (s *listingService) ListAttributes(ctx context.Context, modifiedSince string) ([]*models.AttributeDefinition, error) {
	since, err := protocol.ParseModifiedSince(modifiedSince)
	if err != nil {
		return nil, err
	}

	attrs, err := s.attributeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	stamps, err := s.stamps.AttributeTimestamps(ctx)
	if err != nil {
		return nil, fmt.Errorf("read attribute timestamps: %w", err)
	}

	result := make([]*models.AttributeDefinition, 0, len(attrs))
	for _, attr := range attrs {
		attr.ModifiedAt = nil
		if at, ok := stamps[attr.ID]; ok {
			attr.ModifiedAt = &at
		}
		if !includeSince(attr.ModifiedAt, since) {
			continue
		}
		result = append(result, attr)
	}
	return result, nil
}

func (s *listingService) GetAttribute(ctx context.Context, slug string) (*models.AttributeDefinition, error) {
	attr, err := s.attributeRepo.GetBySlug(ctx, models.StripTaxonomyPrefix(slug))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAttributeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attribute %s: %w", slug, err)
	}

	attr.ModifiedAt, err = s.stamps.GetAttributeModifiedAt(ctx, attr.ID)
	if err != nil {
		return nil, fmt.Errorf("read attribute timestamp: %w", err)
	}
	return attr, nil
}

func (s *listingService) ListTerms(ctx context.Context, attributeSlug, modifiedSince string) ([]*models.AttributeTerm, error) {
	if !strings.HasPrefix(attributeSlug, models.TaxonomyPrefix) {
		return nil, ErrInvalidTaxonomy
	}
	since, err := protocol.ParseModifiedSince(modifiedSince)
	if err != nil {
		return nil, err
	}

	attr, err := s.attributeRepo.GetBySlug(ctx, attributeSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidTaxonomy
	}
	if err != nil {
		return nil, fmt.Errorf("resolve taxonomy %s: %w", attributeSlug, err)
	}

	terms, err := s.termRepo.ListByAttribute(ctx, attr.ID)
	if err != nil {
		return nil, fmt.Errorf("list terms for %s: %w", attributeSlug, err)
	}

	result := make([]*models.AttributeTerm, 0, len(terms))
	for _, term := range terms {
		if !includeSince(term.ModifiedAt, since) {
			continue
		}
		imageURL, err := s.GetTermImageURL(ctx, term)
		if err != nil {
			s.logger.Warn("failed to resolve swatch image", "term_id", term.ID, "error", err)
		}
		term.SwatchImageURL = imageURL
		result = append(result, term)
	}
	return result, nil
}

// GetTermImageURL returns "" when the term has no linked image.
func (s *listingService) GetTermImageURL(ctx context.Context, term *models.AttributeTerm) (string, error) {
	if term.ThumbnailID == nil {
		return "", nil
	}
	asset, err := s.assetRepo.GetByID(ctx, *term.ThumbnailID)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.storage.ObjectURL(asset.ObjectKey), nil
}
