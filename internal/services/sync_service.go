package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"catalogsync/internal/caching"
	"catalogsync/internal/models"
	"catalogsync/internal/protocol"
	"catalogsync/internal/repositories"

	"github.com/google/uuid"
)

const (
	syncLockName = "attribute-sync"
	syncLockTTL  = 30 * time.Minute
)

// ProviderClient is the Transfer Protocol client used by the sync engine.
type ProviderClient interface {
	Configured() bool
	ListAttributes(ctx context.Context, modifiedSince *time.Time) ([]protocol.Attribute, error)
	GetAttribute(ctx context.Context, slug string) (*protocol.Attribute, error)
	ListTerms(ctx context.Context, attributeSlug string, modifiedSince *time.Time) ([]protocol.Term, error)
}

// SyncService pulls attribute definitions and terms from a provider and
// upserts them into the local catalog.
type SyncService interface {
	// SyncAttributesAndTerms reconciles every provider attribute, or only
	// attributeSlug when it is non-empty. An error is returned only for
	// failures that stop the run before reconciliation starts; item
	// failures are counted in the summary.
	SyncAttributesAndTerms(ctx context.Context, attributeSlug string) (*models.SyncSummary, error)
	FetchProviderAttributes(ctx context.Context) ([]*models.AttributeDefinition, error)
}

type syncService struct {
	client        ProviderClient
	attributeRepo repositories.AttributeRepository
	termRepo      repositories.TermRepository
	linkRepo      repositories.SyncLinkRepository
	assets        AssetService
	cache         caching.CacheService
	logger        *slog.Logger
	now           func() time.Time

	mu sync.Mutex
}

func NewSyncService(client ProviderClient, attributeRepo repositories.AttributeRepository, termRepo repositories.TermRepository, linkRepo repositories.SyncLinkRepository, assets AssetService, cache caching.CacheService, logger *slog.Logger) SyncService {
	return &syncService{
		client:        client,
		attributeRepo: attributeRepo,
		termRepo:      termRepo,
		linkRepo:      linkRepo,
		assets:        assets,
		cache:         cache,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *syncService) FetchProviderAttributes(ctx context.Context) ([]*models.AttributeDefinition, error) {
	if !s.client.Configured() {
		return nil, ErrNotConfigured
	}
	remote, err := s.client.ListAttributes(ctx, nil)
	if err != nil {
		return nil, err
	}

	attrs := make([]*models.AttributeDefinition, 0, len(remote))
	for _, ra := range remote {
		attr, err := ra.ToModel()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (s *syncService) SyncAttributesAndTerms(ctx context.Context, attributeSlug string) (*models.SyncSummary, error) {
	if !s.client.Configured() {
		s.logger.Error(ErrNotConfigured.Error())
		return nil, ErrNotConfigured
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	summary := &models.SyncSummary{
		RunID:         uuid.New(),
		AttributeSlug: attributeSlug,
		StartedAt:     s.now().UTC(),
	}
	log := s.logger.With("run_id", summary.RunID)

	log.Info("fetching attribute definitions from provider", "attribute_slug", attributeSlug)
	remote, err := s.fetchAttributes(ctx, attributeSlug)
	if err != nil {
		log.Error("failed to fetch attributes from provider", "error", err)
		return nil, err
	}
	log.Info("processing provider attributes", "count", len(remote))

	local, err := s.localIndex(ctx)
	if err != nil {
		log.Error("failed to list local attributes", "error", err)
		return nil, err
	}

	for _, ra := range remote {
		s.syncAttribute(ctx, log, ra, local, summary)
	}

	summary.FinishedAt = s.now().UTC()
	summary.Compose()
	log.Info(summary.Message, "duration", summary.FinishedAt.Sub(summary.StartedAt))
	return summary, nil
}

// acquire takes the in-process run lock and, when a cache is configured,
// the shared lock. A cache outage falls back to the in-process lock alone.
func (s *syncService) acquire(ctx context.Context) (func(), error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	if s.cache == nil {
		return s.mu.Unlock, nil
	}

	releaseShared, acquired, err := s.cache.AcquireLock(ctx, syncLockName, syncLockTTL)
	if err != nil {
		s.logger.Warn("shared sync lock unavailable, continuing with local lock", "error", err)
		return s.mu.Unlock, nil
	}
	if !acquired {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}

	return func() {
		if err := releaseShared(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release shared sync lock", "error", err)
		}
		s.mu.Unlock()
	}, nil
}

func (s *syncService) fetchAttributes(ctx context.Context, attributeSlug string) ([]protocol.Attribute, error) {
	if attributeSlug == "" {
		remote, err := s.client.ListAttributes(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch attributes from provider: %w", err)
		}
		return remote, nil
	}

	attr, err := s.client.GetAttribute(ctx, models.TaxonomyName(attributeSlug))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch single attribute from provider: %w", err)
	}
	return []protocol.Attribute{*attr}, nil
}

func (s *syncService) localIndex(ctx context.Context) (map[string]*models.AttributeDefinition, error) {
	attrs, err := s.attributeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list local attributes: %w", err)
	}
	index := make(map[string]*models.AttributeDefinition, len(attrs))
	for _, attr := range attrs {
		index[attr.BaseSlug()] = attr
	}
	return index, nil
}

func (s *syncService) syncAttribute(ctx context.Context, log *slog.Logger, ra protocol.Attribute, local map[string]*models.AttributeDefinition, summary *models.SyncSummary) {
	incoming, err := ra.ToModel()
	if err != nil {
		log.Error("invalid attribute payload", "slug", ra.Slug, "error", err)
		summary.Attributes.Failed++
		return
	}
	base := incoming.BaseSlug()

	target, ok := local[base]
	if ok {
		target.Name = incoming.Name
		target.Type = incoming.Type
		target.OrderBy = incoming.OrderBy
		target.HasArchives = incoming.HasArchives
		log.Info("updating local attribute", "name", target.Name, "attribute_id", target.ID)
		if err := s.attributeRepo.Update(ctx, target); err != nil {
			log.Error("failed to process attribute", "name", incoming.Name, "error", err)
			summary.Attributes.Failed++
			return
		}
		summary.Attributes.Updated++
	} else {
		target = &models.AttributeDefinition{
			Name:        incoming.Name,
			Slug:        models.TaxonomyName(base),
			Type:        incoming.Type,
			OrderBy:     incoming.OrderBy,
			HasArchives: incoming.HasArchives,
		}
		log.Info("creating local attribute", "name", target.Name)
		if err := s.attributeRepo.Create(ctx, target); err != nil {
			log.Error("failed to process attribute", "name", incoming.Name, "error", err)
			summary.Attributes.Failed++
			return
		}
		summary.Attributes.Created++
		// Register the new taxonomy so its terms can be written in this run.
		local[base] = target
	}

	s.syncTerms(ctx, log, target, summary)
}

func (s *syncService) syncTerms(ctx context.Context, log *slog.Logger, attr *models.AttributeDefinition, summary *models.SyncSummary) {
	log.Info("fetching terms for attribute", "attribute", attr.Slug)
	remote, err := s.client.ListTerms(ctx, attr.Slug, nil)
	if err != nil {
		log.Error("could not fetch terms", "attribute", attr.Slug, "error", err)
		summary.Attributes.Failed++
		return
	}
	log.Info("processing terms", "attribute", attr.Slug, "count", len(remote))

	for _, rt := range remote {
		if err := s.reconcileTerm(ctx, log, attr, rt, summary); err != nil {
			log.Error("failed to process term", "name", rt.Name, "attribute", attr.Slug, "error", err)
			summary.Terms.Failed++
		}
	}
}

// reconcileTerm upserts one term. Writes are not rolled back when a later
// step fails.
func (s *syncService) reconcileTerm(ctx context.Context, log *slog.Logger, attr *models.AttributeDefinition, rt protocol.Term, summary *models.SyncSummary) error {
	incoming, err := rt.ToModel(attr.Slug)
	if err != nil {
		return err
	}

	term, err := s.termRepo.GetBySlug(ctx, attr.ID, incoming.Slug)
	switch {
	case err == nil:
		term.Slug = incoming.Slug
		term.Description = incoming.Description
		log.Debug("updating term", "name", incoming.Name, "term_id", term.ID, "attribute", attr.Slug)
		if err := s.termRepo.Update(ctx, term); err != nil {
			return fmt.Errorf("update term: %w", err)
		}
		summary.Terms.Updated++
	case errors.Is(err, repositories.ErrNotFound):
		term = &models.AttributeTerm{
			AttributeID:   attr.ID,
			AttributeSlug: attr.Slug,
			Name:          incoming.Name,
			Slug:          incoming.Slug,
			Description:   incoming.Description,
		}
		log.Debug("creating term", "name", incoming.Name, "attribute", attr.Slug)
		if err := s.termRepo.Create(ctx, term); err != nil {
			return fmt.Errorf("insert term: %w", err)
		}
		summary.Terms.Created++
	default:
		return fmt.Errorf("lookup term: %w", err)
	}

	if err := s.termRepo.UpdateMeta(ctx, term.ID, models.TermMeta{Price: incoming.Price, Suffix: incoming.Suffix}); err != nil {
		return fmt.Errorf("write term meta: %w", err)
	}

	link := &models.SyncLinkRecord{
		LocalTermID:  term.ID,
		SourceTermID: rt.ID,
		LastSyncedAt: incoming.ModifiedAt,
	}
	if err := s.linkRepo.Upsert(ctx, link); err != nil {
		return fmt.Errorf("write sync link: %w", err)
	}

	return s.sideloadImage(ctx, log, term, incoming, summary)
}

// sideloadImage links the term's swatch image. Download and storage
// failures are counted as image failures and leave the term without a new link.
func (s *syncService) sideloadImage(ctx context.Context, log *slog.Logger, term, incoming *models.AttributeTerm, summary *models.SyncSummary) error {
	if incoming.SwatchImageURL == "" {
		if err := s.termRepo.SetThumbnail(ctx, term.ID, nil); err != nil {
			return fmt.Errorf("clear thumbnail: %w", err)
		}
		return nil
	}

	res, err := s.assets.EnsureLocalAsset(ctx, incoming.SwatchImageURL, incoming.Name)
	if err != nil {
		log.Error("failed to sideload image", "source_url", incoming.SwatchImageURL, "term_id", term.ID, "error", err)
		summary.Terms.ImagesFailed++
		return nil
	}
	if res.Sideloaded {
		summary.Terms.ImagesSideloaded++
	}

	if err := s.termRepo.SetThumbnail(ctx, term.ID, &res.AssetID); err != nil {
		return fmt.Errorf("link thumbnail: %w", err)
	}
	return nil
}
