package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"catalogsync/internal/caching"
	"catalogsync/internal/models"
	"catalogsync/internal/repositories"

	"github.com/google/uuid"
)

const assetCacheTTL = 24 * time.Hour

// AssetResult is the local asset a source URL resolved to. Sideloaded is
// true only when this call downloaded and stored the image.
type AssetResult struct {
	AssetID    int64
	Sideloaded bool
}

// AssetService maps remote image URLs to local assets, downloading each
// distinct URL at most once.
type AssetService interface {
	EnsureLocalAsset(ctx context.Context, sourceURL, title string) (*AssetResult, error)
}

type AssetOptions struct {
	HTTPClient    *http.Client
	Timeout       time.Duration
	MaxImageBytes int64
}

type assetService struct {
	assetRepo  repositories.ImageAssetRepository
	storage    StorageService
	cache      caching.CacheService
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

func NewAssetService(assetRepo repositories.ImageAssetRepository, storage StorageService, cache caching.CacheService, opts AssetOptions, logger *slog.Logger) AssetService {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 10 << 20
	}
	return &assetService{
		assetRepo:  assetRepo,
		storage:    storage,
		cache:      cache,
		httpClient: opts.HTTPClient,
		maxBytes:   opts.MaxImageBytes,
		logger:     logger,
	}
}

func (s *assetService) EnsureLocalAsset(ctx context.Context, sourceURL, title string) (*AssetResult, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, errors.New("source url is empty")
	}

	if id := s.cachedID(ctx, sourceURL); id > 0 {
		if s.cacheEntryValid(ctx, sourceURL, id) {
			return &AssetResult{AssetID: id}, nil
		}
		s.forget(ctx, sourceURL)
	}

	existing, err := s.assetRepo.GetBySourceURL(ctx, sourceURL)
	if err == nil {
		s.remember(ctx, sourceURL, existing.ID)
		s.logger.Debug("found existing asset for source url", "asset_id", existing.ID, "source_url", sourceURL)
		return &AssetResult{AssetID: existing.ID}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("lookup asset: %w", err)
	}

	return s.sideload(ctx, sourceURL, title)
}

func (s *assetService) sideload(ctx context.Context, sourceURL, title string) (*AssetResult, error) {
	body, contentType, err := s.download(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", sourceURL, err)
	}

	objectKey := fmt.Sprintf("swatches/%s%s", uuid.NewString(), imageExtension(sourceURL, contentType))
	if err := s.storage.PutObject(ctx, objectKey, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return nil, fmt.Errorf("store %s: %w", sourceURL, err)
	}

	src := sourceURL
	asset := &models.ImageAsset{
		SourceURL:   &src,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   int64(len(body)),
		Title:       title,
	}
	created, err := s.assetRepo.Create(ctx, asset)
	if err != nil {
		s.removeObject(ctx, objectKey)
		return nil, fmt.Errorf("record asset: %w", err)
	}

	if !created {
		// Another run recorded this URL between lookup and insert.
		s.removeObject(ctx, objectKey)
		existing, err := s.assetRepo.GetBySourceURL(ctx, sourceURL)
		if err != nil {
			return nil, fmt.Errorf("lookup asset after conflict: %w", err)
		}
		s.remember(ctx, sourceURL, existing.ID)
		return &AssetResult{AssetID: existing.ID}, nil
	}

	s.remember(ctx, sourceURL, asset.ID)
	s.logger.Info("image sideloaded", "asset_id", asset.ID, "source_url", sourceURL, "bytes", asset.SizeBytes)
	return &AssetResult{AssetID: asset.ID, Sideloaded: true}, nil
}

func (s *assetService) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", fmt.Errorf("invalid image url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(body)) > s.maxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", s.maxBytes)
	}
	if len(body) == 0 {
		return nil, "", errors.New("empty body")
	}

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(body)
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("not an image: %s", contentType)
	}
	return body, contentType, nil
}

func (s *assetService) cachedID(ctx context.Context, sourceURL string) int64 {
	if s.cache == nil {
		return 0
	}
	id, err := s.cache.GetImageAssetID(ctx, sourceURL)
	if err != nil {
		s.logger.Warn("asset cache lookup failed", "error", err)
		return 0
	}
	return id
}

// cacheEntryValid reports whether the cached id still names an asset recorded
// for sourceURL in this catalog.
func (s *assetService) cacheEntryValid(ctx context.Context, sourceURL string, id int64) bool {
	asset, err := s.assetRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("asset cache verification failed", "asset_id", id, "error", err)
		}
		return false
	}
	if asset.SourceURL == nil || *asset.SourceURL != sourceURL {
		s.logger.Warn("stale asset cache entry", "asset_id", id, "source_url", sourceURL)
		return false
	}
	return true
}

func (s *assetService) forget(ctx context.Context, sourceURL string) {
	if err := s.cache.DeleteImageAssetID(ctx, sourceURL); err != nil {
		s.logger.Warn("asset cache delete failed", "error", err)
	}
}

func (s *assetService) remember(ctx context.Context, sourceURL string, assetID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetImageAssetID(ctx, sourceURL, assetID, assetCacheTTL); err != nil {
		s.logger.Warn("asset cache write failed", "error", err)
	}
}

func (s *assetService) removeObject(ctx context.Context, objectKey string) {
	if err := s.storage.RemoveObject(ctx, objectKey); err != nil {
		s.logger.Warn("failed to remove orphaned object", "object_key", objectKey, "error", err)
	}
}

func imageExtension(sourceURL, contentType string) string {
	if u, err := url.Parse(sourceURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	return extensionFor(contentType)
}
