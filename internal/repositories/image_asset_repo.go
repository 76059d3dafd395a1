package repositories

import (
	"context"
	"errors"

	"catalogsync/internal/models"

	"github.com/jackc/pgx/v5"
)

type ImageAssetRepository interface {
	// Create inserts the asset. When SourceURL is already recorded nothing is
	// written and created is false.
	Create(ctx context.Context, asset *models.ImageAsset) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*models.ImageAsset, error)
	GetBySourceURL(ctx context.Context, sourceURL string) (*models.ImageAsset, error)
}

type imageAssetRepo struct {
	db DBTX
}

func NewImageAssetRepo(db DBTX) ImageAssetRepository {
	return &imageAssetRepo{db: db}
}

const imageAssetColumns = `
		SELECT id, source_url, object_key, content_type, size_bytes, title, created_at
		FROM image_assets`

func (r *imageAssetRepo) Create(ctx context.Context, asset *models.ImageAsset) (bool, error) {
	query := `
		INSERT INTO image_assets (source_url, object_key, content_type, size_bytes, title, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (source_url) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		asset.SourceURL, asset.ObjectKey, asset.ContentType, asset.SizeBytes, asset.Title,
	).Scan(&asset.ID, &asset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

func (r *imageAssetRepo) GetByID(ctx context.Context, id int64) (*models.ImageAsset, error) {
	return r.getOne(ctx, imageAssetColumns+` WHERE id = $1`, id)
}

func (r *imageAssetRepo) GetBySourceURL(ctx context.Context, sourceURL string) (*models.ImageAsset, error) {
	return r.getOne(ctx, imageAssetColumns+` WHERE source_url = $1`, sourceURL)
}

func (r *imageAssetRepo) getOne(ctx context.Context, query string, arg any) (*models.ImageAsset, error) {
	asset := &models.ImageAsset{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&asset.ID, &asset.SourceURL, &asset.ObjectKey,
		&asset.ContentType, &asset.SizeBytes, &asset.Title, &asset.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return asset, nil
}
