package repositories

import (
	"context"

	"catalogsync/internal/models"
)

type SyncLinkRepository interface {
	Upsert(ctx context.Context, link *models.SyncLinkRecord) error
	GetByLocalTermID(ctx context.Context, localTermID int64) (*models.SyncLinkRecord, error)
}

type syncLinkRepo struct {
	db DBTX
}

func NewSyncLinkRepo(db DBTX) SyncLinkRepository {
	return &syncLinkRepo{db: db}
}

func (r *syncLinkRepo) Upsert(ctx context.Context, link *models.SyncLinkRecord) error {
	query := `
		INSERT INTO term_sync_links (local_term_id, source_term_id, last_synced_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (local_term_id) DO UPDATE
		SET source_term_id = EXCLUDED.source_term_id,
		    last_synced_at = EXCLUDED.last_synced_at,
		    updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, link.LocalTermID, link.SourceTermID, link.LastSyncedAt).Scan(&link.UpdatedAt)
	return mapError(err)
}

func (r *syncLinkRepo) GetByLocalTermID(ctx context.Context, localTermID int64) (*models.SyncLinkRecord, error) {
	query := `
		SELECT local_term_id, source_term_id, last_synced_at, updated_at
		FROM term_sync_links
		WHERE local_term_id = $1
	`
	link := &models.SyncLinkRecord{}
	err := r.db.QueryRow(ctx, query, localTermID).Scan(&link.LocalTermID, &link.SourceTermID, &link.LastSyncedAt, &link.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return link, nil
}
