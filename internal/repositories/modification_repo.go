package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ModificationRepository stores modification stamps. Attribute stamps live
// in their own table keyed by attribute id; term stamps live on the term row.
type ModificationRepository interface {
	SetAttributeModifiedAt(ctx context.Context, attributeID int64, at time.Time) error
	GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error)
	ListAttributeModifiedAt(ctx context.Context) (map[int64]time.Time, error)
	SetTermModifiedAt(ctx context.Context, termID int64, at time.Time) error
	GetTermModifiedAt(ctx context.Context, termID int64) (*time.Time, error)
}

type modificationRepo struct {
	db DBTX
}

func NewModificationRepo(db DBTX) ModificationRepository {
	return &modificationRepo{db: db}
}

func (r *modificationRepo) SetAttributeModifiedAt(ctx context.Context, attributeID int64, at time.Time) error {
	query := `
		INSERT INTO attribute_modifications (attribute_id, modified_at)
		VALUES ($1, $2)
		ON CONFLICT (attribute_id) DO UPDATE SET modified_at = EXCLUDED.modified_at
	`
	_, err := r.db.Exec(ctx, query, attributeID, at)
	return mapError(err)
}

// GetAttributeModifiedAt returns nil without error when no stamp exists.
func (r *modificationRepo) GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error) {
	query := `SELECT modified_at FROM attribute_modifications WHERE attribute_id = $1`
	var at time.Time
	err := r.db.QueryRow(ctx, query, attributeID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *modificationRepo) ListAttributeModifiedAt(ctx context.Context) (map[int64]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT attribute_id, modified_at FROM attribute_modifications`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stamps := make(map[int64]time.Time)
	for rows.Next() {
		var id int64
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		stamps[id] = at
	}
	return stamps, rows.Err()
}

func (r *modificationRepo) SetTermModifiedAt(ctx context.Context, termID int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE terms SET modified_at = $2 WHERE id = $1`, termID, at)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTermModifiedAt returns nil without error for an unstamped term and
// ErrNotFound for an unknown one.
func (r *modificationRepo) GetTermModifiedAt(ctx context.Context, termID int64) (*time.Time, error) {
	var at *time.Time
	err := r.db.QueryRow(ctx, `SELECT modified_at FROM terms WHERE id = $1`, termID).Scan(&at)
	if err != nil {
		return nil, mapError(err)
	}
	return at, nil
}
