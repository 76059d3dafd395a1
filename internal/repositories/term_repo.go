package repositories

import (
	"context"

	"catalogsync/internal/models"
)

type TermRepository interface {
	Create(ctx context.Context, term *models.AttributeTerm) error
	Update(ctx context.Context, term *models.AttributeTerm) error
	GetByID(ctx context.Context, id int64) (*models.AttributeTerm, error)
	GetBySlug(ctx context.Context, attributeID int64, slug string) (*models.AttributeTerm, error)
	ListByAttribute(ctx context.Context, attributeID int64) ([]*models.AttributeTerm, error)
	UpdateMeta(ctx context.Context, id int64, meta models.TermMeta) error
	SetThumbnail(ctx context.Context, id int64, assetID *int64) error
}

type termRepo struct {
	db DBTX
}

func NewTermRepo(db DBTX) TermRepository {
	return &termRepo{db: db}
}

const termColumns = `
		SELECT t.id, t.attribute_id, a.slug, t.name, t.slug, t.description, t.price, t.suffix,
		       t.thumbnail_id, t.modified_at, t.created_at, t.updated_at
		FROM terms t
		JOIN attributes a ON a.id = t.attribute_id`

func (r *termRepo) Create(ctx context.Context, term *models.AttributeTerm) error {
	query := `
		INSERT INTO terms (attribute_id, name, slug, description, price, suffix, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		term.AttributeID, term.Name, term.Slug, term.Description, term.Price, term.Suffix,
	).Scan(&term.ID, &term.CreatedAt, &term.UpdatedAt)
	return mapError(err)
}

func (r *termRepo) Update(ctx context.Context, term *models.AttributeTerm) error {
	query := `
		UPDATE terms
		SET name = $2, slug = $3, description = $4, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, term.ID, term.Name, term.Slug, term.Description)
}

func (r *termRepo) GetByID(ctx context.Context, id int64) (*models.AttributeTerm, error) {
	term := &models.AttributeTerm{}
	if err := scanTerm(r.db.QueryRow(ctx, termColumns+` WHERE t.id = $1`, id), term); err != nil {
		return nil, mapError(err)
	}
	return term, nil
}

func (r *termRepo) GetBySlug(ctx context.Context, attributeID int64, slug string) (*models.AttributeTerm, error) {
	term := &models.AttributeTerm{}
	query := termColumns + ` WHERE t.attribute_id = $1 AND t.slug = $2`
	if err := scanTerm(r.db.QueryRow(ctx, query, attributeID, slug), term); err != nil {
		return nil, mapError(err)
	}
	return term, nil
}

func (r *termRepo) ListByAttribute(ctx context.Context, attributeID int64) ([]*models.AttributeTerm, error) {
	rows, err := r.db.Query(ctx, termColumns+` WHERE t.attribute_id = $1 ORDER BY t.id ASC`, attributeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []*models.AttributeTerm
	for rows.Next() {
		term := &models.AttributeTerm{}
		if err := scanTerm(rows, term); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func (r *termRepo) UpdateMeta(ctx context.Context, id int64, meta models.TermMeta) error {
	query := `UPDATE terms SET price = $2, suffix = $3, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, meta.Price, meta.Suffix)
}

// SetThumbnail links an image asset to the term, nil clears the link.
func (r *termRepo) SetThumbnail(ctx context.Context, id int64, assetID *int64) error {
	query := `UPDATE terms SET thumbnail_id = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, assetID)
}

func (r *termRepo) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTerm(row scanner, term *models.AttributeTerm) error {
	var attributeSlug string
	err := row.Scan(&term.ID, &term.AttributeID, &attributeSlug, &term.Name, &term.Slug, &term.Description,
		&term.Price, &term.Suffix, &term.ThumbnailID, &term.ModifiedAt, &term.CreatedAt, &term.UpdatedAt)
	if err != nil {
		return err
	}
	term.AttributeSlug = models.TaxonomyName(attributeSlug)
	return nil
}
