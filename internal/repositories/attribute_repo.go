package repositories

import (
	"context"

	"catalogsync/internal/models"
)

// AttributeRepository persists attribute definitions. Slugs are stored
// without the taxonomy prefix; records returned carry the prefixed form.
type AttributeRepository interface {
	Create(ctx context.Context, attr *models.AttributeDefinition) error
	Update(ctx context.Context, attr *models.AttributeDefinition) error
	GetByID(ctx context.Context, id int64) (*models.AttributeDefinition, error)
	GetBySlug(ctx context.Context, slug string) (*models.AttributeDefinition, error)
	List(ctx context.Context) ([]*models.AttributeDefinition, error)
}

type attributeRepo struct {
	db DBTX
}

func NewAttributeRepo(db DBTX) AttributeRepository {
	return &attributeRepo{db: db}
}

const attributeColumns = `
		SELECT a.id, a.name, a.slug, a.type, a.order_by, a.has_archives, m.modified_at, a.created_at, a.updated_at
		FROM attributes a
		LEFT JOIN attribute_modifications m ON m.attribute_id = a.id`

func (r *attributeRepo) Create(ctx context.Context, attr *models.AttributeDefinition) error {
	query := `
		INSERT INTO attributes (name, slug, type, order_by, has_archives, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		attr.Name, attr.BaseSlug(), string(attr.Type), string(attr.OrderBy), attr.HasArchives,
	).Scan(&attr.ID, &attr.CreatedAt, &attr.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	attr.Slug = models.TaxonomyName(attr.Slug)
	return nil
}

func (r *attributeRepo) Update(ctx context.Context, attr *models.AttributeDefinition) error {
	query := `
		UPDATE attributes
		SET name = $2, slug = $3, type = $4, order_by = $5, has_archives = $6, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		attr.ID, attr.Name, attr.BaseSlug(), string(attr.Type), string(attr.OrderBy), attr.HasArchives,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attributeRepo) GetByID(ctx context.Context, id int64) (*models.AttributeDefinition, error) {
	return r.getOne(ctx, attributeColumns+` WHERE a.id = $1`, id)
}

func (r *attributeRepo) GetBySlug(ctx context.Context, slug string) (*models.AttributeDefinition, error) {
	return r.getOne(ctx, attributeColumns+` WHERE a.slug = $1`, models.StripTaxonomyPrefix(slug))
}

func (r *attributeRepo) List(ctx context.Context) ([]*models.AttributeDefinition, error) {
	rows, err := r.db.Query(ctx, attributeColumns+` ORDER BY a.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs []*models.AttributeDefinition
	for rows.Next() {
		attr := &models.AttributeDefinition{}
		if err := scanAttribute(rows, attr); err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, rows.Err()
}

func (r *attributeRepo) getOne(ctx context.Context, query string, arg any) (*models.AttributeDefinition, error) {
	attr := &models.AttributeDefinition{}
	if err := scanAttribute(r.db.QueryRow(ctx, query, arg), attr); err != nil {
		return nil, mapError(err)
	}
	return attr, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttribute(row scanner, attr *models.AttributeDefinition) error {
	var attrType, orderBy string
	err := row.Scan(&attr.ID, &attr.Name, &attr.Slug, &attrType, &orderBy, &attr.HasArchives,
		&attr.ModifiedAt, &attr.CreatedAt, &attr.UpdatedAt)
	if err != nil {
		return err
	}
	attr.Type = models.AttributeType(attrType)
	attr.OrderBy = models.AttributeOrderBy(orderBy)
	attr.Slug = models.TaxonomyName(attr.Slug)
	return nil
}
