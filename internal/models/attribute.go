package models

import (
	"strings"
	"time"
)

// TaxonomyPrefix namespaces attribute taxonomies, e.g. "pa_color".
const TaxonomyPrefix = "pa_"

type AttributeType string

const (
	AttributeTypeSelect AttributeType = "select"
	AttributeTypeText   AttributeType = "text"
	AttributeTypeColor  AttributeType = "color"
	AttributeTypeImage  AttributeType = "image"
	AttributeTypeLabel  AttributeType = "label"
)

type AttributeOrderBy string

const (
	OrderByMenuOrder AttributeOrderBy = "menu_order"
	OrderByName      AttributeOrderBy = "name"
	OrderByNameNum   AttributeOrderBy = "name_num"
	OrderByID        AttributeOrderBy = "id"
)

// AttributeDefinition is a named axis of product variation. Slug always
// carries the taxonomy prefix; IDs are local to each catalog and are never
// compared across systems.
type AttributeDefinition struct {
	ID          int64            `json:"id" db:"id"`
	Name        string           `json:"name" db:"label"`
	Slug        string           `json:"slug" db:"slug"`
	Type        AttributeType    `json:"type" db:"type"`
	OrderBy     AttributeOrderBy `json:"order_by" db:"order_by"`
	HasArchives bool             `json:"has_archives" db:"has_archives"`
	ModifiedAt  *time.Time       `json:"modified_gmt" db:"-"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// BaseSlug returns the slug without the taxonomy prefix.
func (a *AttributeDefinition) BaseSlug() string {
	return StripTaxonomyPrefix(a.Slug)
}

// AttributeTerm is one value of an attribute definition.
type AttributeTerm struct {
	ID             int64      `json:"id" db:"id"`
	AttributeID    int64      `json:"attribute_id" db:"attribute_id"`
	AttributeSlug  string     `json:"attribute_slug" db:"-"`
	Name           string     `json:"name" db:"name"`
	Slug           string     `json:"slug" db:"slug"`
	Description    string     `json:"description" db:"description"`
	Price          string     `json:"price" db:"price"`
	Suffix         string     `json:"suffix" db:"suffix"`
	ThumbnailID    *int64     `json:"thumbnail_id" db:"thumbnail_id"`
	SwatchImageURL string     `json:"swatch_image_url" db:"-"`
	ModifiedAt     *time.Time `json:"modified_gmt" db:"modified_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TermMeta holds the display metadata written back after a term sync.
type TermMeta struct {
	Price  string `json:"term_price"`
	Suffix string `json:"_term_suffix"`
}

// TaxonomyName returns the canonical prefixed slug for a base slug.
func TaxonomyName(base string) string {
	if strings.HasPrefix(base, TaxonomyPrefix) {
		return base
	}
	return TaxonomyPrefix + base
}

// StripTaxonomyPrefix removes a single leading taxonomy prefix.
func StripTaxonomyPrefix(slug string) string {
	return strings.TrimPrefix(slug, TaxonomyPrefix)
}
