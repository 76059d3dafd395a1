package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"catalogsync/internal/models"
)

// Namespace is the versioned path prefix of every Transfer Protocol route.
const Namespace = "/api/catalog-sync/v1"

// FlexString accepts a JSON string, number, bool or null. Term meta values
// are stored untyped on the provider and arrive in any of those forms.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if b {
			*f = "1"
		} else {
			*f = ""
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported meta value %s", string(data))
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// Attribute is the wire form of an attribute definition.
type Attribute struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Type        string  `json:"type"`
	OrderBy     string  `json:"order_by"`
	HasArchives bool    `json:"has_archives"`
	ModifiedGMT *string `json:"modified_gmt"`
}

type rawAttribute struct {
	ID          *json.Number `json:"id"`
	Name        *string      `json:"name"`
	Slug        *string      `json:"slug"`
	Type        *string      `json:"type"`
	OrderBy     *string      `json:"order_by"`
	HasArchives *bool        `json:"has_archives"`
	ModifiedGMT *string      `json:"modified_gmt"`
}

// UnmarshalJSON rejects payloads missing id, slug or name.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var raw rawAttribute
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := requiredID(raw.ID)
	if err != nil {
		return fmt.Errorf("attribute: %w", err)
	}
	if raw.Slug == nil || strings.TrimSpace(*raw.Slug) == "" {
		return fmt.Errorf("attribute %d: slug is required", id)
	}
	if raw.Name == nil {
		return fmt.Errorf("attribute %d: name is required", id)
	}

	*a = Attribute{
		ID:          id,
		Name:        *raw.Name,
		Slug:        *raw.Slug,
		Type:        deref(raw.Type, string(models.AttributeTypeSelect)),
		OrderBy:     deref(raw.OrderBy, string(models.OrderByMenuOrder)),
		HasArchives: raw.HasArchives != nil && *raw.HasArchives,
		ModifiedGMT: raw.ModifiedGMT,
	}
	return nil
}

// FromAttribute builds the wire form of a local attribute.
func FromAttribute(a *models.AttributeDefinition) Attribute {
	return Attribute{
		ID:          a.ID,
		Name:        a.Name,
		Slug:        models.TaxonomyName(a.Slug),
		Type:        string(a.Type),
		OrderBy:     string(a.OrderBy),
		HasArchives: a.HasArchives,
		ModifiedGMT: FormatTime(a.ModifiedAt),
	}
}

// ToModel converts the payload into a local attribute record. The ID is the
// provider's and must not be persisted as a local id.
func (a Attribute) ToModel() (*models.AttributeDefinition, error) {
	modified, err := ParseTime(a.ModifiedGMT)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", a.Slug, err)
	}
	return &models.AttributeDefinition{
		ID:          a.ID,
		Name:        a.Name,
		Slug:        models.TaxonomyName(a.Slug),
		Type:        models.AttributeType(a.Type),
		OrderBy:     models.AttributeOrderBy(a.OrderBy),
		HasArchives: a.HasArchives,
		ModifiedAt:  modified,
	}, nil
}

type TermMeta struct {
	TermPrice   FlexString `json:"term_price"`
	TermSuffix  FlexString `json:"_term_suffix"`
	ThumbnailID *int64     `json:"thumbnail_id"`
}

type rawTermMeta struct {
	TermPrice   FlexString `json:"term_price"`
	TermSuffix  FlexString `json:"_term_suffix"`
	ThumbnailID FlexString `json:"thumbnail_id"`
}

func (m *TermMeta) UnmarshalJSON(data []byte) error {
	var raw rawTermMeta
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = TermMeta{TermPrice: raw.TermPrice, TermSuffix: raw.TermSuffix}
	if id, err := strconv.ParseInt(string(raw.ThumbnailID), 10, 64); err == nil && id > 0 {
		m.ThumbnailID = &id
	}
	return nil
}

// Term is the wire form of an attribute term.
type Term struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description"`
	Meta           TermMeta `json:"meta"`
	SwatchImageURL *string  `json:"swatch_image_url"`
	ModifiedGMT    *string  `json:"modified_gmt"`
}

type rawTerm struct {
	ID             *json.Number `json:"id"`
	Name           *string      `json:"name"`
	Slug           *string      `json:"slug"`
	Description    *string      `json:"description"`
	Meta           *TermMeta    `json:"meta"`
	SwatchImageURL *string      `json:"swatch_image_url"`
	ModifiedGMT    *string      `json:"modified_gmt"`
}

// UnmarshalJSON rejects payloads missing id, slug or name.
func (t *Term) UnmarshalJSON(data []byte) error {
	var raw rawTerm
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := requiredID(raw.ID)
	if err != nil {
		return fmt.Errorf("term: %w", err)
	}
	if raw.Slug == nil || strings.TrimSpace(*raw.Slug) == "" {
		return fmt.Errorf("term %d: slug is required", id)
	}
	if raw.Name == nil {
		return fmt.Errorf("term %d: name is required", id)
	}

	*t = Term{
		ID:             id,
		Name:           *raw.Name,
		Slug:           *raw.Slug,
		Description:    deref(raw.Description, ""),
		SwatchImageURL: raw.SwatchImageURL,
		ModifiedGMT:    raw.ModifiedGMT,
	}
	if raw.Meta != nil {
		t.Meta = *raw.Meta
	}
	return nil
}

// FromTerm builds the wire form of a local term. imageURL is the resolved
// swatch URL, empty when the term has no image.
func FromTerm(term *models.AttributeTerm, imageURL string) Term {
	out := Term{
		ID:          term.ID,
		Name:        term.Name,
		Slug:        term.Slug,
		Description: term.Description,
		Meta: TermMeta{
			TermPrice:   FlexString(term.Price),
			TermSuffix:  FlexString(term.Suffix),
			ThumbnailID: term.ThumbnailID,
		},
		ModifiedGMT: FormatTime(term.ModifiedAt),
	}
	if imageURL != "" {
		out.SwatchImageURL = &imageURL
	}
	return out
}

// ImageURL returns the swatch URL or "" when the term has none.
func (t Term) ImageURL() string {
	if t.SwatchImageURL == nil {
		return ""
	}
	return strings.TrimSpace(*t.SwatchImageURL)
}

// ToModel converts the payload into a term record for attributeSlug.
func (t Term) ToModel(attributeSlug string) (*models.AttributeTerm, error) {
	modified, err := ParseTime(t.ModifiedGMT)
	if err != nil {
		return nil, fmt.Errorf("term %s: %w", t.Slug, err)
	}
	return &models.AttributeTerm{
		ID:             t.ID,
		AttributeSlug:  models.TaxonomyName(attributeSlug),
		Name:           t.Name,
		Slug:           t.Slug,
		Description:    t.Description,
		Price:          t.Meta.TermPrice.String(),
		Suffix:         t.Meta.TermSuffix.String(),
		SwatchImageURL: t.ImageURL(),
		ModifiedAt:     modified,
	}, nil
}

func requiredID(n *json.Number) (int64, error) {
	if n == nil {
		return 0, fmt.Errorf("id is required")
	}
	id, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", n.String())
	}
	return id, nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
