// Package testhelpers provides in-memory stand-ins for the catalog
// repositories, cache and object storage.
package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalogsync/internal/models"
	"catalogsync/internal/repositories"
)

// MemoryStore backs every repository interface with maps. Each repository
// is exposed through its own view, e.g. store.Attributes().
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	now      func() time.Time
	failures map[string]error
	calls    map[string]int

	attributes  map[int64]*models.AttributeDefinition
	attrMods    map[int64]time.Time
	terms       map[int64]*models.AttributeTerm
	termMods    map[int64]time.Time
	assets      map[int64]*models.ImageAsset
	links       map[int64]*models.SyncLinkRecord
	credentials map[string]*models.APICredential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         func() time.Time { return time.Now().UTC() },
		failures:    make(map[string]error),
		calls:       make(map[string]int),
		attributes:  make(map[int64]*models.AttributeDefinition),
		attrMods:    make(map[int64]time.Time),
		terms:       make(map[int64]*models.AttributeTerm),
		termMods:    make(map[int64]time.Time),
		assets:      make(map[int64]*models.ImageAsset),
		links:       make(map[int64]*models.SyncLinkRecord),
		credentials: make(map[string]*models.APICredential),
	}
}

// FailOn makes op return err. key narrows the failure to one record, for
// example FailOn("terms.Create", "red", err) fails only the term slugged
// "red". An empty key fails every call.
func (s *MemoryStore) FailOn(op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+"|"+key] = err
}

// Calls reports how many times op was invoked.
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records the call and returns any injected failure. Callers hold mu.
func (s *MemoryStore) enter(op, key string) error {
	s.calls[op]++
	if err, ok := s.failures[op+"|"+key]; ok {
		return err
	}
	return s.failures[op+"|"]
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) Attributes() repositories.AttributeRepository { return memAttributes{s} }
func (s *MemoryStore) Terms() repositories.TermRepository           { return memTerms{s} }
func (s *MemoryStore) Modifications() repositories.ModificationRepository {
	return memModifications{s}
}
func (s *MemoryStore) Assets() repositories.ImageAssetRepository      { return memAssets{s} }
func (s *MemoryStore) Links() repositories.SyncLinkRepository         { return memLinks{s} }
func (s *MemoryStore) Credentials() repositories.CredentialRepository { return memCredentials{s} }

type memAttributes struct{ *MemoryStore }

func (r memAttributes) Create(ctx context.Context, attr *models.AttributeDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slug := models.TaxonomyName(attr.Slug)
	if err := r.enter("attributes.Create", models.StripTaxonomyPrefix(slug)); err != nil {
		return err
	}
	for _, existing := range r.attributes {
		if existing.Slug == slug {
			return repositories.ErrDuplicate
		}
	}
	now := r.now()
	attr.ID = r.id()
	attr.Slug = slug
	attr.CreatedAt = now
	attr.UpdatedAt = now
	stored := *attr
	stored.ModifiedAt = nil
	r.attributes[attr.ID] = &stored
	return nil
}

func (r memAttributes) Update(ctx context.Context, attr *models.AttributeDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("attributes.Update", attr.BaseSlug()); err != nil {
		return err
	}
	existing, ok := r.attributes[attr.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Name = attr.Name
	existing.Slug = models.TaxonomyName(attr.Slug)
	existing.Type = attr.Type
	existing.OrderBy = attr.OrderBy
	existing.HasArchives = attr.HasArchives
	existing.UpdatedAt = r.now()
	attr.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r memAttributes) GetByID(ctx context.Context, id int64) (*models.AttributeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("attributes.GetByID", ""); err != nil {
		return nil, err
	}
	attr, ok := r.attributes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.attributeCopy(attr), nil
}

func (r memAttributes) GetBySlug(ctx context.Context, slug string) (*models.AttributeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	base := models.StripTaxonomyPrefix(slug)
	if err := r.enter("attributes.GetBySlug", base); err != nil {
		return nil, err
	}
	for _, attr := range r.attributes {
		if attr.BaseSlug() == base {
			return r.attributeCopy(attr), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memAttributes) List(ctx context.Context) ([]*models.AttributeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("attributes.List", ""); err != nil {
		return nil, err
	}
	out := make([]*models.AttributeDefinition, 0, len(r.attributes))
	for _, attr := range r.attributes {
		out = append(out, r.attributeCopy(attr))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) attributeCopy(attr *models.AttributeDefinition) *models.AttributeDefinition {
	out := *attr
	if at, ok := s.attrMods[attr.ID]; ok {
		out.ModifiedAt = &at
	}
	return &out
}

type memTerms struct{ *MemoryStore }

func (r memTerms) Create(ctx context.Context, term *models.AttributeTerm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("terms.Create", term.Slug); err != nil {
		return err
	}
	attr, ok := r.attributes[term.AttributeID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range r.terms {
		if existing.AttributeID == term.AttributeID && existing.Slug == term.Slug {
			return repositories.ErrDuplicate
		}
	}
	now := r.now()
	term.ID = r.id()
	term.AttributeSlug = attr.Slug
	term.CreatedAt = now
	term.UpdatedAt = now
	stored := *term
	stored.ModifiedAt = nil
	stored.SwatchImageURL = ""
	r.terms[term.ID] = &stored
	return nil
}

func (r memTerms) Update(ctx context.Context, term *models.AttributeTerm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("terms.Update", term.Slug); err != nil {
		return err
	}
	existing, ok := r.terms[term.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Name = term.Name
	existing.Slug = term.Slug
	existing.Description = term.Description
	existing.UpdatedAt = r.now()
	term.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r memTerms) GetByID(ctx context.Context, id int64) (*models.AttributeTerm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("terms.GetByID", ""); err != nil {
		return nil, err
	}
	term, ok := r.terms[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.termCopy(term), nil
}

func (r memTerms) GetBySlug(ctx context.Context, attributeID int64, slug string) (*models.AttributeTerm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("terms.GetBySlug", slug); err != nil {
		return nil, err
	}
	for _, term := range r.terms {
		if term.AttributeID == attributeID && term.Slug == slug {
			return r.termCopy(term), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memTerms) ListByAttribute(ctx context.Context, attributeID int64) ([]*models.AttributeTerm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("terms.ListByAttribute", ""); err != nil {
		return nil, err
	}
	out := []*models.AttributeTerm{}
	for _, term := range r.terms {
		if term.AttributeID == attributeID {
			out = append(out, r.termCopy(term))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTerms) UpdateMeta(ctx context.Context, id int64, meta models.TermMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	term, ok := r.terms[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if err := r.enter("terms.UpdateMeta", term.Slug); err != nil {
		return err
	}
	term.Price = meta.Price
	term.Suffix = meta.Suffix
	return nil
}

func (r memTerms) SetThumbnail(ctx context.Context, id int64, assetID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	term, ok := r.terms[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if err := r.enter("terms.SetThumbnail", term.Slug); err != nil {
		return err
	}
	if assetID == nil {
		term.ThumbnailID = nil
		return nil
	}
	id2 := *assetID
	term.ThumbnailID = &id2
	return nil
}

func (s *MemoryStore) termCopy(term *models.AttributeTerm) *models.AttributeTerm {
	out := *term
	if attr, ok := s.attributes[term.AttributeID]; ok {
		out.AttributeSlug = attr.Slug
	}
	if term.ThumbnailID != nil {
		id := *term.ThumbnailID
		out.ThumbnailID = &id
	}
	if at, ok := s.termMods[term.ID]; ok {
		out.ModifiedAt = &at
	}
	return &out
}

type memModifications struct{ *MemoryStore }

func (r memModifications) SetAttributeModifiedAt(ctx context.Context, attributeID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("modifications.SetAttributeModifiedAt", ""); err != nil {
		return err
	}
	r.attrMods[attributeID] = at
	return nil
}

func (r memModifications) GetAttributeModifiedAt(ctx context.Context, attributeID int64) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("modifications.GetAttributeModifiedAt", ""); err != nil {
		return nil, err
	}
	at, ok := r.attrMods[attributeID]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

func (r memModifications) ListAttributeModifiedAt(ctx context.Context) (map[int64]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("modifications.ListAttributeModifiedAt", ""); err != nil {
		return nil, err
	}
	out := make(map[int64]time.Time, len(r.attrMods))
	for id, at := range r.attrMods {
		out[id] = at
	}
	return out, nil
}

func (r memModifications) SetTermModifiedAt(ctx context.Context, termID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("modifications.SetTermModifiedAt", ""); err != nil {
		return err
	}
	if _, ok := r.terms[termID]; !ok {
		return repositories.ErrNotFound
	}
	r.termMods[termID] = at
	return nil
}

func (r memModifications) GetTermModifiedAt(ctx context.Context, termID int64) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("modifications.GetTermModifiedAt", ""); err != nil {
		return nil, err
	}
	at, ok := r.termMods[termID]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

type memAssets struct{ *MemoryStore }

func (r memAssets) Create(ctx context.Context, asset *models.ImageAsset) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ""
	if asset.SourceURL != nil {
		key = *asset.SourceURL
	}
	if err := r.enter("assets.Create", key); err != nil {
		return false, err
	}
	if asset.SourceURL != nil {
		for _, existing := range r.assets {
			if existing.SourceURL != nil && *existing.SourceURL == *asset.SourceURL {
				return false, nil
			}
		}
	}
	asset.ID = r.id()
	asset.CreatedAt = r.now()
	stored := *asset
	r.assets[asset.ID] = &stored
	return true, nil
}

func (r memAssets) GetByID(ctx context.Context, id int64) (*models.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("assets.GetByID", ""); err != nil {
		return nil, err
	}
	asset, ok := r.assets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *asset
	return &out, nil
}

func (r memAssets) GetBySourceURL(ctx context.Context, sourceURL string) (*models.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("assets.GetBySourceURL", sourceURL); err != nil {
		return nil, err
	}
	for _, asset := range r.assets {
		if asset.SourceURL != nil && *asset.SourceURL == sourceURL {
			out := *asset
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// AssetCount returns the number of stored image assets.
func (s *MemoryStore) AssetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

type memLinks struct{ *MemoryStore }

func (r memLinks) Upsert(ctx context.Context, link *models.SyncLinkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("links.Upsert", ""); err != nil {
		return err
	}
	if _, ok := r.terms[link.LocalTermID]; !ok {
		return repositories.ErrNotFound
	}
	link.UpdatedAt = r.now()
	stored := *link
	r.links[link.LocalTermID] = &stored
	return nil
}

func (r memLinks) GetByLocalTermID(ctx context.Context, localTermID int64) (*models.SyncLinkRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("links.GetByLocalTermID", ""); err != nil {
		return nil, err
	}
	link, ok := r.links[localTermID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *link
	return &out, nil
}

type memCredentials struct{ *MemoryStore }

func (r memCredentials) Create(ctx context.Context, cred *models.APICredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("credentials.Create", cred.Username); err != nil {
		return err
	}
	if existing, ok := r.credentials[cred.Username]; ok {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	} else {
		cred.ID = r.id()
		cred.CreatedAt = r.now()
	}
	stored := *cred
	stored.Capabilities = append([]string(nil), cred.Capabilities...)
	r.credentials[cred.Username] = &stored
	return nil
}

func (r memCredentials) GetByUsername(ctx context.Context, username string) (*models.APICredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("credentials.GetByUsername", username); err != nil {
		return nil, err
	}
	cred, ok := r.credentials[username]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *cred
	out.Capabilities = append([]string(nil), cred.Capabilities...)
	return &out, nil
}
