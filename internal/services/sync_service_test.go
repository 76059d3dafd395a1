package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/protocol"
	"catalogsync/testhelpers"

	"github.com/stretchr/testify/suite"
)

// fakeProvider serves a fixed catalog. Errors keyed by slug are returned
// from the matching call.
type fakeProvider struct {
	mu          sync.Mutex
	configured  bool
	attributes  []protocol.Attribute
	terms       map[string][]protocol.Term
	listErr     error
	getErr      error
	termErrs    map[string]error
	block       chan struct{}
	listCalls   int32
	requestedBy []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		configured: true,
		terms:      make(map[string][]protocol.Term),
		termErrs:   make(map[string]error),
	}
}

func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) ListAttributes(ctx context.Context, modifiedSince *time.Time) ([]protocol.Attribute, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.block != nil {
		<-f.block
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]protocol.Attribute(nil), f.attributes...), nil
}

func (f *fakeProvider) GetAttribute(ctx context.Context, slug string) (*protocol.Attribute, error) {
	f.mu.Lock()
	f.requestedBy = append(f.requestedBy, slug)
	f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.attributes {
		if a.Slug == slug {
			out := a
			return &out, nil
		}
	}
	return nil, errors.New("attribute not found")
}

func (f *fakeProvider) ListTerms(ctx context.Context, attributeSlug string, modifiedSince *time.Time) ([]protocol.Term, error) {
	if err := f.termErrs[attributeSlug]; err != nil {
		return nil, err
	}
	return append([]protocol.Term(nil), f.terms[attributeSlug]...), nil
}

func stamp(s string) *string { return &s }

func remoteTerm(id int64, name, slug, imageURL string) protocol.Term {
	t := protocol.Term{
		ID:          id,
		Name:        name,
		Slug:        slug,
		Description: name + " swatch",
		Meta:        protocol.TermMeta{TermPrice: "1.50", TermSuffix: "EUR"},
		ModifiedGMT: stamp("2024-06-01T12:00:00Z"),
	}
	if imageURL != "" {
		t.SwatchImageURL = &imageURL
	}
	return t
}

type SyncServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *testhelpers.MemoryStore
	storage  *testhelpers.MemoryStorage
	cache    *testhelpers.MemoryCache
	provider *fakeProvider
	imageURL string
	hits     int32
	service  SyncService
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = testhelpers.NewMemoryStore()
	suite.storage = testhelpers.NewMemoryStorage()
	suite.cache = testhelpers.NewMemoryCache()
	suite.provider = newFakeProvider()
	suite.hits = 0

	srv := imageServer(suite.T(), &suite.hits)
	suite.imageURL = srv.URL + "/red.png"

	suite.provider.attributes = []protocol.Attribute{
		{ID: 10, Name: "Color", Slug: "pa_color", Type: "select", OrderBy: "menu_order", ModifiedGMT: stamp("2024-06-01T12:00:00Z")},
		{ID: 11, Name: "Size", Slug: "pa_size", Type: "select", OrderBy: "name"},
	}
	suite.provider.terms["pa_color"] = []protocol.Term{
		remoteTerm(100, "Red", "red", suite.imageURL),
		remoteTerm(101, "Crimson", "crimson", suite.imageURL),
		remoteTerm(102, "Blue", "blue", ""),
	}
	suite.provider.terms["pa_size"] = []protocol.Term{
		remoteTerm(200, "Large", "large", ""),
	}

	suite.service = suite.newService(suite.cache)
}

func (suite *SyncServiceTestSuite) newService(cache *testhelpers.MemoryCache) SyncService {
	log := logger.Discard()
	if cache == nil {
		assets := NewAssetService(suite.store.Assets(), suite.storage, nil, AssetOptions{}, log)
		return NewSyncService(suite.provider, suite.store.Attributes(), suite.store.Terms(), suite.store.Links(), assets, nil, log)
	}
	assets := NewAssetService(suite.store.Assets(), suite.storage, cache, AssetOptions{}, log)
	return NewSyncService(suite.provider, suite.store.Attributes(), suite.store.Terms(), suite.store.Links(), assets, cache, log)
}

func (suite *SyncServiceTestSuite) localTerm(attributeSlug, slug string) *models.AttributeTerm {
	attr, err := suite.store.Attributes().GetBySlug(suite.ctx, attributeSlug)
	suite.Require().NoError(err)
	term, err := suite.store.Terms().GetBySlug(suite.ctx, attr.ID, slug)
	suite.Require().NoError(err)
	return term
}

func (suite *SyncServiceTestSuite) TestFullSync_CreatesEverything() {
	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(models.AttributeCounts{Created: 2}, summary.Attributes)
	suite.Equal(models.TermCounts{Created: 4, ImagesSideloaded: 1}, summary.Terms)
	suite.Equal("Sync complete. Attributes: 2 created, 0 updated, 0 failed. Terms: 4 created, 0 updated, 0 failed. Images: 1 sideloaded, 0 failed.", summary.Message)
	suite.False(summary.FinishedAt.Before(summary.StartedAt))

	attrs, err := suite.store.Attributes().List(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(attrs, 2)
	suite.Equal("pa_color", attrs[0].Slug)
	suite.Equal(models.OrderByName, attrs[1].OrderBy)

	red := suite.localTerm("pa_color", "red")
	crimson := suite.localTerm("pa_color", "crimson")
	suite.Equal("Red", red.Name)
	suite.Equal("Red swatch", red.Description)
	suite.Equal("1.50", red.Price)
	suite.Equal("EUR", red.Suffix)
	suite.Require().NotNil(red.ThumbnailID)
	suite.Require().NotNil(crimson.ThumbnailID)
	suite.Equal(*red.ThumbnailID, *crimson.ThumbnailID)
	suite.Nil(suite.localTerm("pa_color", "blue").ThumbnailID)

	link, err := suite.store.Links().GetByLocalTermID(suite.ctx, red.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(100), link.SourceTermID)
	suite.Require().NotNil(link.LastSyncedAt)
	suite.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), *link.LastSyncedAt)

	suite.Equal(1, suite.store.AssetCount())
	suite.Equal(int32(1), atomic.LoadInt32(&suite.hits))
	suite.False(suite.cache.Locked(syncLockName))
}

func (suite *SyncServiceTestSuite) TestSecondRunIsIdempotent() {
	_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")
	suite.Require().NoError(err)

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(models.AttributeCounts{Updated: 2}, summary.Attributes)
	suite.Equal(models.TermCounts{Updated: 4}, summary.Terms)
	suite.Equal(1, suite.store.AssetCount())
	suite.Equal(int32(1), atomic.LoadInt32(&suite.hits))

	attrs, err := suite.store.Attributes().List(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(attrs, 2)
}

func (suite *SyncServiceTestSuite) TestUpdateKeepsLocalTermName() {
	_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")
	suite.Require().NoError(err)

	suite.provider.terms["pa_color"][0].Name = "Rouge"
	suite.provider.terms["pa_color"][0].Description = "Updated"
	suite.provider.terms["pa_color"][0].SwatchImageURL = nil

	_, err = suite.service.SyncAttributesAndTerms(suite.ctx, "")
	suite.Require().NoError(err)

	red := suite.localTerm("pa_color", "red")
	suite.Equal("Red", red.Name)
	suite.Equal("Updated", red.Description)
	suite.Nil(red.ThumbnailID)
}

func (suite *SyncServiceTestSuite) TestUpdatesExistingLocalAttribute() {
	local := &models.AttributeDefinition{Name: "Colour", Slug: "color", Type: models.AttributeTypeColor, OrderBy: models.OrderByID}
	suite.Require().NoError(suite.store.Attributes().Create(suite.ctx, local))

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(models.AttributeCounts{Created: 1, Updated: 1}, summary.Attributes)
	attr, err := suite.store.Attributes().GetByID(suite.ctx, local.ID)
	suite.Require().NoError(err)
	suite.Equal("Color", attr.Name)
	suite.Equal(models.AttributeTypeSelect, attr.Type)
	suite.Equal(models.OrderByMenuOrder, attr.OrderBy)
}

func (suite *SyncServiceTestSuite) TestSingleAttributeScope() {
	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "color")

	suite.Require().NoError(err)
	suite.Equal("color", summary.AttributeSlug)
	suite.Equal(models.AttributeCounts{Created: 1}, summary.Attributes)
	suite.Equal(3, summary.Terms.Created)
	suite.Equal([]string{"pa_color"}, suite.provider.requestedBy)
	suite.Equal(int32(0), atomic.LoadInt32(&suite.provider.listCalls))

	_, err = suite.store.Attributes().GetBySlug(suite.ctx, "pa_size")
	suite.Error(err)
}

func (suite *SyncServiceTestSuite) TestSingleAttributeScope_LeavesSiblingUntouched() {
	size := &models.AttributeDefinition{Name: "Sizes", Slug: "size", Type: models.AttributeTypeSelect, OrderBy: models.OrderByID}
	suite.Require().NoError(suite.store.Attributes().Create(suite.ctx, size))
	large := &models.AttributeTerm{AttributeID: size.ID, Name: "Grand", Slug: "large", Description: "Local large", Price: "9.00", Suffix: "USD"}
	suite.Require().NoError(suite.store.Terms().Create(suite.ctx, large))

	beforeAttr, err := suite.store.Attributes().GetByID(suite.ctx, size.ID)
	suite.Require().NoError(err)
	beforeTerm, err := suite.store.Terms().GetByID(suite.ctx, large.ID)
	suite.Require().NoError(err)

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "color")

	suite.Require().NoError(err)
	suite.Equal(models.AttributeCounts{Created: 1}, summary.Attributes)
	suite.Equal(models.TermCounts{Created: 3, ImagesSideloaded: 1}, summary.Terms)

	afterAttr, err := suite.store.Attributes().GetByID(suite.ctx, size.ID)
	suite.Require().NoError(err)
	suite.Equal(beforeAttr, afterAttr)

	afterTerm, err := suite.store.Terms().GetByID(suite.ctx, large.ID)
	suite.Require().NoError(err)
	suite.Equal(beforeTerm, afterTerm)
	suite.Equal("Grand", afterTerm.Name)
	suite.Equal("Local large", afterTerm.Description)
	suite.Equal("9.00", afterTerm.Price)
	suite.Equal("USD", afterTerm.Suffix)

	_, err = suite.store.Links().GetByLocalTermID(suite.ctx, large.ID)
	suite.Error(err)
	suite.Equal(0, suite.store.Calls("attributes.Update"))
	suite.Equal(0, suite.store.Calls("terms.Update"))
	suite.Equal(0, suite.store.Calls("terms.ListByAttribute"))
	suite.Equal(3, suite.store.Calls("terms.UpdateMeta"))
	suite.Equal([]string{"pa_color"}, suite.provider.requestedBy)
}

func (suite *SyncServiceTestSuite) TestNotConfigured() {
	suite.provider.configured = false

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.ErrorIs(err, ErrNotConfigured)
	suite.Nil(summary)
	suite.Equal(int32(0), atomic.LoadInt32(&suite.provider.listCalls))
}

func (suite *SyncServiceTestSuite) TestTopLevelFetchFailureIsFatal() {
	suite.provider.listErr = errors.New("connection refused")

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Error(err)
	suite.Contains(err.Error(), "connection refused")
	suite.Nil(summary)
	suite.Equal(0, suite.store.Calls("attributes.Create"))
	suite.False(suite.cache.Locked(syncLockName))
}

func (suite *SyncServiceTestSuite) TestSingleAttributeFetchFailureIsFatal() {
	suite.provider.getErr = errors.New("not found")

	_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "color")

	suite.Error(err)
}

func (suite *SyncServiceTestSuite) TestLocalListFailureIsFatal() {
	suite.store.FailOn("attributes.List", "", errors.New("db down"))

	_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Error(err)
}

func (suite *SyncServiceTestSuite) TestAttributeWriteFailureSkipsItsTerms() {
	suite.store.FailOn("attributes.Create", "color", errors.New("insert failed"))

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(models.AttributeCounts{Created: 1, Failed: 1}, summary.Attributes)
	suite.Equal(models.TermCounts{Created: 1}, summary.Terms)
}

func (suite *SyncServiceTestSuite) TestTermFetchFailureCountsAgainstAttribute() {
	suite.provider.termErrs["pa_size"] = errors.New("timeout")

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	// The attribute itself was written before its terms failed.
	suite.Equal(models.AttributeCounts{Created: 2, Failed: 1}, summary.Attributes)
	suite.Equal(3, summary.Terms.Created)
}

func (suite *SyncServiceTestSuite) TestTermFailureDoesNotStopRun() {
	suite.store.FailOn("terms.Create", "crimson", errors.New("insert failed"))

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(models.TermCounts{Created: 3, Failed: 1, ImagesSideloaded: 1}, summary.Terms)
	suite.NotNil(suite.localTerm("pa_color", "blue"))
}

func (suite *SyncServiceTestSuite) TestImageFailureKeepsTerm() {
	broken := suite.imageURL[:len(suite.imageURL)-len("/red.png")] + "/missing.png"
	suite.provider.terms["pa_color"] = []protocol.Term{remoteTerm(100, "Red", "red", broken)}

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "color")

	suite.Require().NoError(err)
	suite.Equal(models.TermCounts{Created: 1, ImagesFailed: 1}, summary.Terms)
	red := suite.localTerm("pa_color", "red")
	suite.Nil(red.ThumbnailID)
	suite.Equal("1.50", red.Price)
}

func (suite *SyncServiceTestSuite) TestInProgressRejected() {
	suite.cache.Hold(syncLockName)

	_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.ErrorIs(err, ErrSyncInProgress)
	suite.Equal(int32(0), atomic.LoadInt32(&suite.provider.listCalls))
}

func (suite *SyncServiceTestSuite) TestConcurrentRunRejected() {
	suite.provider.block = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")
		done <- err
	}()

	suite.Eventually(func() bool {
		return atomic.LoadInt32(&suite.provider.listCalls) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")
	suite.ErrorIs(err, ErrSyncInProgress)

	close(suite.provider.block)
	suite.NoError(<-done)
}

func (suite *SyncServiceTestSuite) TestLockBackendOutageFallsBackToLocalLock() {
	suite.cache.LockErr = errors.New("redis unavailable")

	summary, err := suite.service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(2, summary.Attributes.Created)
}

func (suite *SyncServiceTestSuite) TestWithoutCache() {
	service := suite.newService(nil)

	summary, err := service.SyncAttributesAndTerms(suite.ctx, "")

	suite.Require().NoError(err)
	suite.Equal(1, summary.Terms.ImagesSideloaded)
}

func (suite *SyncServiceTestSuite) TestFetchProviderAttributes() {
	attrs, err := suite.service.FetchProviderAttributes(suite.ctx)

	suite.Require().NoError(err)
	suite.Require().Len(attrs, 2)
	suite.Equal("pa_color", attrs[0].Slug)
	suite.Require().NotNil(attrs[0].ModifiedAt)
	suite.Nil(attrs[1].ModifiedAt)

	suite.provider.configured = false
	_, err = suite.service.FetchProviderAttributes(suite.ctx)
	suite.ErrorIs(err, ErrNotConfigured)
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
