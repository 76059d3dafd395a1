package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"catalogsync/internal/common"
	"catalogsync/internal/logger"
	"catalogsync/internal/middleware"
	"catalogsync/internal/protocol"
	"catalogsync/internal/services"
	"catalogsync/internal/tracker"
	"catalogsync/testhelpers"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

const ns = protocol.Namespace

type providerFixture struct {
	store        *testhelpers.MemoryStore
	storage      *testhelpers.MemoryStorage
	catalog      services.CatalogService
	e            *echo.Echo
	secret       string
	editorSecret string
	clock        time.Time
}

func newProviderFixture(t *testing.T) *providerFixture {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()

	f := &providerFixture{
		store:   testhelpers.NewMemoryStore(),
		storage: testhelpers.NewMemoryStorage(),
		clock:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	stamps := tracker.New(f.store.Modifications(), log, tracker.WithClock(func() time.Time { return f.clock }))
	f.catalog = services.NewCatalogService(f.store.Attributes(), f.store.Terms(), f.store.Assets(), f.storage, stamps, log)
	listing := services.NewListingService(f.store.Attributes(), f.store.Terms(), f.store.Assets(), stamps, f.storage, log)
	auth := services.NewAuthService(f.store.Credentials(), "", log)

	var err error
	f.secret, err = auth.CreateCredential(ctx, "sync-bot", []string{"manage_catalog"})
	if err != nil {
		t.Fatalf("create credential: %v", err)
	}
	f.editorSecret, err = auth.CreateCredential(ctx, "editor", []string{"edit_posts"})
	if err != nil {
		t.Fatalf("create credential: %v", err)
	}

	f.e = echo.New()
	RegisterProviderRoutes(f.e, ProviderRoutes{
		Protocol:   NewProtocolHandlers(listing, log),
		Catalog:    NewCatalogHandlers(f.catalog, listing, log),
		Auth:       middleware.BasicAuth(auth, nil, log),
		Capability: "manage_catalog",
		Audit:      middleware.NewAuditMiddleware(log),
		Version:    middleware.NewVersionMiddleware(),
	})
	return f
}

func (f *providerFixture) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req.SetBasicAuth("sync-bot", f.secret)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *providerFixture) get(path string) *httptest.ResponseRecorder {
	return f.request(http.MethodGet, path, nil, "")
}

func (f *providerFixture) postJSON(method, path, body string) *httptest.ResponseRecorder {
	return f.request(method, path, strings.NewReader(body), echo.MIMEApplicationJSON)
}

func imageUpload(field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, _ := w.CreatePart(h)
	_, _ = part.Write(data)
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

type ProviderHandlersTestSuite struct {
	suite.Suite
	f *providerFixture
}

func (suite *ProviderHandlersTestSuite) SetupTest() {
	suite.f = newProviderFixture(suite.T())
}

func (suite *ProviderHandlersTestSuite) decodeError(rec *httptest.ResponseRecorder) common.ErrorResponse {
	var resp common.ErrorResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (suite *ProviderHandlersTestSuite) seedColor() {
	rec := suite.f.postJSON(http.MethodPost, ns+"/catalog/attributes", `{"name":"Color","slug":"color","type":"color"}`)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	rec = suite.f.postJSON(http.MethodPost, ns+"/catalog/attributes/pa_color/terms", `{"name":"Red","description":"Warm","price":"2.50","suffix":"EUR"}`)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (suite *ProviderHandlersTestSuite) TestListAttributes() {
	suite.seedColor()

	rec := suite.f.get(ns + "/attributes")

	suite.Equal(http.StatusOK, rec.Code)
	suite.Equal("v1", rec.Header().Get("X-API-Version"))
	var attrs []map[string]any
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &attrs))
	suite.Require().Len(attrs, 1)
	suite.Equal("pa_color", attrs[0]["slug"])
	suite.Equal("Color", attrs[0]["name"])
	suite.Equal("color", attrs[0]["type"])
	suite.Equal("menu_order", attrs[0]["order_by"])
	suite.Equal(false, attrs[0]["has_archives"])
	suite.Equal("2024-06-01T12:00:00Z", attrs[0]["modified_gmt"])
}

func (suite *ProviderHandlersTestSuite) TestListAttributes_ModifiedSince() {
	suite.seedColor()

	rec := suite.f.get(ns + "/attributes?modified_since=2024-06-01T12:00:00Z")
	suite.Equal(http.StatusOK, rec.Code)
	suite.JSONEq(`[]`, rec.Body.String())

	rec = suite.f.get(ns + "/attributes?modified_since=2024-06-01T11:59:59")
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `"pa_color"`)
}

func (suite *ProviderHandlersTestSuite) TestListAttributes_MalformedFilter() {
	rec := suite.f.get(ns + "/attributes?modified_since=not-a-date")

	suite.Equal(http.StatusBadRequest, rec.Code)
	resp := suite.decodeError(rec)
	suite.Equal("INVALID_PARAM", resp.Error.Code)
	suite.Equal("modified_since", resp.Error.Details["param"])
	suite.Equal(0, suite.f.store.Calls("attributes.List"))
}

func (suite *ProviderHandlersTestSuite) TestGetAttribute() {
	suite.seedColor()

	for _, slug := range []string{"pa_color", "color"} {
		rec := suite.f.get(ns + "/attributes/" + slug)
		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"slug":"pa_color"`)
	}

	rec := suite.f.get(ns + "/attributes/pa_size")
	suite.Equal(http.StatusNotFound, rec.Code)
	resp := suite.decodeError(rec)
	suite.Equal("NOT_FOUND", resp.Error.Code)
	suite.Equal("pa_size", resp.Error.Details["slug"])
}

func (suite *ProviderHandlersTestSuite) TestListTerms() {
	suite.seedColor()

	rec := suite.f.get(ns + "/attributes/pa_color/terms")

	suite.Require().Equal(http.StatusOK, rec.Code)
	var terms []map[string]any
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &terms))
	suite.Require().Len(terms, 1)
	suite.Equal("red", terms[0]["slug"])
	suite.Equal("Warm", terms[0]["description"])
	suite.Nil(terms[0]["swatch_image_url"])
	suite.Equal("2024-06-01T12:00:00Z", terms[0]["modified_gmt"])
	meta := terms[0]["meta"].(map[string]any)
	suite.Equal("2.50", meta["term_price"])
	suite.Equal("EUR", meta["_term_suffix"])
}

func (suite *ProviderHandlersTestSuite) TestListTerms_InvalidTaxonomy() {
	suite.seedColor()

	for _, slug := range []string{"color", "pa_size"} {
		rec := suite.f.get(ns + "/attributes/" + slug + "/terms")
		suite.Equal(http.StatusBadRequest, rec.Code)
		resp := suite.decodeError(rec)
		suite.Equal("INVALID_ATTRIBUTE_TAXONOMY", resp.Error.Code)
		suite.Equal(slug, resp.Error.Details["slug"])
	}

	rec := suite.f.get(ns + "/attributes/pa_color/terms?modified_since=June")
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *ProviderHandlersTestSuite) TestListTerms_ListingFailure() {
	suite.seedColor()
	suite.f.store.FailOn("terms.ListByAttribute", "", errors.New("db down"))

	rec := suite.f.get(ns + "/attributes/pa_color/terms")

	suite.Equal(http.StatusInternalServerError, rec.Code)
	suite.Equal("SERVER_ERROR", suite.decodeError(rec).Error.Code)
}

func (suite *ProviderHandlersTestSuite) TestAuth() {
	req := httptest.NewRequest(http.MethodGet, ns+"/attributes", nil)
	rec := httptest.NewRecorder()
	suite.f.e.ServeHTTP(rec, req)
	suite.Equal(http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, ns+"/attributes", nil)
	req.SetBasicAuth("editor", suite.f.editorSecret)
	rec = httptest.NewRecorder()
	suite.f.e.ServeHTTP(rec, req)
	suite.Equal(http.StatusForbidden, rec.Code)
	suite.Equal("FORBIDDEN", suite.decodeError(rec).Error.Code)
}

func (suite *ProviderHandlersTestSuite) TestTermImageLifecycle() {
	suite.seedColor()

	body, contentType := imageUpload("image", "red.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	rec := suite.f.request(http.MethodPut, ns+"/catalog/terms/2/image", body, contentType)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Equal(1, suite.f.storage.Len())

	rec = suite.f.get(ns + "/attributes/pa_color/terms")
	var terms []protocol.Term
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &terms))
	suite.Require().Len(terms, 1)
	suite.Require().NotNil(terms[0].SwatchImageURL)
	suite.True(strings.HasPrefix(*terms[0].SwatchImageURL, suite.f.storage.BaseURL+"/swatches/"))
	suite.Require().NotNil(terms[0].Meta.ThumbnailID)

	rec = suite.f.request(http.MethodDelete, ns+"/catalog/terms/2/image", nil, "")
	suite.Equal(http.StatusNoContent, rec.Code)

	rec = suite.f.get(ns + "/attributes/pa_color/terms")
	suite.Contains(rec.Body.String(), `"swatch_image_url":null`)
}

func (suite *ProviderHandlersTestSuite) TestSetTermImage_Validation() {
	suite.seedColor()

	rec := suite.f.request(http.MethodPut, ns+"/catalog/terms/2/image", strings.NewReader(""), echo.MIMEMultipartForm+"; boundary=x")
	suite.Equal(http.StatusBadRequest, rec.Code)

	body, contentType := imageUpload("image", "notes.txt", "text/plain", []byte("hello"))
	rec = suite.f.request(http.MethodPut, ns+"/catalog/terms/2/image", body, contentType)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("VALIDATION_ERROR", suite.decodeError(rec).Error.Code)

	body, contentType = imageUpload("image", "red.png", "image/png", []byte("png"))
	rec = suite.f.request(http.MethodPut, ns+"/catalog/terms/99/image", body, contentType)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *ProviderHandlersTestSuite) TestUpdateTerm_BumpsModifiedGMT() {
	suite.seedColor()
	suite.f.clock = suite.f.clock.Add(time.Hour)

	rec := suite.f.postJSON(http.MethodPut, ns+"/catalog/terms/2", `{"description":"Cool"}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = suite.f.get(ns + "/attributes/pa_color/terms?modified_since=2024-06-01T12:00:00Z")
	suite.Require().Equal(http.StatusOK, rec.Code)
	var terms []protocol.Term
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &terms))
	suite.Require().Len(terms, 1)
	suite.Equal("Red", terms[0].Name)
	suite.Equal("Cool", terms[0].Description)
	suite.Equal("2024-06-01T13:00:00Z", *terms[0].ModifiedGMT)
}

func (suite *ProviderHandlersTestSuite) TestUpdateAttribute() {
	suite.seedColor()

	rec := suite.f.postJSON(http.MethodPut, ns+"/catalog/attributes/1", `{"order_by":"name","has_archives":true}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Contains(rec.Body.String(), `"order_by":"name"`)
	suite.Contains(rec.Body.String(), `"has_archives":true`)
	suite.Contains(rec.Body.String(), `"type":"color"`)

	rec = suite.f.postJSON(http.MethodPut, ns+"/catalog/attributes/1", `{"type":"radio"}`)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("type", mapKey(suite.decodeError(rec).Error.Details))

	rec = suite.f.postJSON(http.MethodPut, ns+"/catalog/attributes/abc", `{}`)
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = suite.f.postJSON(http.MethodPut, ns+"/catalog/attributes/42", `{"name":"x"}`)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *ProviderHandlersTestSuite) TestCreateTerm_UnknownAttribute() {
	rec := suite.f.postJSON(http.MethodPost, ns+"/catalog/attributes/pa_size/terms", `{"name":"Large"}`)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func mapKey(m map[string]string) string {
	for k := range m {
		return k
	}
	return ""
}

func TestProviderHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderHandlersTestSuite))
}
