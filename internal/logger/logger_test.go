package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNew_JSONWithRole(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Role: "client", Output: &buf})

	l.Debug("hidden")
	l.Info("sync finished", "created", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sync finished", rec["msg"])
	assert.Equal(t, "client", rec["role"])
	assert.EqualValues(t, 2, rec["created"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Format: "json", Output: &buf})

	e := echo.New()
	e.Use(RequestLogger(l))
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.EqualValues(t, 404, line["status"])
	assert.Equal(t, "/missing", line["path"])
}
