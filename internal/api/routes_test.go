package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaffler-consolidator/backend/internal/session"
	"github.com/snaffler-consolidator/backend/internal/testutil"
	"github.com/snaffler-consolidator/backend/internal/upload"
)

func newTestServer(allowFileDeletion bool) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler

	store := testutil.NewMockStorage()
	deps := &Dependencies{
		Store:      store,
		SessionMgr: session.NewManager(),
		UploadMgr:  upload.NewManager(store),
		Version:    "test",
	}
	RegisterRoutes(e, NewHandlers(deps), allowFileDeletion)
	return e
}

func TestRoutes_Health(t *testing.T) {
	e := newTestServer(true)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
}

func TestRoutes_ErrorHandlerShape(t *testing.T) {
	e := newTestServer(true)

	req := httptest.NewRequest(http.MethodGet, "/api/parse/missing/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Contains(t, apiErr.Message, "missing")
}

func TestRoutes_FileDeletionToggle(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		e := newTestServer(true)
		req := httptest.NewRequest(http.MethodDelete, "/api/files/some-id", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		// Route exists; the unknown file is a 404 from the handler.
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		e := newTestServer(false)
		req := httptest.NewRequest(http.MethodDelete, "/api/files/some-id", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
