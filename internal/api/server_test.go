package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/alertledger/internal/api"
	"github.com/eshaffer321/alertledger/internal/api/dto"
	"github.com/eshaffer321/alertledger/internal/application/pipeline"
	"github.com/eshaffer321/alertledger/internal/application/service"
	"github.com/eshaffer321/alertledger/internal/domain/router"
	"github.com/eshaffer321/alertledger/internal/infrastructure/logging"
	"github.com/eshaffer321/alertledger/internal/infrastructure/rulestore"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

const costcoAlert = "Prime Visa: You made a $75.96 transaction with COSTCO WHSE #1696 on Nov 12, 2025 at 7:40 PM ET."

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	ingester := service.NewIngestService(rulestore.EmbeddedSource{}, repo, pipeline.Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 11, 13, 3, 30, 0, 0, time.UTC) },
	}, logging.Discard())
	server := api.NewServer(api.DefaultConfig(), repo, ingester, logging.Discard())
	return server, repo
}

func do(server *api.Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_AlertFlow(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(server, http.MethodPost, "/api/alerts", fmt.Sprintf(`{"text": %q}`, costcoAlert))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created dto.AlertResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.Len(t, created.Channels[router.DefaultChannel], 1)

	t.Run("GET /api/rows returns the stored row", func(t *testing.T) {
		rec := do(server, http.MethodGet, "/api/rows?run_id="+created.RunID, "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RowListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 1, response.TotalCount)
		assert.Equal(t, "Costco", response.Rows[0].Payee)
		assert.Equal(t, router.DefaultChannel, response.Rows[0].Channel)
	})

	t.Run("GET /api/runs/:id returns the completed run", func(t *testing.T) {
		rec := do(server, http.MethodGet, "/api/runs/"+created.RunID, "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, storage.RunStatusCompleted, response.Status)
		assert.Equal(t, service.SourceAPI, response.Source)
		assert.Equal(t, 1, response.RowCount)
	})

	t.Run("GET /api/runs lists the run", func(t *testing.T) {
		rec := do(server, http.MethodGet, "/api/runs", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("GET /api/stats counts the row", func(t *testing.T) {
		rec := do(server, http.MethodGet, "/api/stats", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StatsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.TotalRows)
	})
}

func TestServer_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(server, http.MethodGet, "/api/runs/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(server, http.MethodGet, "/api/unknown", "").Code)
}

func TestServer_WithoutIngester(t *testing.T) {
	server := api.NewServer(api.DefaultConfig(), storage.NewMockRepository(), nil, logging.Discard())

	rec := do(server, http.MethodPost, "/api/alerts", `{"text": "hello"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(server, http.MethodGet, "/api/rows", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("sets CORS headers for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles OPTIONS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/alerts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	server, _ := newTestServer(t)
	assert.NoError(t, server.Shutdown(context.Background()))
}
