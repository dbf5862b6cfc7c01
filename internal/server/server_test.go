package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/authority-cli/internal/store"
)

func fixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../viaf/testdata/search.xml")
	require.NoError(t, err)
	return string(raw)
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st, Options{}), st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := New(nil, Options{})
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProcess(t *testing.T) {
	srv := New(nil, Options{})
	rec := do(t, srv, http.MethodPost, "/api/v1/process", fixture(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Version  float64 `json:"version"`
		Total    int     `json:"total"`
		RunID    string  `json:"run_id"`
		Clusters []struct {
			Basic struct {
				ID string `json:"id"`
			} `json:"basic"`
		} `json:"clusters"`
		Failures []struct {
			Record int    `json:"record"`
			Field  string `json:"field"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 1.1, body.Version, 0.0001)
	assert.Equal(t, 197, body.Total)
	assert.Empty(t, body.RunID)
	require.Len(t, body.Clusters, 2)
	assert.Equal(t, "27066713", body.Clusters[0].Basic.ID)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, 2, body.Failures[0].Record)
	assert.Equal(t, "viafID", body.Failures[0].Field)
}

func TestProcess_BadDocument(t *testing.T) {
	srv := New(nil, Options{})

	rec := do(t, srv, http.MethodPost, "/api/v1/process", `<searchRetrieveResponse><version>`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/process", `<r><version>1.1</version></r>`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "numberOfRecords")
}

func TestProcess_SaveWithoutStore(t *testing.T) {
	srv := New(nil, Options{})
	rec := do(t, srv, http.MethodPost, "/api/v1/process?save=true", fixture(t))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProcessSaveAndRead(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/process?save=true", fixture(t))
	require.Equal(t, http.StatusOK, rec.Code)
	var processed struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &processed))
	require.NotEmpty(t, processed.RunID)

	rec = do(t, srv, http.MethodGet, "/api/v1/clusters/27066713", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored store.StoredCluster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "27066713", stored.ID)
	assert.Equal(t, processed.RunID, stored.RunID)
	assert.Equal(t, "Kerouac, Jack, 1922-1969.", stored.Heading)
	require.NotNil(t, stored.Cluster)
	assert.Len(t, stored.Cluster.Sources, 4)

	rec = do(t, srv, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, processed.RunID, runs[0].ID)
	assert.Equal(t, "api", runs[0].Source)
	assert.Equal(t, 2, runs[0].Clusters)
	assert.Equal(t, 1, runs[0].Failures)
}

func TestGetCluster_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/clusters/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns_Limit(t *testing.T) {
	srv, _ := newTestServer(t)
	for range 3 {
		rec := do(t, srv, http.MethodPost, "/api/v1/process?save=true", fixture(t))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/runs?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)

	rec = do(t, srv, http.MethodGet, "/api/v1/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadEndpoints_NoStore(t *testing.T) {
	srv := New(nil, Options{})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/api/v1/runs", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/api/v1/clusters/1", "").Code)
}

func TestCORS(t *testing.T) {
	srv := New(nil, Options{CORSOrigins: []string{"https://example.com"}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://other.example")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFoundRoute(t *testing.T) {
	srv := New(nil, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope", "").Code)
}
