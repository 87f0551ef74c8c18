package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

func testDaemon(t *testing.T, store *buildstore.Store) *Daemon {
	t.Helper()
	src := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<html>index</html>"), 0o644))

	cfg := &config.Config{Site: config.SiteConfig{Title: "T"}}
	cfg.Normalize()

	d, err := New(cfg, Options{Source: src, Output: out, Listen: ":0", Store: store})
	require.NoError(t, err)
	return d
}

func TestRoutes_Healthz_OK(t *testing.T) {
	d := testDaemon(t, nil)

	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestRoutes_ServesPublishedSite(t *testing.T) {
	d := testDaemon(t, nil)

	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "index")
}

func TestRoutes_Metrics_Exposed(t *testing.T) {
	d := testDaemon(t, nil)

	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "blogbuilder_builds_total")
}

func TestHandleRuns_NoStore_NotFound(t *testing.T) {
	d := testDaemon(t, nil)

	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRuns_ReturnsRecordedRuns(t *testing.T) {
	store, err := buildstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.RecordRun(context.Background(),
		buildstore.Run{ID: "r1", StartedAt: time.Unix(1447459200, 0), Duration: 12 * time.Millisecond, Published: 2},
		nil))

	d := testDaemon(t, store)

	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "r1", resp[0].ID)
	require.Equal(t, 2, resp[0].Published)
}
