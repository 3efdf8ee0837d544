package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marianozunino/watchdrop/internal/chibisafe"
	"github.com/marianozunino/watchdrop/internal/cleanup"
	"github.com/marianozunino/watchdrop/internal/config"
	"github.com/marianozunino/watchdrop/internal/history"
	"github.com/marianozunino/watchdrop/internal/model"
)

func validConfig() *config.Config {
	return &config.Config{
		APIKey:         "k",
		AlbumUUID:      "a",
		WatchDir:       "/tmp/watched",
		CleanupEnabled: true,
		CleanupAgeDays: 30,
	}
}

func newTestHistory(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), 20)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func doRequest(h echo.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandleStatus(t *testing.T) {
	h := NewHandler(validConfig(), nil, nil, func() bool { return true })

	rec := doRequest(h.HandleStatus, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["config_valid"])
	assert.Equal(t, true, body["watching"])
	assert.Equal(t, "/tmp/watched", body["watch_dir"])
	assert.Equal(t, true, body["cleanup_enabled"])
	assert.Equal(t, float64(30), body["cleanup_days"])
}

func TestHandleStatusInvalidConfig(t *testing.T) {
	h := NewHandler(&config.Config{}, nil, nil, func() bool { return false })

	rec := doRequest(h.HandleStatus, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["config_valid"])
	assert.Equal(t, false, body["watching"])
}

func TestHandleHistory(t *testing.T) {
	store := newTestHistory(t)
	require.NoError(t, store.Append(model.RecentUploadEntry{
		Filename:  "shot.png",
		URL:       "https://cdn.example/shot.png",
		Timestamp: time.Now(),
	}))

	h := NewHandler(validConfig(), nil, store, func() bool { return true })

	rec := doRequest(h.HandleHistory, http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []model.RecentUploadEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "shot.png", entries[0].Filename)
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	h := NewHandler(validConfig(), nil, nil, func() bool { return true })

	rec := doRequest(h.HandleHistory, http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleHistoryClear(t *testing.T) {
	store := newTestHistory(t)
	require.NoError(t, store.Append(model.RecentUploadEntry{Filename: "a.png"}))

	h := NewHandler(validConfig(), nil, store, func() bool { return true })

	rec := doRequest(h.HandleHistoryClear, http.MethodDelete, "/history")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleHistoryClearWithoutStore(t *testing.T) {
	h := NewHandler(validConfig(), nil, nil, func() bool { return true })

	rec := doRequest(h.HandleHistoryClear, http.MethodDelete, "/history")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type stubAlbumAPI struct {
	files []chibisafe.AlbumFile
}

func (s *stubAlbumAPI) ListAlbumFiles() ([]chibisafe.AlbumFile, error) { return s.files, nil }
func (s *stubAlbumAPI) DeleteFiles(uuids []string) error               { return nil }

func TestHandleCleanup(t *testing.T) {
	api := &stubAlbumAPI{
		files: []chibisafe.AlbumFile{
			{UUID: "old", CreatedAt: time.Now().AddDate(0, 0, -60).Format(time.RFC3339)},
		},
	}
	worker := cleanup.NewWorker(validConfig(), api)
	h := NewHandler(validConfig(), worker, nil, func() bool { return true })

	rec := doRequest(h.HandleCleanup, http.MethodPost, "/cleanup")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body["deleted"])
}

func TestHandleCleanupWithoutWorker(t *testing.T) {
	h := NewHandler(validConfig(), nil, nil, func() bool { return true })

	rec := doRequest(h.HandleCleanup, http.MethodPost, "/cleanup")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
