package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marianozunino/watchdrop/internal/model"
)

// HandleStatus reports configuration validity and watcher state.
func (h *Handler) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"config_valid":    h.cfg.IsValid(),
		"watching":        h.watching(),
		"watch_dir":       h.cfg.WatchDir,
		"cleanup_enabled": h.cfg.CleanupEnabled,
		"cleanup_days":    h.cfg.CleanupAgeDays,
	})
}

// HandleHistory returns the recent uploads, most recent first.
func (h *Handler) HandleHistory(c echo.Context) error {
	if h.history == nil {
		return c.JSON(http.StatusOK, []model.RecentUploadEntry{})
	}

	entries, err := h.history.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if entries == nil {
		entries = []model.RecentUploadEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// HandleHistoryClear wipes the upload history.
func (h *Handler) HandleHistoryClear(c echo.Context) error {
	if h.history != nil {
		if err := h.history.Clear(); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleCleanup triggers a manual retention pass. It may run concurrently
// with a scheduled pass; neither guards against the other.
func (h *Handler) HandleCleanup(c echo.Context) error {
	if h.worker == nil {
		return c.JSON(http.StatusConflict, map[string]string{
			"error": "cleanup is disabled",
		})
	}

	deleted, err := h.worker.PerformCleanup()
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}
