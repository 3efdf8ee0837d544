package handler

import (
	"github.com/marianozunino/watchdrop/internal/cleanup"
	"github.com/marianozunino/watchdrop/internal/config"
	"github.com/marianozunino/watchdrop/internal/history"
)

// Handler serves the local control API consumed by the presentation layer.
type Handler struct {
	cfg      *config.Config
	worker   *cleanup.Worker
	history  *history.Store
	watching func() bool
}

// NewHandler creates a handler. worker and history may be nil when the
// corresponding feature is disabled; watching reports whether the directory
// watcher is currently running.
func NewHandler(cfg *config.Config, worker *cleanup.Worker, history *history.Store, watching func() bool) *Handler {
	return &Handler{
		cfg:      cfg,
		worker:   worker,
		history:  history,
		watching: watching,
	}
}
