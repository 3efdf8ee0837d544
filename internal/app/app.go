package app

import (
	"context"
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/marianozunino/watchdrop/internal/chibisafe"
	"github.com/marianozunino/watchdrop/internal/cleanup"
	"github.com/marianozunino/watchdrop/internal/config"
	"github.com/marianozunino/watchdrop/internal/handler"
	"github.com/marianozunino/watchdrop/internal/history"
	middie "github.com/marianozunino/watchdrop/internal/middleware"
	"github.com/marianozunino/watchdrop/internal/notify"
	"github.com/marianozunino/watchdrop/internal/uploader"
	"github.com/marianozunino/watchdrop/internal/watcher"
)

// App wires the watch→upload pipeline, the cleanup worker and the local
// control server together. With an invalid configuration it starts inert:
// no watcher, no cleanup, no network calls, but the process stays up and the
// control API still answers /status.
type App struct {
	cfg      *config.Config
	server   *echo.Echo
	watcher  *watcher.Watcher
	cleanup  *cleanup.Worker
	history  *history.Store
	watching bool
}

// New creates the application. A failure to open the history store is
// degraded to a warning: uploads still work, they just leave no history.
func New(cfg *config.Config, sink notify.Sink) (*App, error) {
	log.Printf("Configuration:\n%s", spew.Sdump(cfg.Redacted()))

	var hist *history.Store
	if cfg.HistoryPath != "" {
		var err error
		hist, err = history.NewStore(cfg.HistoryPath, cfg.HistoryLimit)
		if err != nil {
			log.Printf("Warning: upload history unavailable: %v", err)
			hist = nil
		}
	}

	a := &App{
		cfg:     cfg,
		history: hist,
	}

	if cfg.IsValid() {
		client := chibisafe.NewClient(cfg)
		dispatcher := uploader.NewDispatcher(client, sink, historyOrNil(hist))
		a.watcher = watcher.New(cfg.WatchDir, dispatcher, sink, nil)
		a.cleanup = cleanup.NewWorker(cfg, client)
	} else {
		log.Printf("Configuration incomplete: watcher and cleanup disabled")
	}

	if cfg.ControlPort > 0 {
		a.server = newControlServer(cfg, a)
	}

	return a, nil
}

// historyOrNil keeps the dispatcher's nil check honest: a nil *Store inside
// a non-nil interface would dodge it.
func historyOrNil(hist *history.Store) uploader.HistoryStore {
	if hist == nil {
		return nil
	}
	return hist
}

// Start launches the watcher, the cleanup schedule and the control server.
// A watcher start failure is reported but not fatal; the rest keeps running.
func (a *App) Start() {
	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			log.Printf("Watcher failed to start: %v", err)
			a.watcher = nil
		} else {
			a.watching = true
		}
	}

	if a.cleanup != nil && a.cfg.CleanupEnabled {
		a.cleanup.Start()
	}

	if a.server != nil {
		addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.ControlPort)
		go func() {
			if err := a.server.Start(addr); err != nil {
				log.Printf("Control server stopped: %v", err)
			}
		}()
		log.Printf("Control server listening on %s", addr)
	}
}

// Stop halts background work.
func (a *App) Stop() {
	if a.watching {
		a.watcher.Stop()
		a.watching = false
	}
	if a.cleanup != nil && a.cfg.CleanupEnabled {
		a.cleanup.Stop()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Printf("Error closing history store: %v", err)
		}
	}
}

// Shutdown gracefully shuts the control server down.
func (a *App) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func newControlServer(cfg *config.Config, a *App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middie.LoopbackOnly())

	h := handler.NewHandler(cfg, a.cleanup, a.history, func() bool { return a.watching })

	e.GET("/status", h.HandleStatus)
	e.GET("/history", h.HandleHistory)
	e.DELETE("/history", h.HandleHistoryClear)
	e.POST("/cleanup", h.HandleCleanup)

	return e
}
