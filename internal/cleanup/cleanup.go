package cleanup

import (
	"fmt"
	"log"
	"time"

	"github.com/marianozunino/watchdrop/internal/chibisafe"
	"github.com/marianozunino/watchdrop/internal/config"
	"github.com/marianozunino/watchdrop/internal/model"
	"github.com/marianozunino/watchdrop/internal/utils"
)

// checkInterval is how often the scheduled pass runs after the startup pass.
const checkInterval = 24 * time.Hour

// API is the slice of the remote service the worker needs.
type API interface {
	ListAlbumFiles() ([]chibisafe.AlbumFile, error)
	DeleteFiles(uuids []string) error
}

// Worker deletes remote files older than the configured age. It holds no
// state between passes; every invocation fetches a fresh album listing.
// Manual and scheduled passes may overlap; the remote delete is treated as
// atomic per batch either way.
type Worker struct {
	client   API
	ageDays  int
	stopChan chan struct{}
}

func NewWorker(cfg *config.Config, client API) *Worker {
	return &Worker{
		client:   client,
		ageDays:  cfg.CleanupAgeDays,
		stopChan: make(chan struct{}),
	}
}

// Start runs one pass right away, then repeats on a fixed daily schedule
// until Stop is called.
func (w *Worker) Start() {
	go func() {
		w.runOnce()

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.stopChan:
				log.Println("Cleanup worker stopped")
				return
			}
		}
	}()
	log.Printf("Cleanup worker started, removing files older than %d days every %v", w.ageDays, checkInterval)
}

// Stop halts the recurring schedule. An in-flight pass finishes on its own.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) runOnce() {
	deleted, err := w.PerformCleanup()
	if err != nil {
		log.Printf("Cleanup failed: %v", err)
		return
	}
	log.Printf("Cleanup complete, removed %d remote files", deleted)
}

// PerformCleanup fetches the album listing, selects files strictly older
// than the cutoff and issues one batch delete. An empty selection is a
// success, not an error. On a delete failure nothing is counted: the batch
// either succeeds whole or not at all.
func (w *Worker) PerformCleanup() (int, error) {
	files, err := w.client.ListAlbumFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to list album files: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -w.ageDays)
	expired := SelectExpired(files, cutoff)
	if len(expired) == 0 {
		return 0, nil
	}

	uuids := make([]string, len(expired))
	for i, rec := range expired {
		uuids[i] = rec.UUID
	}

	if err := w.client.DeleteFiles(uuids); err != nil {
		return 0, fmt.Errorf("failed to delete %d files: %w", len(uuids), err)
	}
	return len(uuids), nil
}

// SelectExpired returns the records created strictly before cutoff. Entries
// with a missing id or a timestamp that does not parse are skipped; they are
// neither counted nor errors.
func SelectExpired(files []chibisafe.AlbumFile, cutoff time.Time) []model.RemoteFileRecord {
	var expired []model.RemoteFileRecord
	for _, f := range files {
		if f.UUID == "" {
			continue
		}
		createdAt, err := utils.ParseTimestamp(f.CreatedAt)
		if err != nil {
			continue
		}
		if createdAt.Before(cutoff) {
			expired = append(expired, model.RemoteFileRecord{
				UUID:      f.UUID,
				Name:      f.Name,
				CreatedAt: createdAt,
			})
		}
	}
	return expired
}
