package uploader

import (
	"log"
	"path/filepath"
	"time"

	"github.com/marianozunino/watchdrop/internal/model"
	"github.com/marianozunino/watchdrop/internal/notify"
)

// Uploader pushes one file to the remote service and returns its public URL.
type Uploader interface {
	Upload(path string) (string, error)
}

// HistoryStore records successful uploads. Appends must be safe under
// concurrent dispatches.
type HistoryStore interface {
	Append(entry model.RecentUploadEntry) error
}

// Dispatcher turns upload candidates into outcomes: exactly one outcome per
// candidate, routed to the notification sink, with successes appended to the
// history store. No retries; a failed candidate is done.
type Dispatcher struct {
	uploader Uploader
	sink     notify.Sink
	history  HistoryStore
}

// NewDispatcher creates a dispatcher. history may be nil when no durable
// history is configured.
func NewDispatcher(uploader Uploader, sink notify.Sink, history HistoryStore) *Dispatcher {
	return &Dispatcher{
		uploader: uploader,
		sink:     sink,
		history:  history,
	}
}

// Dispatch processes a single candidate path. Safe to call from any number
// of goroutines; dispatches share no mutable state.
func (d *Dispatcher) Dispatch(path string) model.UploadOutcome {
	url, err := d.uploader.Upload(path)
	if err != nil {
		outcome := model.Failure(path, err.Error())
		d.sink.UploadFailed(path, outcome.Reason)
		return outcome
	}

	outcome := model.Success(path, url)
	d.sink.UploadSucceeded(path, url)

	if d.history != nil {
		entry := model.RecentUploadEntry{
			Filename:  filepath.Base(path),
			URL:       url,
			Timestamp: time.Now(),
		}
		if err := d.history.Append(entry); err != nil {
			log.Printf("Failed to record upload in history: %v", err)
		}
	}

	return outcome
}
