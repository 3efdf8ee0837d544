package watcher

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/marianozunino/watchdrop/internal/model"
	"github.com/marianozunino/watchdrop/internal/notify"
)

// Dispatcher consumes the candidates the watcher emits.
type Dispatcher interface {
	Dispatch(path string) model.UploadOutcome
}

// Source delivers raw filesystem event payloads for one directory. A single
// payload may carry several paths separated by NUL or newline bytes; the
// watcher splits them. Close releases the underlying OS watch handle.
type Source interface {
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// ignoredArtifacts are filesystem bookkeeping files that must never become
// upload candidates.
var ignoredArtifacts = map[string]struct{}{
	".DS_Store": {},
	"Thumbs.db": {},
}

// Watcher monitors a single directory for newly created files and hands each
// surviving path to the dispatcher. It runs for the process lifetime once
// started.
type Watcher struct {
	dir        string
	source     Source
	dispatcher Dispatcher
	sink       notify.Sink
	done       chan struct{}
}

// New creates a watcher for dir. When source is nil, Start establishes a
// native OS notification source for the directory.
func New(dir string, dispatcher Dispatcher, sink notify.Sink, source Source) *Watcher {
	return &Watcher{
		dir:        dir,
		source:     source,
		dispatcher: dispatcher,
		sink:       sink,
		done:       make(chan struct{}),
	}
}

// Start begins monitoring. It returns an error if the directory does not
// exist or the OS watch mechanism cannot be established; the caller decides
// whether that is fatal.
func (w *Watcher) Start() error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch directory %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", w.dir)
	}

	if w.source == nil {
		source, err := NewFsnotifySource(w.dir)
		if err != nil {
			return fmt.Errorf("failed to start watch on %s: %w", w.dir, err)
		}
		w.source = source
	}

	log.Printf("Watching %s", w.dir)
	go w.run()
	return nil
}

// Stop releases the watch handle and ends the event loop.
func (w *Watcher) Stop() {
	close(w.done)
	if w.source != nil {
		if err := w.source.Close(); err != nil {
			log.Printf("Error closing watch source: %v", err)
		}
	}
}

func (w *Watcher) run() {
	for {
		select {
		case payload, ok := <-w.source.Events():
			if !ok {
				return
			}
			w.handlePayload(payload)
		case err, ok := <-w.source.Errors():
			if !ok {
				return
			}
			log.Printf("Watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// handlePayload splits a raw notification batch into individual paths and
// processes each independently. Duplicates are emitted as-is: a rapidly
// rewritten file legitimately uploads more than once.
func (w *Watcher) handlePayload(payload string) {
	for _, raw := range SplitPayload(payload) {
		w.handlePath(raw)
	}
}

func (w *Watcher) handlePath(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Printf("Skipping unresolvable path %q: %v", path, err)
		return
	}

	info, err := os.Stat(abs)
	if err != nil {
		// The file vanished between the event and this check.
		return
	}
	if info.IsDir() {
		return
	}
	if _, ignored := ignoredArtifacts[filepath.Base(abs)]; ignored {
		return
	}

	w.sink.FileDetected(abs)
	go w.dispatcher.Dispatch(abs)
}

// SplitPayload breaks a raw event payload on NUL and newline delimiters,
// trims whitespace and drops empty entries.
func SplitPayload(payload string) []string {
	fields := strings.FieldsFunc(payload, func(r rune) bool {
		return r == 0 || r == '\n' || r == '\r'
	})

	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths
}
