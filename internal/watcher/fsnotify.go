package watcher

import (
	"github.com/fsnotify/fsnotify"
)

// FsnotifySource adapts a native OS file notification stream (inotify,
// FSEvents, kqueue, ReadDirectoryChangesW) to the Source interface. Only
// creation and rename-into events are forwarded; writes to existing files
// are not re-uploaded.
type FsnotifySource struct {
	watcher *fsnotify.Watcher
	events  chan string
	errors  chan error
	done    chan struct{}
}

// NewFsnotifySource establishes a watch on dir. Fails when the OS watch
// cannot be created or the directory cannot be added to it.
func NewFsnotifySource(dir string) (*FsnotifySource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	s := &FsnotifySource{
		watcher: w,
		events:  make(chan string),
		errors:  make(chan error),
		done:    make(chan struct{}),
	}
	go s.forward()
	return s, nil
}

func (s *FsnotifySource) forward() {
	defer close(s.events)
	defer close(s.errors)

	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case s.events <- ev.Name:
			case <-s.done:
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *FsnotifySource) Events() <-chan string {
	return s.events
}

func (s *FsnotifySource) Errors() <-chan error {
	return s.errors
}

// Close releases the OS watch handle.
func (s *FsnotifySource) Close() error {
	close(s.done)
	return s.watcher.Close()
}
