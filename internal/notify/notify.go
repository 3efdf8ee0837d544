package notify

import "log"

// Sink receives pipeline events. Any presentation surface (menubar app,
// terminal, desktop notifier) can implement it without touching the core.
type Sink interface {
	FileDetected(path string)
	UploadSucceeded(path, url string)
	UploadFailed(path, reason string)
}

// LogSink writes events to the process log.
type LogSink struct{}

func (LogSink) FileDetected(path string) {
	log.Printf("File detected: %s", path)
}

func (LogSink) UploadSucceeded(path, url string) {
	log.Printf("Uploaded %s -> %s", path, url)
}

func (LogSink) UploadFailed(path, reason string) {
	log.Printf("Upload failed for %s: %s", path, reason)
}
