package model

import "time"

// UploadCandidate is a file path observed by the watcher that has not been
// uploaded yet. Candidates are transient and never persisted.
type UploadCandidate struct {
	Path string
}

// UploadOutcome is the terminal result of one upload attempt. Exactly one
// outcome is produced per candidate: either URL is set (success) or Reason
// is set (failure), never both.
type UploadOutcome struct {
	Path   string
	URL    string
	Reason string
}

func Success(path, url string) UploadOutcome {
	return UploadOutcome{Path: path, URL: url}
}

func Failure(path, reason string) UploadOutcome {
	return UploadOutcome{Path: path, Reason: reason}
}

// Succeeded reports whether the upload produced a public URL.
func (o UploadOutcome) Succeeded() bool {
	return o.Reason == ""
}

// RemoteFileRecord describes one file in a remote album listing. Records are
// fetched fresh on every cleanup pass and never cached across runs.
type RemoteFileRecord struct {
	UUID      string
	Name      string
	CreatedAt time.Time
}

// RecentUploadEntry is one row of the persisted upload history.
type RecentUploadEntry struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}
