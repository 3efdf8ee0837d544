package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marianozunino/watchdrop/internal/model"
)

// Store is a durable ring buffer of the most recent successful uploads,
// most-recent-first, truncated to a fixed limit on every append. The
// read-modify-write cycle is serialized behind a mutex so concurrent
// dispatches never lose updates.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	limit int
}

// NewStore opens (or creates) the history database at path.
func NewStore(path string, limit int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS recent_uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			data TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, limit: limit}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a successful upload and truncates the buffer to the limit.
func (s *Store) Append(entry model.RecentUploadEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(`INSERT INTO recent_uploads (data) VALUES (?)`, string(value)); err != nil {
		return err
	}

	_, err = s.db.Exec(`
		DELETE FROM recent_uploads
		WHERE id NOT IN (SELECT id FROM recent_uploads ORDER BY id DESC LIMIT ?)
	`, s.limit)
	return err
}

// List returns the stored entries, most recent first.
func (s *Store) List() ([]model.RecentUploadEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT data FROM recent_uploads ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.RecentUploadEntry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		var entry model.RecentUploadEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Clear removes all entries.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM recent_uploads`)
	return err
}
