// Package store persists local state in SQLite: the auth token and the
// history of captured utterances. Chat messages are not persisted.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Utterance is one committed voice capture.
type Utterance struct {
	ID         string
	Text       string
	RecordedAt time.Time
}

// Store provides read-write access to the local remi database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "remi", "remi.sqlite")
}

const schema = `
	CREATE TABLE IF NOT EXISTS auth (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updatedAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS utterances (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		recordedAt REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_utterances_recordedAt
		ON utterances(recordedAt DESC);
`

// Open opens (creating if needed) the database with WAL and applies the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const tokenKey = "token"

// PutToken stores the bearer token, replacing any previous one.
func (s *Store) PutToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO auth (key, value, updatedAt) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
	`, tokenKey, token, unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// CurrentToken returns the stored token. The second return is false
// when no token has been stored.
func (s *Store) CurrentToken() (string, bool) {
	var token string
	err := s.db.QueryRow(`SELECT value FROM auth WHERE key = ?`, tokenKey).Scan(&token)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// DeleteToken removes the stored token, if any.
func (s *Store) DeleteToken() error {
	if _, err := s.db.Exec(`DELETE FROM auth WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// AppendUtterance records one committed capture.
func (s *Store) AppendUtterance(text string, recordedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO utterances (id, text, recordedAt) VALUES (?, ?, ?)
	`, uuid.NewString(), text, unixFromTime(recordedAt))
	if err != nil {
		return fmt.Errorf("append utterance: %w", err)
	}
	return nil
}

// RecentUtterances returns up to limit captures, newest first.
func (s *Store) RecentUtterances(limit int) ([]Utterance, error) {
	rows, err := s.db.Query(`
		SELECT id, text, recordedAt
		FROM utterances
		ORDER BY recordedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query utterances: %w", err)
	}
	defer rows.Close()

	var utterances []Utterance
	for rows.Next() {
		var u Utterance
		var recordedAt float64
		if err := rows.Scan(&u.ID, &u.Text, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		u.RecordedAt = timeFromUnix(recordedAt)
		utterances = append(utterances, u)
	}
	return utterances, rows.Err()
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
