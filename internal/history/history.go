/*
Package history implements a persistent search-analytics store.

This package provides SQLite-based storage for search history with
graceful degradation if the database is unavailable: recording is
best-effort and a broken database never blocks a search.

The database uses modernc.org/sqlite (a pure Go, CGo-free
implementation).
*/
package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	_ "modernc.org/sqlite"
)

// Store defines the interface for search-history operations.
type Store interface {
	// Init initializes the database and runs migrations.
	Init() error

	// RecordSearch records a search query for analytics.
	RecordSearch(rec SearchRecord) error

	// RecentSearches retrieves records since a given time, newest first.
	RecentSearches(since time.Time) ([]SearchRecord, error)

	// Cleanup removes records older than the retention window.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SearchRecord represents one search query for analytics.
type SearchRecord struct {
	// SearchID is a unique identifier for this search (UUID).
	SearchID string `json:"search_id"`

	// QueryHash is the SHA256 hash of the search query for privacy.
	QueryHash string `json:"query_hash"`

	// Timestamp is when the search was performed.
	Timestamp time.Time `json:"timestamp"`

	// ResultsCount is the number of matches returned.
	ResultsCount int `json:"results_count"`
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a new SQLite store writing to dbPath. If the
// database cannot be opened later, the store disables itself and
// operations become no-ops.
func NewStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath:  dbPath,
		enabled: dbPath != "",
	}
}

// Init initializes the database and runs migrations.
//
// If initialization fails, the store is disabled and subsequent
// operations become no-ops (graceful degradation).
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			slog.Warn("history store disabled", "error", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			slog.Warn("history store disabled", "error", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			slog.Warn("history store disabled", "error", initErr)
			return
		}
	})

	return initErr
}

// RecordSearch records a search query. Failures are logged, not
// returned: analytics never block the search path.
func (s *SQLiteStore) RecordSearch(rec SearchRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO search_history (search_id, query_hash, timestamp, results_count)
		VALUES (?, ?, ?, ?)
	`

	// Timestamps are stored as RFC3339 UTC strings so range comparisons
	// stay lexicographic.
	_, err := s.db.Exec(query,
		rec.SearchID,
		rec.QueryHash,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.ResultsCount,
	)
	if err != nil {
		slog.Warn("failed to record search", "error", err)
	}

	return nil
}

// RecentSearches retrieves records since a given time, newest first.
func (s *SQLiteStore) RecentSearches(since time.Time) ([]SearchRecord, error) {
	if !s.enabled || s.db == nil {
		return []SearchRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT search_id, query_hash, timestamp, results_count
		FROM search_history
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var ts string
		if err := rows.Scan(&rec.SearchID, &rec.QueryHash, &ts, &rec.ResultsCount); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = parsed
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Cleanup removes records older than the retention window.
func (s *SQLiteStore) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)

	if _, err := s.db.Exec("DELETE FROM search_history WHERE timestamp < ?", cutoff); err != nil {
		slog.Warn("failed to cleanup search_history", "error", err)
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		slog.Warn("failed to vacuum database", "error", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// HashQuery creates a SHA256 hash of a query string for privacy.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
