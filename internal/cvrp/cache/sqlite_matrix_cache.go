package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SqliteMatrixCache is a SQLite-backed MatrixCache for local/CLI runs,
// following the teacher's SqliteDistanceCache placeholder/transaction
// style (`?` placeholders, INSERT OR REPLACE).
type SqliteMatrixCache struct {
	DB *sql.DB
}

// NewSqliteMatrixCache wraps an open SQLite connection.
func NewSqliteMatrixCache(db *sql.DB) *SqliteMatrixCache {
	return &SqliteMatrixCache{DB: db}
}

// InitSchema creates the matrix_cache table if it does not already exist.
func (s *SqliteMatrixCache) InitSchema() error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	const q = `
	CREATE TABLE IF NOT EXISTS matrix_cache (
		cache_key      TEXT PRIMARY KEY,
		payload        TEXT NOT NULL,
		location_count INTEGER NOT NULL,
		created_at     TEXT NOT NULL
	);
	`
	if _, err := s.DB.Exec(q); err != nil {
		return fmt.Errorf("matrix cache: init schema: %w", err)
	}
	return nil
}

// Get returns the cached entry for key, or ok=false on a miss or expired
// entry.
func (s *SqliteMatrixCache) Get(key string, expiry time.Duration) (Entry, bool, error) {
	if s.DB == nil {
		return Entry{}, false, errors.New("matrix cache: db is nil")
	}

	const q = `SELECT payload, created_at FROM matrix_cache WHERE cache_key = ?;`

	var payload, createdAtStr string
	err := s.DB.QueryRow(q, key).Scan(&payload, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: get: query: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: get: parse timestamp: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: get: decode payload: %w", err)
	}
	e.Timestamp = createdAt

	if e.Expired(time.Now(), expiry) {
		return Entry{}, false, nil
	}

	return e, true, nil
}

// Put stores (or replaces) the entry for key.
func (s *SqliteMatrixCache) Put(key string, entry Entry) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("matrix cache: put: encode payload: %w", err)
	}

	const q = `
	INSERT OR REPLACE INTO matrix_cache (cache_key, payload, location_count, created_at)
	VALUES (?, ?, ?, ?);
	`
	if _, err := s.DB.Exec(q, key, string(payload), len(entry.Locations), entry.Timestamp.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("matrix cache: put: exec: %w", err)
	}
	return nil
}

// Largest returns the entry with the most locations ever stored.
func (s *SqliteMatrixCache) Largest() (Entry, bool, error) {
	if s.DB == nil {
		return Entry{}, false, errors.New("matrix cache: db is nil")
	}

	const q = `
	SELECT payload, created_at FROM matrix_cache
	ORDER BY location_count DESC
	LIMIT 1;
	`
	var payload, createdAtStr string
	err := s.DB.QueryRow(q).Scan(&payload, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: largest: query: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: largest: parse timestamp: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: largest: decode payload: %w", err)
	}
	e.Timestamp = createdAt

	return e, true, nil
}
