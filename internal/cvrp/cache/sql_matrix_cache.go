package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLMatrixCache is a Postgres-backed MatrixCache, following the teacher's
// SQLDistanceCache transaction and query style.
type SQLMatrixCache struct {
	DB *sql.DB
}

// NewSQLMatrixCache wraps an open Postgres connection pool.
func NewSQLMatrixCache(db *sql.DB) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db}
}

// InitSchema creates the matrix_cache table if it does not already exist.
func (s *SQLMatrixCache) InitSchema() error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	const q = `
	CREATE TABLE IF NOT EXISTS matrix_cache (
		cache_key      TEXT PRIMARY KEY,
		payload        TEXT NOT NULL,
		location_count INTEGER NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	);
	`
	if _, err := s.DB.Exec(q); err != nil {
		return fmt.Errorf("matrix cache: init schema: %w", err)
	}
	return nil
}

// Get returns the cached entry for key, or ok=false on a miss or expired
// entry.
func (s *SQLMatrixCache) Get(key string, expiry time.Duration) (Entry, bool, error) {
	if s.DB == nil {
		return Entry{}, false, errors.New("matrix cache: db is nil")
	}

	const q = `SELECT payload, created_at FROM matrix_cache WHERE cache_key = $1;`

	var payload string
	var createdAt time.Time
	err := s.DB.QueryRow(q, key).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: get: query: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		// Malformed/stale-schema entries are logged and ignored, never
		// fatal (spec.md §7 cache-error handling).
		return Entry{}, false, fmt.Errorf("matrix cache: get: decode payload: %w", err)
	}
	e.Timestamp = createdAt

	if e.Expired(time.Now(), expiry) {
		return Entry{}, false, nil
	}

	return e, true, nil
}

// Put stores (or replaces) the entry for key.
func (s *SQLMatrixCache) Put(key string, entry Entry) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("matrix cache: put: encode payload: %w", err)
	}

	const q = `
	INSERT INTO matrix_cache (cache_key, payload, location_count, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		location_count = EXCLUDED.location_count,
		created_at = EXCLUDED.created_at;
	`
	if _, err := s.DB.Exec(q, key, string(payload), len(entry.Locations), entry.Timestamp); err != nil {
		return fmt.Errorf("matrix cache: put: exec: %w", err)
	}
	return nil
}

// Largest returns the entry with the most locations ever stored, the
// "central matrix" submatrix extraction reads from.
func (s *SQLMatrixCache) Largest() (Entry, bool, error) {
	if s.DB == nil {
		return Entry{}, false, errors.New("matrix cache: db is nil")
	}

	const q = `
	SELECT payload, created_at FROM matrix_cache
	ORDER BY location_count DESC
	LIMIT 1;
	`
	var payload string
	var createdAt time.Time
	err := s.DB.QueryRow(q).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: largest: query: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Entry{}, false, fmt.Errorf("matrix cache: largest: decode payload: %w", err)
	}
	e.Timestamp = createdAt

	return e, true, nil
}
