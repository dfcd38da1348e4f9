// Package cache implements the persistent submatrix cache described in
// spec.md §6: JSON-serializable matrix entries content-addressed by a hash
// of (locations, sources, destinations), with time-based expiry.
//
// Two backends mirror the teacher's dual sql_*.go / sqlite_*.go split: a
// Postgres-backed cache for the long-lived service deployment and a
// SQLite-backed cache for local/CLI runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"delivery-route-service/internal/cvrp/geo"
)

// Entry is one cached matrix, matching the JSON schema in spec.md §6.
type Entry struct {
	Locations    []geo.Point `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Distances    [][]float64 `json:"distances"`
	Durations    [][]float64 `json:"durations"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Key returns the stable content-address for a (locations, sources,
// destinations) request, used as the cache's primary key.
func Key(locations []geo.Point, sources, destinations []int) string {
	// Sources/destinations order is meaningful to the query but not to the
	// identity of the underlying data, so we hash a canonical encoding
	// rather than the raw slices.
	type payload struct {
		Locations    []geo.Point
		Sources      []int
		Destinations []int
	}
	p := payload{Locations: locations, Sources: append([]int(nil), sources...), Destinations: append([]int(nil), destinations...)}
	sort.Ints(p.Sources)
	sort.Ints(p.Destinations)

	b, err := json.Marshal(p)
	if err != nil {
		// Marshal of plain structs of floats/ints never fails; if it
		// somehow did, falling back to a length-based key still keeps the
		// cache correct (if pessimistic about hit rate).
		return fmt.Sprintf("fallback-%d-%d-%d", len(locations), len(sources), len(destinations))
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Expired reports whether e is older than expiry as of now.
func (e Entry) Expired(now time.Time, expiry time.Duration) bool {
	if expiry <= 0 {
		return false
	}
	return now.Sub(e.Timestamp) > expiry
}

// MatrixCache is the port implemented by the Postgres and SQLite backends.
type MatrixCache interface {
	// Get returns the cached entry for key, or ok=false on a miss or
	// expired entry. Cache errors are logged and treated as a miss by
	// callers (spec.md §7) rather than propagated as fatal.
	Get(key string, expiry time.Duration) (Entry, bool, error)
	// Put stores (or replaces) the entry for key.
	Put(key string, entry Entry) error
	// Largest returns the largest entry ever stored (the "central
	// matrix" of spec.md §4.B), or ok=false if the cache is empty.
	Largest() (Entry, bool, error)
}
