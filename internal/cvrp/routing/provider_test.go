package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-route-service/internal/cvrp/cache"
	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// failingEngine always errors, used to exercise the fallback/synthesis path.
type failingEngine struct{ name string }

func (f failingEngine) Matrix(ctx context.Context, locations []geo.Point) (*types.DistanceMatrix, error) {
	return nil, errors.New(f.name + " unreachable")
}
func (f failingEngine) Name() string { return f.name }

// countingEngine returns a haversine-derived matrix and counts how many
// times it was actually asked to compute one, so tests can assert a cache
// hit or a central-matrix extraction avoided a live call.
type countingEngine struct {
	name  string
	calls int
}

func (c *countingEngine) Matrix(ctx context.Context, locations []geo.Point) (*types.DistanceMatrix, error) {
	c.calls++
	n := len(locations)
	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := range locations {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
		for j := range locations {
			if i == j {
				continue
			}
			km := geo.HaversineKm(locations[i], locations[j])
			dist[i][j] = km * 1000
			dur[i][j] = (km / 40.0) * 3600
		}
	}
	return &types.DistanceMatrix{Locations: locations, Distances: dist, Durations: dur}, nil
}
func (c *countingEngine) Name() string { return c.name }

// memCache is a minimal in-memory cache.MatrixCache fake for provider tests
// that don't need a real SQL backend.
type memCache struct {
	entries map[string]cache.Entry
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]cache.Entry)} }

func (m *memCache) Get(key string, expiry time.Duration) (cache.Entry, bool, error) {
	e, ok := m.entries[key]
	if !ok {
		return cache.Entry{}, false, nil
	}
	if e.Expired(time.Now(), expiry) {
		return cache.Entry{}, false, nil
	}
	return e, true, nil
}

func (m *memCache) Put(key string, entry cache.Entry) error {
	m.entries[key] = entry
	return nil
}

func (m *memCache) Largest() (cache.Entry, bool, error) {
	var best cache.Entry
	found := false
	for _, e := range m.entries {
		if !found || len(e.Locations) > len(best.Locations) {
			best = e
			found = true
		}
	}
	return best, found, nil
}

func samplePoints() []geo.Point {
	return []geo.Point{
		{Lat: 42.6958, Lon: 23.2317}, // depot
		{Lat: 42.70, Lon: 23.33},
		{Lat: 42.71, Lon: 23.34},
		{Lat: 42.80, Lon: 23.50},
		{Lat: 42.75, Lon: 23.40},
	}
}

// TestExtractFromCentralMatchesDirectQuery is spec.md §8 property 6: once
// the central matrix holds a superset of requested coordinates, the
// extracted submatrix must equal what a direct query over just those
// coordinates would produce.
func TestExtractFromCentralMatchesDirectQuery(t *testing.T) {
	all := samplePoints()
	engine := &countingEngine{name: "direct"}

	full, err := engine.Matrix(context.Background(), all)
	if err != nil {
		t.Fatalf("compute full matrix: %v", err)
	}

	p := &CompositeProvider{}
	p.adoptCentral(full)

	subset := []geo.Point{all[0], all[2], all[3]}
	sub, ok := p.extractFromCentral(subset)
	if !ok {
		t.Fatalf("expected central matrix to serve subset, got a miss")
	}

	direct, err := engine.Matrix(context.Background(), subset)
	if err != nil {
		t.Fatalf("compute direct subset matrix: %v", err)
	}

	for i := range subset {
		for j := range subset {
			if sub.Distances[i][j] != direct.Distances[i][j] {
				t.Fatalf("distance[%d][%d]: extracted %v != direct %v", i, j, sub.Distances[i][j], direct.Distances[i][j])
			}
			if sub.Durations[i][j] != direct.Durations[i][j] {
				t.Fatalf("duration[%d][%d]: extracted %v != direct %v", i, j, sub.Durations[i][j], direct.Durations[i][j])
			}
		}
	}
}

// TestExtractFromCentralMissWhenCoordAbsent confirms a request for a
// coordinate the central matrix never saw falls through to a live
// computation instead of silently returning wrong data.
func TestExtractFromCentralMissWhenCoordAbsent(t *testing.T) {
	all := samplePoints()
	p := &CompositeProvider{}
	p.adoptCentral(&types.DistanceMatrix{
		Locations: all[:2],
		Distances: [][]float64{{0, 1000}, {1000, 0}},
		Durations: [][]float64{{0, 90}, {90, 0}},
	})

	_, ok := p.extractFromCentral([]geo.Point{all[0], all[3]})
	if ok {
		t.Fatalf("expected a miss when a requested coordinate is outside the central matrix")
	}
}

// TestGetMatrixIdempotentAcrossCacheHit is spec.md §8 property 5: computing
// the matrix twice for identical inputs yields the same result, and the
// second call must be served from the persistent cache, not recomputed.
func TestGetMatrixIdempotentAcrossCacheHit(t *testing.T) {
	locations := samplePoints()
	primary := &countingEngine{name: "primary"}
	memc := newMemCache()

	p := NewCompositeProvider(primary, nil, memc, types.RoutingConfig{})

	first, err := p.GetMatrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("first GetMatrix: %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("expected exactly one live call to seed the cache, got %d", primary.calls)
	}

	// A fresh provider simulates a new process: no in-memory central
	// matrix, only the persistent cache backing it.
	fresh := NewCompositeProvider(primary, nil, memc, types.RoutingConfig{})
	second, err := fresh.GetMatrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("second GetMatrix: %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("expected the second call to be served from cache with no new live call, got %d total calls", primary.calls)
	}

	for i := range locations {
		for j := range locations {
			if first.Distances[i][j] != second.Distances[i][j] {
				t.Fatalf("distance[%d][%d] not idempotent: %v != %v", i, j, first.Distances[i][j], second.Distances[i][j])
			}
		}
	}
}

// TestSeedCentralFromPersistentCache confirms a freshly constructed
// provider (as in a new process) picks up the persistent cache's largest
// entry as its central matrix before making any live call, so submatrix
// extraction works across process restarts, not just within one
// already-warmed process.
func TestSeedCentralFromPersistentCache(t *testing.T) {
	all := samplePoints()
	memc := newMemCache()
	seedEngine := &countingEngine{name: "seed"}
	full, err := seedEngine.Matrix(context.Background(), all)
	if err != nil {
		t.Fatalf("compute seed matrix: %v", err)
	}
	memc.Put(cache.Key(all, indexRange(len(all)), indexRange(len(all))), cache.Entry{
		Locations: all, Distances: full.Distances, Durations: full.Durations, Timestamp: time.Now(),
	})

	explodingPrimary := failingEngine{name: "primary"}
	explodingFallback := failingEngine{name: "fallback"}
	p := NewCompositeProvider(explodingPrimary, explodingFallback, memc, types.RoutingConfig{})

	subset := []geo.Point{all[0], all[1]}
	got, err := p.GetMatrix(context.Background(), subset)
	if err != nil {
		t.Fatalf("GetMatrix: %v", err)
	}
	if got.Distances[0][1] != full.Distances[0][1] {
		t.Fatalf("expected submatrix extraction seeded from the persistent cache, got distance %v want %v", got.Distances[0][1], full.Distances[0][1])
	}
}

// TestSynthesizeFallbackWhenBothEnginesFail exercises the last-resort
// haversine-distance/flat-speed synthesis spec.md §4.B requires when both
// the primary and fallback engines error.
func TestSynthesizeFallbackWhenBothEnginesFail(t *testing.T) {
	primary := failingEngine{name: "primary"}
	fallback := failingEngine{name: "fallback"}
	p := NewCompositeProvider(primary, fallback, nil, types.RoutingConfig{})

	locations := samplePoints()
	m, err := p.GetMatrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("GetMatrix: %v", err)
	}

	for i := range locations {
		for j := range locations {
			if i == j {
				continue
			}
			wantKM := geo.HaversineKm(locations[i], locations[j]) * 1.3
			wantMeters := wantKM * 1000
			wantSeconds := (wantKM / 40.0) * 3600.0
			if m.Distances[i][j] != wantMeters {
				t.Fatalf("distance[%d][%d] = %v, want %v", i, j, m.Distances[i][j], wantMeters)
			}
			if m.Durations[i][j] != wantSeconds {
				t.Fatalf("duration[%d][%d] = %v, want %v", i, j, m.Durations[i][j], wantSeconds)
			}
		}
	}
}
