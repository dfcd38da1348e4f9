// Package matrixtest provides a deterministic, in-memory MatrixProvider
// fake for solver/orchestrator tests, grounded on the teacher's
// MockDistanceProvider (internal/adapters/distance/mock_distance_provider.go)
// but adapted to the matrix-shaped port this module depends on instead of
// a single-pair lookup.
package matrixtest

import (
	"context"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// HaversineProvider synthesizes a matrix from haversine distance and a
// configurable average speed, with no network calls and no randomness --
// useful anywhere a test needs a MatrixProvider but doesn't care about
// real road geometry.
type HaversineProvider struct {
	// SpeedKPH is the flat average speed used to derive duration from
	// distance. Defaults to 40 km/h (spec.md §4.B's synthesis fallback)
	// when zero.
	SpeedKPH float64
	// Calls counts GetMatrix invocations, so tests can assert the matrix
	// is computed exactly once per solve (spec.md §5).
	Calls int
}

// GetMatrix implements routing.MatrixProvider.
func (p *HaversineProvider) GetMatrix(ctx context.Context, locations []geo.Point) (*types.DistanceMatrix, error) {
	p.Calls++

	speed := p.SpeedKPH
	if speed <= 0 {
		speed = 40
	}

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
			dur[i][j] = (km / speed) * 3600
		}
	}

	return &types.DistanceMatrix{Locations: locations, Distances: dist, Durations: dur}, nil
}
