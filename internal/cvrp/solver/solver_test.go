package solver

import (
	"context"
	"testing"
	"time"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// buildTestProblem assembles a tiny synthetic CVRP: one depot, four
// customers arranged on a square, and a single vehicle kind with ample
// capacity so every customer should be served by one route.
func buildTestProblem(t *testing.T) *Problem {
	t.Helper()

	depot := geo.Point{Lat: 0, Lon: 0}
	customers := []types.Customer{
		{ID: "c1", Coords: geo.Point{Lat: 1, Lon: 0}, Volume: 1},
		{ID: "c2", Coords: geo.Point{Lat: 1, Lon: 1}, Volume: 1},
		{ID: "c3", Coords: geo.Point{Lat: 0, Lon: 1}, Volume: 1},
		{ID: "c4", Coords: geo.Point{Lat: -1, Lon: 0}, Volume: 1},
	}

	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 100, Count: 1, Enabled: true, StartDepot: depot, TSPDepot: depot},
	}

	loc := types.LocationConfig{PrimaryDepot: depot}
	locations, depotIdx := BuildLocationList(loc, fleet, customers)

	n := len(locations)
	distances := make([][]float64, n)
	durations := make([][]float64, n)
	for i := range locations {
		distances[i] = make([]float64, n)
		durations[i] = make([]float64, n)
		for j := range locations {
			km := geo.HaversineKm(locations[i], locations[j])
			distances[i][j] = km * 1000
			durations[i][j] = km * 90
		}
	}
	matrix := &types.DistanceMatrix{Locations: locations, Distances: distances, Durations: durations}

	solverCfg := types.SolverConfig{SkipPenalty: 45000}

	p, err := NewProblem(locations, depotIdx, matrix, fleet, customers, loc, solverCfg, nil)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}
	return p
}

func TestSolveServesAllCustomersWhenCapacityAllows(t *testing.T) {
	p := buildTestProblem(t)

	sol, err := Solve(context.Background(), p, types.StrategyCheapestArc, types.MetaGuidedLocalSearch, 200*time.Millisecond, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sol.DroppedCustomers) != 0 {
		t.Fatalf("expected no dropped customers, got %d", len(sol.DroppedCustomers))
	}

	served := 0
	for _, r := range sol.Routes {
		served += len(r.Customers)
	}
	if served != 4 {
		t.Fatalf("expected 4 customers served across routes, got %d", served)
	}
	if !sol.Feasible {
		t.Fatalf("expected feasible solution")
	}
}

func TestSolveNoVehiclesReturnsError(t *testing.T) {
	p := buildTestProblem(t)
	p.Vehicles = nil

	_, err := Solve(context.Background(), p, types.StrategyCheapestArc, types.MetaGuidedLocalSearch, 50*time.Millisecond, 1)
	if err == nil {
		t.Fatalf("expected error when no vehicles are available")
	}
}

func TestSolveAllStrategiesProduceASolution(t *testing.T) {
	strategies := []types.FirstSolutionStrategy{
		types.StrategyCheapestArc,
		types.StrategySavings,
		types.StrategySweep,
		types.StrategyParallelCheapestIns,
		types.StrategyAutomatic,
	}
	for _, s := range strategies {
		p := buildTestProblem(t)
		sol, err := Solve(context.Background(), p, s, types.MetaGuidedLocalSearch, 100*time.Millisecond, 2)
		if err != nil {
			t.Fatalf("strategy %s: unexpected error: %v", s, err)
		}
		served := 0
		for _, r := range sol.Routes {
			served += len(r.Customers)
		}
		if served+len(sol.DroppedCustomers) != 4 {
			t.Fatalf("strategy %s: expected all 4 customers accounted for, got served=%d dropped=%d", s, served, len(sol.DroppedCustomers))
		}
	}
}
