package race

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/solver"
	"delivery-route-service/internal/cvrp/types"
)

func buildTestProblem(t *testing.T) *solver.Problem {
	t.Helper()
	depot := geo.Point{Lat: 0, Lon: 0}
	customers := []types.Customer{
		{ID: "c1", Coords: geo.Point{Lat: 1, Lon: 0}, Volume: 1},
		{ID: "c2", Coords: geo.Point{Lat: 1, Lon: 1}, Volume: 1},
		{ID: "c3", Coords: geo.Point{Lat: 0, Lon: 1}, Volume: 1},
	}
	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 100, Count: 2, Enabled: true, StartDepot: depot, TSPDepot: depot},
	}
	loc := types.LocationConfig{PrimaryDepot: depot}
	locations, depotIdx := solver.BuildLocationList(loc, fleet, customers)
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

	p, err := solver.NewProblem(locations, depotIdx, matrix, fleet, customers, loc, solverCfg, nil)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}
	return p
}

func TestRunPicksLowestObjectiveWinner(t *testing.T) {
	p := buildTestProblem(t)
	cfg := types.SolverConfig{
		TimeLimitSeconds:          1,
		ParallelWorkers:           4,
		FirstSolutionStrategies:   []types.FirstSolutionStrategy{types.StrategyCheapestArc, types.StrategySavings},
		LocalSearchMetaheuristics: []types.LocalSearchMetaheuristic{types.MetaGuidedLocalSearch},
	}

	winner, all, err := Run(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 workers, got %d", len(all))
	}
	for _, r := range all {
		if r.Solution != nil && r.Solution.Objective < winner.Solution.Objective {
			t.Fatalf("winner objective %d is not the lowest (worker %d had %d)", winner.Solution.Objective, r.Worker.Index, r.Solution.Objective)
		}
	}
}

func TestRunSurvivesAllVehiclesDisabled(t *testing.T) {
	// A Problem with no vehicle instances makes every worker's solver.Solve
	// call fail with ErrNoEnabledVehicles; Run must report that every
	// worker failed rather than panicking on a nil winner.
	depot := geo.Point{Lat: 0, Lon: 0}
	customers := []types.Customer{{ID: "c1", Coords: geo.Point{Lat: 1, Lon: 0}, Volume: 1}}
	loc := types.LocationConfig{PrimaryDepot: depot}
	locations, depotIdx := solver.BuildLocationList(loc, nil, customers)
	n := len(locations)
	distances := make([][]float64, n)
	durations := make([][]float64, n)
	for i := range locations {
		distances[i] = make([]float64, n)
		durations[i] = make([]float64, n)
	}
	matrix := &types.DistanceMatrix{Locations: locations, Distances: distances, Durations: durations}
	p, err := solver.NewProblem(locations, depotIdx, matrix, nil, customers, loc, types.SolverConfig{}, nil)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}

	cfg := types.SolverConfig{TimeLimitSeconds: 1, ParallelWorkers: 3}
	winner, all, err := Run(context.Background(), p, cfg)
	if err == nil {
		t.Fatalf("expected an error when every worker fails")
	}
	if winner != nil {
		t.Fatalf("expected a nil winner, got %+v", winner)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 recorded results even though every worker failed, got %d", len(all))
	}
	for _, r := range all {
		if r.Solution != nil || r.Err == nil {
			t.Fatalf("expected every worker to record a nil solution and non-nil error, got %+v", r)
		}
	}
}

func TestBoardPublishAndReadBack(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	board := NewBoard(client, time.Minute)

	result := Result{
		Worker:   Worker{Index: 0, Strategy: types.StrategyCheapestArc, Metaheuristic: types.MetaGuidedLocalSearch},
		Solution: &types.Solution{Objective: 1234, Feasible: true, VehiclesUsed: 2},
	}

	ctx := context.Background()
	if err := board.Publish(ctx, "run-1", result, time.Unix(1000, 0)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	standings, err := board.Standings(ctx, "run-1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	s, ok := standings["0"]
	if !ok {
		t.Fatalf("expected standing for worker 0, got %v", standings)
	}
	if s.Objective != 1234 || !s.Feasible {
		t.Fatalf("unexpected standing: %+v", s)
	}
}
