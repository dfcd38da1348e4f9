package orchestrator

import (
	"context"
	"testing"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/matrixtest"
	"delivery-route-service/internal/cvrp/types"
	"delivery-route-service/internal/cvrp/warehouse"
)

// TestRunTwoDepotsTwoVehicles runs the fixture of spec.md §8 scenario S1
// (one INTERNAL and one CENTER vehicle on two depots) and checks that all
// four customers are served, nothing is dropped, and the matrix is
// computed once. Which vehicle serves which customer is not asserted.
func TestRunTwoDepotsTwoVehicles(t *testing.T) {
	d0 := geo.Point{Lat: 42.6958, Lon: 23.2317}
	d1 := geo.Point{Lat: 42.6974, Lon: 23.3238}

	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 100, Count: 1, Enabled: true, StartDepot: d0, TSPDepot: d0},
		{Kind: types.KindCenter, Capacity: 50, Count: 1, Enabled: true, StartDepot: d1, TSPDepot: d1},
	}

	customers := []types.Customer{
		{ID: "c1", Coords: geo.Point{Lat: 42.70, Lon: 23.33}, Volume: 20},
		{ID: "c2", Coords: geo.Point{Lat: 42.71, Lon: 23.34}, Volume: 15},
		{ID: "c3", Coords: geo.Point{Lat: 42.80, Lon: 23.50}, Volume: 30},
		{ID: "c4", Coords: geo.Point{Lat: 42.75, Lon: 23.40}, Volume: 25},
	}

	loc := types.LocationConfig{
		PrimaryDepot:             d0,
		CenterAnchor:             d1,
		CenterZoneRadiusKM:       1.5,
		CenterDiscount:           0.5,
		EnableCenterZonePriority: true,
		EnableCenterZoneRestrict: true,
	}

	solverCfg := types.SolverConfig{
		TimeLimitSeconds:          1,
		ParallelWorkers:           2,
		FirstSolutionStrategies:   []types.FirstSolutionStrategy{types.StrategyCheapestArc},
		LocalSearchMetaheuristics: []types.LocalSearchMetaheuristic{types.MetaGuidedLocalSearch},
		SkipPenalty:               45000,
	}

	provider := &matrixtest.HaversineProvider{}
	o := New(provider, nil)

	result, err := o.Run(context.Background(), Request{
		Customers:        customers,
		Fleet:            fleet,
		Location:         loc,
		Solver:           solverCfg,
		WarehouseOptions: warehouse.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Solution.DroppedCustomers) != 0 {
		t.Fatalf("expected no dropped customers, got %d", len(result.Solution.DroppedCustomers))
	}

	served := 0
	for _, r := range result.Solution.Routes {
		served += len(r.Customers)
	}
	if served != 4 {
		t.Fatalf("expected all 4 customers served, got %d", served)
	}

	if provider.Calls != 1 {
		t.Fatalf("expected the matrix to be computed exactly once, got %d calls", provider.Calls)
	}

	if result.Summary.TotalCustomers != 4 || result.Summary.ServedCustomers != 4 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

// TestRunZeroCustomersIsFeasibleAndEmpty covers spec.md §8's boundary
// scenario: zero customers yields empty routes/dropped and a feasible
// result.
func TestRunZeroCustomersIsFeasibleAndEmpty(t *testing.T) {
	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 100, Count: 1, Enabled: true},
	}
	loc := types.LocationConfig{}
	provider := &matrixtest.HaversineProvider{}
	o := New(provider, nil)

	result, err := o.Run(context.Background(), Request{
		Fleet:            fleet,
		Location:         loc,
		Solver:           types.SolverConfig{SkipPenalty: 1000},
		WarehouseOptions: warehouse.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Solution.Routes) != 0 || len(result.Solution.DroppedCustomers) != 0 {
		t.Fatalf("expected empty routes and dropped, got %+v", result.Solution)
	}
	if !result.Solution.Feasible {
		t.Fatalf("expected feasible solution for zero customers")
	}
	if provider.Calls != 0 {
		t.Fatalf("expected no matrix computation for zero customers, got %d calls", provider.Calls)
	}
}

// TestRunNoEnabledVehiclesFails covers the NoEnabledVehicles failure path.
func TestRunNoEnabledVehiclesFails(t *testing.T) {
	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 100, Count: 1, Enabled: false},
	}
	provider := &matrixtest.HaversineProvider{}
	o := New(provider, nil)

	_, err := o.Run(context.Background(), Request{
		Customers:        []types.Customer{{ID: "c1", Volume: 1}},
		Fleet:            fleet,
		Location:         types.LocationConfig{},
		Solver:           types.SolverConfig{},
		WarehouseOptions: warehouse.DefaultOptions(),
	})
	if err == nil {
		t.Fatalf("expected error when no vehicle is enabled")
	}
}
