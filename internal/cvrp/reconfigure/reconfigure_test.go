package reconfigure

import (
	"testing"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/solver"
	"delivery-route-service/internal/cvrp/types"
)

func buildMatrix(locations []geo.Point) *types.DistanceMatrix {
	n := len(locations)
	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := range locations {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
		for j := range locations {
			km := geo.HaversineKm(locations[i], locations[j])
			dist[i][j] = km * 1000
			dur[i][j] = km * 90
		}
	}
	return &types.DistanceMatrix{Locations: locations, Distances: dist, Durations: dur}
}

// TestRouteUsesTSPDepotNotStartDepot covers spec.md §8 scenario S4: a
// vehicle whose TSP depot differs from its operational start depot must
// be re-sequenced from the TSP depot.
func TestRouteUsesTSPDepotNotStartDepot(t *testing.T) {
	startDepot := geo.Point{Lat: 0, Lon: 0}
	tspDepot := geo.Point{Lat: 5, Lon: 5}

	customers := []types.Customer{
		{ID: "a", Coords: geo.Point{Lat: 5.1, Lon: 5}, Volume: 1},
		{ID: "b", Coords: geo.Point{Lat: 1, Lon: 0}, Volume: 1},
	}

	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 10, Count: 1, Enabled: true, StartDepot: startDepot, TSPDepot: tspDepot, ServiceTimeMinutes: 10},
	}

	loc := types.LocationConfig{PrimaryDepot: startDepot}
	locations, depotIdx := solver.BuildLocationList(loc, fleet, customers)
	matrix := buildMatrix(locations)
	solverCfg := types.SolverConfig{}

	p, err := solver.NewProblem(locations, depotIdx, matrix, fleet, customers, loc, solverCfg, nil)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}

	route := types.Route{VehicleKind: types.KindInternal, Customers: customers}

	got, err := Route(p, p.Vehicles[0], route, loc)
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}

	if got.Depot != tspDepot {
		t.Fatalf("expected route depot %v, got %v", tspDepot, got.Depot)
	}
	if len(got.Customers) != 2 {
		t.Fatalf("expected both customers retained, got %d", len(got.Customers))
	}
	// Exact per-kind service time (2 customers * 10 min) must be reflected,
	// not a fleet average.
	if got.ReconfiguredTimeMinutes <= 20 {
		t.Fatalf("expected reconfigured time to include 20 minutes of service time, got %v", got.ReconfiguredTimeMinutes)
	}
}

// TestRouteAppliesCityTrafficMultiplier covers spec.md §8 scenario S5:
// arcs with both endpoints inside the city zone have their duration
// multiplied. Every arc here lies inside the zone, so arcs with only one
// endpoint inside are not exercised.
func TestRouteAppliesCityTrafficMultiplier(t *testing.T) {
	depot := geo.Point{Lat: 0, Lon: 0}
	cityCenter := geo.Point{Lat: 0, Lon: 0}

	inCity1 := types.Customer{ID: "in1", Coords: geo.Point{Lat: 0.001, Lon: 0}, Volume: 1}
	inCity2 := types.Customer{ID: "in2", Coords: geo.Point{Lat: 0.002, Lon: 0}, Volume: 1}

	fleet := []types.VehicleConfig{
		{Kind: types.KindInternal, Capacity: 10, Count: 1, Enabled: true, StartDepot: depot, TSPDepot: depot},
	}

	loc := types.LocationConfig{
		PrimaryDepot:            depot,
		CityCenter:              cityCenter,
		CityZoneRadiusKM:        50,
		CityTrafficMultiplier:   1.6,
		EnableCityTrafficAdjust: true,
	}

	customers := []types.Customer{inCity1, inCity2}
	locations, depotIdx := solver.BuildLocationList(loc, fleet, customers)
	matrix := buildMatrix(locations)

	p, err := solver.NewProblem(locations, depotIdx, matrix, fleet, customers, loc, types.SolverConfig{}, nil)
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}

	route := types.Route{VehicleKind: types.KindInternal, Customers: customers}
	got, err := Route(p, p.Vehicles[0], route, loc)
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}

	depotNode := depotIdx[depot]
	_, withTraffic := routeMetrics(matrix, loc, depotNode, []int{p.CustomerIdx["in1"], p.CustomerIdx["in2"]})
	_, withoutTraffic := routeMetrics(matrix, types.LocationConfig{}, depotNode, []int{p.CustomerIdx["in1"], p.CustomerIdx["in2"]})

	// Every edge here has both endpoints within the city radius (depot is
	// the city center itself), so the whole tour's duration should be the
	// multiplied value, not the raw matrix duration.
	if withTraffic <= withoutTraffic {
		t.Fatalf("expected traffic-adjusted time %v to exceed raw time %v", withTraffic, withoutTraffic)
	}
	if got.ReconfiguredTimeMinutes <= 0 {
		t.Fatalf("expected positive reconfigured time, got %v", got.ReconfiguredTimeMinutes)
	}
}
