// Package solver builds and improves CVRP routes: §4.E of the expanded
// spec. There is no OR-Tools binding in the Go ecosystem the examples
// draw from, so the search itself is hand-rolled -- a construction phase
// (one of several first-solution strategies) followed by a local-search
// improvement phase (one of several metaheuristics), the same shape
// original_source/cvrp_solver.py delegates to OR-Tools for, grounded here
// on the teacher's own greedy nearest-neighbor route planner
// (internal/services/nearest_neighbor.go) and on the Clark-Wright savings
// construction in the andy-trimble-vrp example.
package solver

import (
	"fmt"

	"delivery-route-service/internal/cvrp/constraint"
	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// VehicleInstance is one physical vehicle expanded from a types.VehicleConfig
// (which may represent Count > 1 identical vehicles).
type VehicleInstance struct {
	Kind               types.VehicleKind
	InstanceID         int
	DepotNode          int
	TSPDepotNode       int
	Capacity           float64
	MaxDistanceKM      *float64
	MaxTimeHours       *float64
	MaxCustomersPerRte *int
	ServiceTimeMinutes float64
	StartTimeMinutes   int
}

// Problem is the fully assembled input to a single solver run: a node
// space (depots followed by customers), the matrix over that node space,
// the expanded vehicle fleet, and the cost model used to score arcs.
type Problem struct {
	Nodes       []constraint.Node
	DepotCount  int
	Customers   []types.Customer
	Matrix      *types.DistanceMatrix
	Vehicles    []VehicleInstance
	Model       *constraint.Model
	Location    types.LocationConfig
	Solver      types.SolverConfig
	CustomerIdx map[string]int // customer ID -> node index
}

// BuildLocationList returns the ordered location list (unique depots
// first, then customers in the given order) that the routing provider
// must be asked to compute a matrix over, so that node indices line up
// with NewProblem's expectations. The primary depot named by loc is
// always placed at index 0, per spec.md §3's depot invariant.
func BuildLocationList(loc types.LocationConfig, fleet []types.VehicleConfig, customers []types.Customer) (locations []geo.Point, depotIndex map[geo.Point]int) {
	depotIndex = make(map[geo.Point]int)

	addDepot := func(d geo.Point) {
		if _, ok := depotIndex[d]; !ok {
			depotIndex[d] = len(locations)
			locations = append(locations, d)
		}
	}

	addDepot(loc.PrimaryDepot)
	for _, v := range fleet {
		if !v.Enabled {
			continue
		}
		addDepot(v.StartDepot)
		addDepot(v.TSPDepot)
	}
	for _, c := range customers {
		locations = append(locations, c.Coords)
	}
	return locations, depotIndex
}

// NewProblem assembles a Problem from an already-computed matrix whose
// location order matches BuildLocationList's output.
func NewProblem(locations []geo.Point, depotIndex map[geo.Point]int, matrix *types.DistanceMatrix, fleet []types.VehicleConfig, customers []types.Customer, loc types.LocationConfig, solverCfg types.SolverConfig, centerZoneCustomers []types.Customer) (*Problem, error) {
	depotCount := len(depotIndex)
	if len(locations) != depotCount+len(customers) {
		return nil, fmt.Errorf("solver: build problem: location list length %d does not match depots(%d)+customers(%d)", len(locations), depotCount, len(customers))
	}

	nodes := make([]constraint.Node, len(locations))
	for i := range locations {
		nodes[i] = constraint.Node{Index: i}
	}
	customerIdx := make(map[string]int, len(customers))
	for i, c := range customers {
		ci := depotCount + i
		cc := c
		nodes[ci].Customer = &cc
		customerIdx[c.ID] = ci
	}

	var vehicles []VehicleInstance
	for _, v := range fleet {
		if !v.Enabled {
			continue
		}
		startIdx, ok := depotIndex[v.StartDepot]
		if !ok {
			return nil, fmt.Errorf("solver: build problem: start depot for vehicle kind %s not found in location list", v.Kind)
		}
		tspIdx, ok := depotIndex[v.TSPDepot]
		if !ok {
			tspIdx = startIdx
		}
		for i := 0; i < v.Count; i++ {
			vehicles = append(vehicles, VehicleInstance{
				Kind:               v.Kind,
				InstanceID:         i,
				DepotNode:          startIdx,
				TSPDepotNode:       tspIdx,
				Capacity:           v.Capacity,
				MaxDistanceKM:      v.MaxDistanceKM,
				MaxTimeHours:       v.MaxTimeHours,
				MaxCustomersPerRte: v.MaxCustomersPerRoute,
				ServiceTimeMinutes: v.ServiceTimeMinutes,
				StartTimeMinutes:   v.StartTimeMinutes,
			})
		}
	}

	model := constraint.NewModel(matrix, nodes, loc, centerZoneCustomers)

	return &Problem{
		Nodes:       nodes,
		DepotCount:  depotCount,
		Customers:   customers,
		Matrix:      matrix,
		Vehicles:    vehicles,
		Model:       model,
		Location:    loc,
		Solver:      solverCfg,
		CustomerIdx: customerIdx,
	}, nil
}
