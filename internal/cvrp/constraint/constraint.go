// Package constraint builds the per-vehicle-kind arc-cost model the
// solver race (§4.E/§4.F) evaluates routes against.
//
// The cost shaping mirrors original_source/cvrp_solver.py's per-vehicle
// transit callbacks: a CENTER vehicle gets a discount on arcs into the
// center zone, while non-CENTER kinds take a configurable penalty for
// the same arcs -- a soft constraint that never blocks a route from
// starting, only shapes which vehicle the search prefers for each stop.
package constraint

import (
	"math"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// Node identifies a location within a DistanceMatrix: either a depot
// (Customer == nil) or a specific customer.
type Node struct {
	Index    int
	Customer *types.Customer
}

// Model evaluates arc costs for a fixed distance matrix, customer set and
// location configuration.
type Model struct {
	Matrix       *types.DistanceMatrix
	Nodes        []Node
	Location     types.LocationConfig
	centerZoneID map[string]struct{}
}

// NewModel builds a Model. centerZoneCustomers marks which customers
// receive CENTER-vehicle discount / non-CENTER penalty treatment.
func NewModel(matrix *types.DistanceMatrix, nodes []Node, loc types.LocationConfig, centerZoneCustomers []types.Customer) *Model {
	ids := make(map[string]struct{}, len(centerZoneCustomers))
	for _, c := range centerZoneCustomers {
		ids[c.ID] = struct{}{}
	}
	return &Model{Matrix: matrix, Nodes: nodes, Location: loc, centerZoneID: ids}
}

// ArcCost returns the cost of moving from node `from` to node `to` for a
// vehicle of the given kind, in the same integer-meters unit as the
// underlying distance matrix.
func (m *Model) ArcCost(kind types.VehicleKind, from, to int) int64 {
	base := int64(math.Round(m.Matrix.Distances[from][to]))

	destCustomer := m.Nodes[to].Customer
	if destCustomer == nil {
		return base
	}

	inCenterZone := m.inCenterZone(destCustomer)

	switch kind {
	case types.KindCenter:
		if inCenterZone {
			return int64(math.Round(float64(base) * m.Location.CenterDiscount))
		}
		return base
	default:
		if !m.Location.EnableCenterZoneRestrict {
			return base
		}
		if !inCenterZone {
			return base
		}
		penalty, ok := m.Location.CenterPenaltyByKind[kind]
		if !ok {
			return base
		}
		return base + int64(math.Round(penalty))
	}
}

// inCenterZone reports whether a customer is tagged for center-zone cost
// shaping. When a membership set was supplied, only its members count;
// the live geometric check is used only when the set is empty.
func (m *Model) inCenterZone(c *types.Customer) bool {
	if _, ok := m.centerZoneID[c.ID]; ok {
		return true
	}
	if len(m.centerZoneID) > 0 {
		return false
	}
	return geo.InCenterZone(c.Coords, m.Location.CenterAnchor, m.Location.CenterZoneRadiusKM)
}

// SkipPenalty caps a configured disjunction penalty at the largest value
// the solver's objective (an int64) can safely carry, matching
// cvrp_solver.py's max_safe_penalty guard.
func SkipPenalty(configured int64) int64 {
	const maxSafe = math.MaxInt64
	if configured > maxSafe {
		return maxSafe
	}
	if configured < 0 {
		return 0
	}
	return configured
}
