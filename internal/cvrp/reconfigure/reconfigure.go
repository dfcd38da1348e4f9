// Package reconfigure implements the post-solve per-vehicle TSP
// re-sequencing described in spec.md §4.G: the engine's reported route
// is ordered from the vehicle's operational start depot, which may differ
// from its designated TSP depot, and its time carries no city-traffic
// multiplier. This package re-orders each route's stops for minimum
// distance from the vehicle's TSP depot, then recomputes distance and
// time from the real matrix with the vehicle's own per-kind service
// time and the city-traffic duration multiplier applied.
//
// Grounded on original_source's _reconfigure_routes_from_depot /
// _optimize_route_from_depot / _optimize_route_greedy: nearest-neighbor
// construction followed by bounded 2-opt improvement, keeping the plain
// nearest-neighbor order when the stop count is too large to improve
// within budget. A TSP depot missing from the depot nodes falls back to
// the start depot, then to the primary depot.
package reconfigure

import (
	"fmt"
	"time"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/solver"
	"delivery-route-service/internal/cvrp/types"
)

// twoOptMaxStops bounds the stop count eligible for 2-opt improvement;
// above it, the nearest-neighbor construction order is kept as-is (the
// "TSP oversize" fallback from spec.md §7).
const twoOptMaxStops = 60

// twoOptBudget is the improvement time budget per route, well under the
// ~10s search budget spec.md §4.G allows for the whole reconfiguration.
const twoOptBudget = 200 * time.Millisecond

// Route re-sequences one solved route from its vehicle's TSP depot and
// recomputes its distance/time from the real matrix. It never drops or
// reassigns customers; only their visiting order and the route's
// reported metrics change.
func Route(p *solver.Problem, vehicle solver.VehicleInstance, route types.Route, loc types.LocationConfig) (types.Route, error) {
	if len(route.Customers) == 0 {
		route.Depot = p.Matrix.Locations[depotNode(p, vehicle, loc)]
		route.ReconfiguredTimeMinutes = 0
		route.DistanceKM = 0
		route.Feasible = true
		return route, nil
	}

	dNode := depotNode(p, vehicle, loc)

	nodes := make([]int, 0, len(route.Customers))
	for _, c := range route.Customers {
		idx, ok := p.CustomerIdx[c.ID]
		if !ok {
			return route, fmt.Errorf("reconfigure: route: customer %q not found in problem node space", c.ID)
		}
		nodes = append(nodes, idx)
	}

	ordered := nearestNeighborOrder(p.Matrix, dNode, nodes)
	if len(ordered) <= twoOptMaxStops {
		ordered = twoOptImprove(p.Matrix, dNode, ordered, time.Now().Add(twoOptBudget))
	}

	customers := make([]types.Customer, len(ordered))
	for i, n := range ordered {
		customers[i] = *p.Nodes[n].Customer
	}

	distanceKM, timeMinutes := routeMetrics(p.Matrix, loc, dNode, ordered)
	timeMinutes += vehicle.ServiceTimeMinutes * float64(len(ordered))

	feasible := true
	if vehicle.MaxDistanceKM != nil && distanceKM > *vehicle.MaxDistanceKM {
		feasible = false
	}
	if vehicle.MaxTimeHours != nil && timeMinutes > *vehicle.MaxTimeHours*60 {
		feasible = false
	}
	if vehicle.MaxCustomersPerRte != nil && len(ordered) > *vehicle.MaxCustomersPerRte {
		feasible = false
	}
	if route.Volume > vehicle.Capacity {
		feasible = false
	}

	route.Customers = customers
	route.Depot = p.Matrix.Locations[dNode]
	route.DistanceKM = distanceKM
	route.ReconfiguredTimeMinutes = timeMinutes
	route.Feasible = feasible

	return route, nil
}

// depotNode resolves the node index to re-sequence from: the vehicle's
// TSP depot, falling back to its start depot, then the primary depot,
// matching spec.md §4.G step 1.
func depotNode(p *solver.Problem, vehicle solver.VehicleInstance, loc types.LocationConfig) int {
	if vehicle.TSPDepotNode >= 0 && vehicle.TSPDepotNode < p.DepotCount {
		return vehicle.TSPDepotNode
	}
	if vehicle.DepotNode >= 0 && vehicle.DepotNode < p.DepotCount {
		return vehicle.DepotNode
	}
	_ = loc
	return 0 // primary depot is always node 0 (BuildLocationList's invariant)
}

// nearestNeighborOrder builds a greedy visiting order starting from
// depot, always moving to the nearest unvisited node next.
func nearestNeighborOrder(m *types.DistanceMatrix, depot int, nodes []int) []int {
	remaining := append([]int(nil), nodes...)
	order := make([]int, 0, len(nodes))
	current := depot

	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := m.Distances[current][remaining[0]]
		for i := 1; i < len(remaining); i++ {
			d := m.Distances[current][remaining[i]]
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		next := remaining[bestIdx]
		order = append(order, next)
		current = next
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return order
}

// twoOptImprove repeatedly applies the first improving 2-opt reversal
// found (over real distance, not shaped cost) until no move improves the
// tour or the deadline passes.
func twoOptImprove(m *types.DistanceMatrix, depot int, nodes []int, deadline time.Time) []int {
	n := len(nodes)
	if n < 3 {
		return nodes
	}

	cur := append([]int(nil), nodes...)
	for time.Now().Before(deadline) {
		improved := false
		best := tourDistance(m, depot, cur)
		for i := 0; i < n-1 && !improved; i++ {
			for j := i + 1; j < n; j++ {
				candidate := reversed(cur, i, j)
				d := tourDistance(m, depot, candidate)
				if d < best {
					cur = candidate
					improved = true
					break
				}
			}
		}
		if !improved {
			break
		}
	}
	return cur
}

func reversed(nodes []int, i, j int) []int {
	out := append([]int{}, nodes...)
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

func tourDistance(m *types.DistanceMatrix, depot int, nodes []int) float64 {
	if len(nodes) == 0 {
		return 0
	}
	total := m.Distances[depot][nodes[0]]
	for i := 0; i+1 < len(nodes); i++ {
		total += m.Distances[nodes[i]][nodes[i+1]]
	}
	total += m.Distances[nodes[len(nodes)-1]][depot]
	return total
}

// routeMetrics sums real distance (km) and duration (minutes) for the
// depot -> ordered customers -> depot tour, multiplying an edge's duration
// by CityTrafficMultiplier when both endpoints fall within the configured
// city-traffic zone.
func routeMetrics(m *types.DistanceMatrix, loc types.LocationConfig, depot int, nodes []int) (distanceKM, timeMinutes float64) {
	if len(nodes) == 0 {
		return 0, 0
	}

	edge := func(from, to int) {
		distanceKM += m.Distances[from][to] / 1000
		seconds := m.Durations[from][to]
		if loc.EnableCityTrafficAdjust && inCityZone(m.Locations[from], loc) && inCityZone(m.Locations[to], loc) {
			seconds *= loc.CityTrafficMultiplier
		}
		timeMinutes += seconds / 60
	}

	prev := depot
	for _, n := range nodes {
		edge(prev, n)
		prev = n
	}
	edge(prev, depot)

	return distanceKM, timeMinutes
}

func inCityZone(p geo.Point, loc types.LocationConfig) bool {
	return geo.InCityZone(p, loc.CityCenter, loc.CityZoneRadiusKM)
}
