package solver

import (
	"fmt"
	"math"
	"sort"

	"delivery-route-service/internal/cvrp/types"
)

// routeBuild is a constructed route before vehicle assignment: an ordered
// list of customer node indices and their total volume.
type routeBuild struct {
	Nodes  []int
	Volume float64
}

// buildFirstSolution dispatches to the construction heuristic named by
// strategy. Christofides requires a matching algorithm this module does
// not implement (no matching/MST library appears anywhere in the
// example pack), so it is aliased to the savings construction, and
// Automatic / ParallelCheapestIns alias to the cheapest-arc insertion
// heuristic -- both documented here rather than silently substituted.
func buildFirstSolution(p *Problem, strategy types.FirstSolutionStrategy) ([]routeBuild, error) {
	switch strategy {
	case types.StrategySavings, types.StrategyChristofides:
		return buildSavings(p), nil
	case types.StrategySweep:
		return buildSweep(p), nil
	case types.StrategyCheapestArc, types.StrategyParallelCheapestIns, types.StrategyAutomatic:
		return buildCheapestInsertion(p), nil
	default:
		return nil, fmt.Errorf("solver: unknown first-solution strategy %q", strategy)
	}
}

// buildSavings constructs routes with the Clark-Wright savings algorithm:
// start with one route per customer, then repeatedly merge the pair of
// routes with the highest savings (cost(depot,i)+cost(depot,j)-cost(i,j))
// whenever the merged volume still fits the largest available vehicle.
func buildSavings(p *Problem) []routeBuild {
	n := len(p.Customers)
	if n == 0 {
		return nil
	}

	depot := p.DepotCount // first customer node index; use node 0 as reference depot for savings scoring
	if p.DepotCount > 0 {
		depot = 0
	}

	routes := make([]routeBuild, n)
	routeOf := make([]int, n) // customer position -> index into routes, -1 if merged away
	for i := range routes {
		routes[i] = routeBuild{Nodes: []int{p.DepotCount + i}, Volume: p.Customers[i].Volume}
		routeOf[i] = i
	}

	maxCapacity := maxVehicleCapacity(p.Vehicles)

	type saving struct {
		i, j int
		gain float64
	}
	var savings []saving
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ni, nj := p.DepotCount+i, p.DepotCount+j
			gain := p.Matrix.Distances[depot][ni] + p.Matrix.Distances[depot][nj] - p.Matrix.Distances[ni][nj]
			savings = append(savings, saving{i: i, j: j, gain: gain})
		}
	}
	sort.Slice(savings, func(a, b int) bool { return savings[a].gain > savings[b].gain })

	for _, s := range savings {
		ri, rj := routeOf[s.i], routeOf[s.j]
		if ri == -1 || rj == -1 || ri == rj {
			continue
		}
		a, b := routes[ri], routes[rj]
		if a.Volume+b.Volume > maxCapacity {
			continue
		}
		// Only endpoints of a route can be merged without reversing the
		// interior; accept a merge whenever either route's head or tail
		// touches the pair, attaching b after a.
		ni, nj := p.DepotCount+s.i, p.DepotCount+s.j
		aEnd := a.Nodes[0] == ni || a.Nodes[len(a.Nodes)-1] == ni
		bEnd := b.Nodes[0] == nj || b.Nodes[len(b.Nodes)-1] == nj
		if !aEnd || !bEnd {
			continue
		}
		merged := routeBuild{
			Nodes:  append(append([]int{}, a.Nodes...), b.Nodes...),
			Volume: a.Volume + b.Volume,
		}
		routes[ri] = merged
		routes[rj] = routeBuild{}
		for idx, r := range routeOf {
			if r == rj {
				routeOf[idx] = ri
			}
		}
	}

	out := make([]routeBuild, 0, n)
	for _, r := range routes {
		if len(r.Nodes) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// buildSweep orders customers by polar angle around the first depot and
// greedily fills routes up to the largest available vehicle's capacity.
func buildSweep(p *Problem) []routeBuild {
	n := len(p.Customers)
	if n == 0 {
		return nil
	}
	type polar struct {
		idx   int
		angle float64
	}
	origin := p.Location.PrimaryDepot

	polars := make([]polar, n)
	for i, c := range p.Customers {
		dy := c.Coords.Lat - origin.Lat
		dx := c.Coords.Lon - origin.Lon
		polars[i] = polar{idx: i, angle: math.Atan2(dy, dx)}
	}
	sort.Slice(polars, func(a, b int) bool { return polars[a].angle < polars[b].angle })

	maxCapacity := maxVehicleCapacity(p.Vehicles)

	var routes []routeBuild
	var cur routeBuild
	for _, pl := range polars {
		c := p.Customers[pl.idx]
		if cur.Volume+c.Volume > maxCapacity && len(cur.Nodes) > 0 {
			routes = append(routes, cur)
			cur = routeBuild{}
		}
		cur.Nodes = append(cur.Nodes, p.DepotCount+pl.idx)
		cur.Volume += c.Volume
	}
	if len(cur.Nodes) > 0 {
		routes = append(routes, cur)
	}
	return routes
}

// buildCheapestInsertion grows routes one customer at a time, each time
// inserting the unplaced customer at the position and route with the
// lowest insertion cost, matching the O(S^2) scan in the
// shivamshaw23-Hintro example's FindBestInsertionIndex.
func buildCheapestInsertion(p *Problem) []routeBuild {
	n := len(p.Customers)
	if n == 0 {
		return nil
	}

	maxCapacity := maxVehicleCapacity(p.Vehicles)
	depot := 0

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	var routes []routeBuild
	for len(remaining) > 0 {
		var cur routeBuild
		for {
			bestPos, bestCustomer, bestCost := -1, -1, math.Inf(1)
			for ri, ci := range remaining {
				c := p.Customers[ci]
				if cur.Volume+c.Volume > maxCapacity {
					continue
				}
				node := p.DepotCount + ci
				if len(cur.Nodes) == 0 {
					cost := p.Matrix.Distances[depot][node] + p.Matrix.Distances[node][depot]
					if cost < bestCost {
						bestCost, bestPos, bestCustomer = cost, 0, ri
					}
					continue
				}
				for pos := 0; pos <= len(cur.Nodes); pos++ {
					prev := depot
					if pos > 0 {
						prev = cur.Nodes[pos-1]
					}
					next := depot
					if pos < len(cur.Nodes) {
						next = cur.Nodes[pos]
					}
					delta := p.Matrix.Distances[prev][node] + p.Matrix.Distances[node][next] - p.Matrix.Distances[prev][next]
					if delta < bestCost {
						bestCost, bestPos, bestCustomer = delta, pos, ri
					}
				}
			}
			if bestCustomer == -1 {
				break
			}
			ci := remaining[bestCustomer]
			node := p.DepotCount + ci
			cur.Nodes = append(cur.Nodes[:bestPos], append([]int{node}, cur.Nodes[bestPos:]...)...)
			cur.Volume += p.Customers[ci].Volume
			remaining = append(remaining[:bestCustomer], remaining[bestCustomer+1:]...)
		}
		if len(cur.Nodes) == 0 {
			// No remaining customer fits any vehicle; stop to avoid an
			// infinite loop. Each leftover becomes its own route so the
			// caller's validation step reports it as dropped/infeasible.
			for _, ci := range remaining {
				routes = append(routes, routeBuild{Nodes: []int{p.DepotCount + ci}, Volume: p.Customers[ci].Volume})
			}
			break
		}
		routes = append(routes, cur)
	}
	return routes
}

func maxVehicleCapacity(vehicles []VehicleInstance) float64 {
	max := 0.0
	for _, v := range vehicles {
		if v.Capacity > max {
			max = v.Capacity
		}
	}
	if max == 0 {
		return math.Inf(1)
	}
	return max
}

