package solver

import (
	"math"
	"math/rand"
	"time"

	"delivery-route-service/internal/cvrp/types"
)

// assignedRoute pairs a constructed route with the vehicle instance
// serving it, for local-search improvement.
type assignedRoute struct {
	Vehicle VehicleInstance
	Nodes   []int
}

func routeCost(p *Problem, vehicle VehicleInstance, nodes []int) int64 {
	if len(nodes) == 0 {
		return 0
	}
	total := p.Model.ArcCost(vehicle.Kind, vehicle.DepotNode, nodes[0])
	for i := 0; i+1 < len(nodes); i++ {
		total += p.Model.ArcCost(vehicle.Kind, nodes[i], nodes[i+1])
	}
	total += p.Model.ArcCost(vehicle.Kind, nodes[len(nodes)-1], vehicle.DepotNode)
	return total
}

// improve runs 2-opt moves (no or-opt) over every assigned route until the
// configured time budget elapses or no improving move remains, with the
// acceptance rule driven by the requested metaheuristic.
func improve(p *Problem, routes []assignedRoute, meta types.LocalSearchMetaheuristic, deadline time.Time, rng *rand.Rand) []assignedRoute {
	switch meta {
	case types.MetaSimulatedAnnealing:
		return improveSimulatedAnnealing(p, routes, deadline, rng)
	case types.MetaTabuSearch:
		return improveTabu(p, routes, deadline)
	case types.MetaGuidedLocalSearch, types.MetaAutomatic:
		return improveGuidedLocalSearch(p, routes, deadline)
	default:
		return improveGuidedLocalSearch(p, routes, deadline)
	}
}

// twoOptPass applies the first improving 2-opt move found in a route,
// returning the improved node order and whether a move was applied.
func twoOptPass(p *Problem, vehicle VehicleInstance, nodes []int) ([]int, bool) {
	n := len(nodes)
	if n < 2 {
		return nodes, false
	}
	best := routeCost(p, vehicle, nodes)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			candidate := reversed(nodes, i, j)
			cost := routeCost(p, vehicle, candidate)
			if cost < best {
				return candidate, true
			}
		}
	}
	return nodes, false
}

func reversed(nodes []int, i, j int) []int {
	out := append([]int{}, nodes...)
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// improveGuidedLocalSearch repeatedly applies the first improving 2-opt
// move per route until no move improves it or the deadline passes. It
// does not implement OR-Tools' edge-penalization guided local search --
// there is no such metaheuristic library in the example pack to draw on --
// so this stands in as the default/automatic local-search pass; the
// simulated-annealing and tabu-search metaheuristics below are the ones
// that actually diverge from plain first-improvement 2-opt.
func improveGuidedLocalSearch(p *Problem, routes []assignedRoute, deadline time.Time) []assignedRoute {
	out := make([]assignedRoute, len(routes))
	copy(out, routes)

	for ri := range out {
		for time.Now().Before(deadline) {
			next, moved := twoOptPass(p, out[ri].Vehicle, out[ri].Nodes)
			if !moved {
				break
			}
			out[ri].Nodes = next
		}
	}
	return out
}

// improveSimulatedAnnealing accepts worsening 2-opt moves with a
// probability that shrinks as the run approaches its deadline.
func improveSimulatedAnnealing(p *Problem, routes []assignedRoute, deadline time.Time, rng *rand.Rand) []assignedRoute {
	out := make([]assignedRoute, len(routes))
	copy(out, routes)

	start := time.Now()
	budget := time.Until(deadline)
	if budget <= 0 {
		return out
	}

	for ri := range out {
		nodes := out[ri].Nodes
		n := len(nodes)
		if n < 2 {
			continue
		}
		current := routeCost(p, out[ri].Vehicle, nodes)
		for time.Now().Before(deadline) {
			elapsed := time.Since(start)
			progress := float64(elapsed) / float64(budget)
			if progress > 1 {
				break
			}
			temperature := 1.0 - progress
			i := rng.Intn(n - 1)
			j := i + 1 + rng.Intn(n-i-1)
			candidate := reversed(nodes, i, j)
			cost := routeCost(p, out[ri].Vehicle, candidate)
			delta := float64(cost - current)
			if delta < 0 || rng.Float64() < math.Exp(-delta/(1+temperature*1000)) {
				nodes = candidate
				current = cost
			}
		}
		out[ri].Nodes = nodes
	}
	return out
}

// improveTabu applies best-improvement 2-opt while forbidding the last
// tabuSize (10) reversed segments from being reversed again, a short
// tabu list standing in for OR-Tools' tabu search metaheuristic.
func improveTabu(p *Problem, routes []assignedRoute, deadline time.Time) []assignedRoute {
	out := make([]assignedRoute, len(routes))
	copy(out, routes)

	const tabuSize = 10

	for ri := range out {
		nodes := out[ri].Nodes
		var tabu []tabuMove

		for time.Now().Before(deadline) {
			n := len(nodes)
			if n < 2 {
				break
			}
			best := routeCost(p, out[ri].Vehicle, nodes)
			bestCandidate := nodes
			bestMove := tabuMove{-1, -1}
			for i := 0; i < n-1; i++ {
				for j := i + 1; j < n; j++ {
					m := tabuMove{i, j}
					if containsMove(tabu, m) {
						continue
					}
					candidate := reversed(nodes, i, j)
					cost := routeCost(p, out[ri].Vehicle, candidate)
					if cost < best {
						best = cost
						bestCandidate = candidate
						bestMove = m
					}
				}
			}
			if bestMove.i == -1 {
				break
			}
			nodes = bestCandidate
			tabu = append(tabu, bestMove)
			if len(tabu) > tabuSize {
				tabu = tabu[1:]
			}
		}
		out[ri].Nodes = nodes
	}
	return out
}

type tabuMove struct{ i, j int }

func containsMove(tabu []tabuMove, m tabuMove) bool {
	for _, t := range tabu {
		if t == m {
			return true
		}
	}
	return false
}
