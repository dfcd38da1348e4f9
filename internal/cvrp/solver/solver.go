package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"delivery-route-service/internal/cvrp/constraint"
	"delivery-route-service/internal/cvrp/cvrperr"
	"delivery-route-service/internal/cvrp/types"
)

// Solve runs one (first-solution strategy, local-search metaheuristic)
// pass over p and returns a complete types.Solution. The parallel race
// across many such passes lives in package race; this function is the
// unit of work each race worker runs.
func Solve(ctx context.Context, p *Problem, strategy types.FirstSolutionStrategy, meta types.LocalSearchMetaheuristic, timeLimit time.Duration, seed int64) (*types.Solution, error) {
	if len(p.Vehicles) == 0 {
		return nil, fmt.Errorf("solver: solve: %w", cvrperr.ErrNoEnabledVehicles)
	}

	built, err := buildFirstSolution(p, strategy)
	if err != nil {
		return nil, fmt.Errorf("solver: solve: %w", err)
	}

	assigned, dropped := assignVehicles(p, built)

	deadline := time.Now().Add(timeLimit)
	rng := rand.New(rand.NewSource(seed))
	assigned = improve(p, assigned, meta, deadline, rng)

	assigned, extraDropped := enforceHardBounds(p, assigned, p.Solver.AllowCustomerSkipping)
	dropped = append(dropped, extraDropped...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return assemble(p, assigned, dropped), nil
}

// assignVehicles greedily matches constructed routes to vehicle
// instances: largest-volume routes first, cheapest capacity-fitting
// vehicle first. Routes that fit no vehicle at all are dropped (or, if
// customer skipping is disallowed, assigned to the largest remaining
// vehicle anyway and flagged infeasible by assemble's capacity check).
func assignVehicles(p *Problem, built []routeBuild) ([]assignedRoute, []types.Customer) {
	routes := append([]routeBuild{}, built...)
	sort.Slice(routes, func(i, j int) bool { return routes[i].Volume > routes[j].Volume })

	pool := append([]VehicleInstance{}, p.Vehicles...)
	sort.Slice(pool, func(i, j int) bool { return pool[i].Capacity < pool[j].Capacity })

	var out []assignedRoute
	var dropped []types.Customer

	for _, r := range routes {
		idx := -1
		for i, v := range pool {
			if v.Capacity >= r.Volume {
				idx = i
				break
			}
		}
		if idx == -1 {
			if !p.Solver.AllowCustomerSkipping && len(pool) > 0 {
				idx = len(pool) - 1 // largest available, even if it overflows
			} else {
				for _, node := range r.Nodes {
					dropped = append(dropped, *p.Nodes[node].Customer)
				}
				continue
			}
		}
		v := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		out = append(out, assignedRoute{Vehicle: v, Nodes: r.Nodes})
	}

	return out, dropped
}

// enforceHardBounds validates each route's distance/time/stop-count caps.
// When skipping is allowed, the route is trimmed from the tail until it
// satisfies every bound; otherwise it is kept and flagged infeasible.
func enforceHardBounds(p *Problem, routes []assignedRoute, allowSkip bool) ([]assignedRoute, []types.Customer) {
	var dropped []types.Customer
	out := make([]assignedRoute, 0, len(routes))

	for _, r := range routes {
		nodes := append([]int{}, r.Nodes...)
		for {
			distKM, timeMin, stops := routeMetrics(p, r.Vehicle, nodes)
			violated := false
			if r.Vehicle.MaxDistanceKM != nil && distKM > *r.Vehicle.MaxDistanceKM {
				violated = true
			}
			if r.Vehicle.MaxTimeHours != nil && timeMin > *r.Vehicle.MaxTimeHours*60 {
				violated = true
			}
			if r.Vehicle.MaxCustomersPerRte != nil && stops > *r.Vehicle.MaxCustomersPerRte {
				violated = true
			}
			if !violated || !allowSkip || len(nodes) == 0 {
				break
			}
			dropped = append(dropped, *p.Nodes[nodes[len(nodes)-1]].Customer)
			nodes = nodes[:len(nodes)-1]
		}
		out = append(out, assignedRoute{Vehicle: r.Vehicle, Nodes: nodes})
	}

	return out, dropped
}

func routeMetrics(p *Problem, vehicle VehicleInstance, nodes []int) (distanceKM, timeMinutes float64, stops int) {
	if len(nodes) == 0 {
		return 0, 0, 0
	}
	prev := vehicle.DepotNode
	for _, n := range nodes {
		distanceKM += p.Matrix.Distances[prev][n] / 1000
		timeMinutes += p.Matrix.Durations[prev][n] / 60
		timeMinutes += vehicle.ServiceTimeMinutes
		prev = n
	}
	distanceKM += p.Matrix.Distances[prev][vehicle.DepotNode] / 1000
	timeMinutes += p.Matrix.Durations[prev][vehicle.DepotNode] / 60
	return distanceKM, timeMinutes, len(nodes)
}

// assemble converts the final assigned routes into a types.Solution,
// computing the race objective (total cost plus skip penalties).
func assemble(p *Problem, routes []assignedRoute, dropped []types.Customer) *types.Solution {
	sol := &types.Solution{Feasible: true}

	var objective int64
	for _, r := range routes {
		distKM, timeMin, _ := routeMetrics(p, r.Vehicle, r.Nodes)

		feasible := true
		if r.Vehicle.MaxDistanceKM != nil && distKM > *r.Vehicle.MaxDistanceKM {
			feasible = false
		}
		if r.Vehicle.MaxTimeHours != nil && timeMin > *r.Vehicle.MaxTimeHours*60 {
			feasible = false
		}
		if r.Vehicle.MaxCustomersPerRte != nil && len(r.Nodes) > *r.Vehicle.MaxCustomersPerRte {
			feasible = false
		}
		if !feasible {
			sol.Feasible = false
		}

		customers := make([]types.Customer, len(r.Nodes))
		volume := 0.0
		for i, n := range r.Nodes {
			c := *p.Nodes[n].Customer
			customers[i] = c
			volume += c.Volume
		}
		if volume > r.Vehicle.Capacity {
			feasible = false
			sol.Feasible = false
		}

		sol.Routes = append(sol.Routes, types.Route{
			RouteID:           uuid.NewString(),
			VehicleKind:       r.Vehicle.Kind,
			VehicleInstanceID: r.Vehicle.InstanceID,
			Customers:         customers,
			DistanceKM:        distKM,
			EngineTimeMinutes: timeMin,
			Volume:            volume,
			Feasible:          feasible,
		})

		sol.TotalDistanceKM += distKM
		sol.TotalTimeMinutes += timeMin
		sol.ServedVolume += volume
		objective += routeCost(p, r.Vehicle, r.Nodes)
	}

	if len(dropped) > 0 {
		sol.Feasible = false
		sol.DroppedCustomers = dropped
		penalty := constraint.SkipPenalty(p.Solver.SkipPenalty)
		for range dropped {
			objective += penalty
		}
	}

	sol.VehiclesUsed = len(routes)
	if objective < 0 {
		objective = math.MaxInt64
	}
	sol.Objective = objective

	return sol
}
