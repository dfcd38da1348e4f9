// Package orchestrator drives the routing core end to end (spec.md §4.H):
// warehouse split, single matrix computation, the constraint model, the
// parallel solver race, and per-vehicle route reconfiguration, assembling
// the final types.Solution and a structured summary for callers.
//
// Grounded on the teacher's cmd/server/main.go composition root (wire
// concrete adapters behind ports, fail fast on missing config) and
// api/handlers/plans.go's request-orchestration shape (repo lookup ->
// assignment -> per-vehicle planning -> response assembly), generalized
// from truck/package assignment to the CVRP pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"delivery-route-service/internal/cvrp/cvrperr"
	"delivery-route-service/internal/cvrp/platform/obs"
	"delivery-route-service/internal/cvrp/race"
	"delivery-route-service/internal/cvrp/reconfigure"
	"delivery-route-service/internal/cvrp/routing"
	"delivery-route-service/internal/cvrp/solver"
	"delivery-route-service/internal/cvrp/types"
	"delivery-route-service/internal/cvrp/warehouse"
)

// Request bundles every input a solve needs: the full customer list (some
// of which may be deferred to the warehouse), the fleet, and the location
// and solver configuration.
type Request struct {
	Customers        []types.Customer
	Fleet            []types.VehicleConfig
	Location         types.LocationConfig
	Solver           types.SolverConfig
	WarehouseOptions warehouse.Options
}

// Result is everything a caller needs to report on one solve: the routed
// Solution, the warehouse split that fed it, a human-readable summary,
// and the run's identifier (used to correlate log lines and, when
// configured, the race board in Redis).
type Result struct {
	RunID      string
	Allocation types.WarehouseAllocation
	Solution   types.Solution
	Summary    Summary
}

// Orchestrator wires the matrix provider into the A-G pipeline. It holds
// no mutable state of its own beyond its dependencies; every Run call is
// independent.
type Orchestrator struct {
	Matrix routing.MatrixProvider
	Board  *race.Board
}

// New builds an Orchestrator around an already-configured matrix
// provider. board may be nil, in which case race standings are never
// published (the default, single-replica deployment of spec.md §4.F/§5).
func New(matrix routing.MatrixProvider, board *race.Board) *Orchestrator {
	return &Orchestrator{Matrix: matrix, Board: board}
}

// Run executes the full pipeline: C (warehouse split) -> B (matrix,
// computed exactly once) -> D (constraint model) -> E/F (solver race) ->
// G (reconfiguration), returning the assembled Result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, obs.RequestIDKey, runID)

	var err error
	defer obs.Time(ctx, "orchestrator.Run")(&err)

	allocation, allocErr := warehouse.Allocate(req.Customers, req.Fleet, req.Location, req.WarehouseOptions)
	if allocErr != nil {
		err = fmt.Errorf("orchestrator: run: %w", allocErr)
		return nil, err
	}

	if len(allocation.VehicleCustomers) == 0 {
		return &Result{
			RunID:      runID,
			Allocation: allocation,
			Solution:   types.Solution{Feasible: true},
			Summary:    summarize(runID, allocation, types.Solution{Feasible: true}),
		}, nil
	}

	locations, depotIdx := solver.BuildLocationList(req.Location, req.Fleet, allocation.VehicleCustomers)

	matrix, matErr := o.Matrix.GetMatrix(ctx, locations)
	if matErr != nil {
		err = fmt.Errorf("orchestrator: run: compute matrix: %w: %w", cvrperr.ErrMatrixUnavailable, matErr)
		return nil, err
	}

	problem, probErr := solver.NewProblem(locations, depotIdx, matrix, req.Fleet, allocation.VehicleCustomers, req.Location, req.Solver, allocation.CenterZoneCustomers)
	if probErr != nil {
		err = fmt.Errorf("orchestrator: run: build problem: %w", probErr)
		return nil, err
	}

	winner, allResults, raceErr := race.Run(ctx, problem, req.Solver)
	if raceErr != nil {
		err = fmt.Errorf("orchestrator: run: %w: %w", cvrperr.ErrNoSolution, raceErr)
		return nil, err
	}

	if o.Board != nil {
		publishStandings(ctx, o.Board, runID, allResults)
	}

	solution := *winner.Solution

	if req.Solver.EnableFinalReconfigure {
		solution, err = o.reconfigure(problem, solution)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		RunID:      runID,
		Allocation: allocation,
		Solution:   solution,
		Summary:    summarize(runID, allocation, solution),
	}, nil
}

// reconfigure runs §4.G over every route in solution, recomputing totals
// from the reconfigured (not engine-reported) figures. A route failing
// to reconfigure keeps its engine-derived metrics and is logged, never
// dropped: reconfiguration errors are non-fatal per spec.md §7.
func (o *Orchestrator) reconfigure(p *solver.Problem, solution types.Solution) (types.Solution, error) {
	vehicleByID := make(map[string]solver.VehicleInstance, len(p.Vehicles))
	for _, v := range p.Vehicles {
		vehicleByID[fmt.Sprintf("%s#%d", v.Kind, v.InstanceID)] = v
	}

	var totalDistance, totalTime, servedVolume float64
	anyInfeasible := false

	for i, r := range solution.Routes {
		v, ok := vehicleByID[fmt.Sprintf("%s#%d", r.VehicleKind, r.VehicleInstanceID)]
		if !ok {
			log.Printf("orchestrator: reconfigure: vehicle %s#%d not found, keeping engine route", r.VehicleKind, r.VehicleInstanceID)
			totalDistance += r.DistanceKM
			totalTime += r.TimeMinutes()
			servedVolume += r.Volume
			if !r.Feasible {
				anyInfeasible = true
			}
			continue
		}

		reconfigured, rerr := reconfigure.Route(p, v, r, p.Location)
		if rerr != nil {
			log.Printf("orchestrator: reconfigure: route %s: %v, keeping engine order", r.RouteID, rerr)
			reconfigured = r
		}

		solution.Routes[i] = reconfigured
		totalDistance += reconfigured.DistanceKM
		totalTime += reconfigured.TimeMinutes()
		servedVolume += reconfigured.Volume
		if !reconfigured.Feasible {
			anyInfeasible = true
		}
	}

	solution.TotalDistanceKM = totalDistance
	solution.TotalTimeMinutes = totalTime
	solution.ServedVolume = servedVolume
	solution.Feasible = !anyInfeasible && len(solution.DroppedCustomers) == 0

	if anyInfeasible {
		return solution, fmt.Errorf("orchestrator: reconfigure: %w", cvrperr.ErrInfeasibleRoute)
	}
	return solution, nil
}

func publishStandings(ctx context.Context, board *race.Board, runID string, results []race.Result) {
	for _, r := range results {
		if perr := board.Publish(ctx, runID, r, time.Now()); perr != nil {
			log.Printf("orchestrator: race board publish failed: %v", perr)
		}
	}
}
