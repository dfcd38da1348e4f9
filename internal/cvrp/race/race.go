// Package race runs the parallel metaheuristic race described in
// spec.md §4.F: W workers, each pairing a first-solution strategy with a
// local-search metaheuristic, search the same immutable problem
// concurrently; the solution with the lowest objective wins, ties broken
// by the lower worker index.
//
// The fan-out itself is grounded on the teacher's goroutine/channel
// worker pattern in internal/services/plan_deliveries.go: a plain
// sync.WaitGroup over independent goroutines, not golang.org/x/sync/errgroup,
// because errgroup.WithContext cancels every sibling's context the moment
// one worker returns an error. Spec.md §4.F is explicit that there is "no
// cooperative cancellation between workers" and §7 that the race
// "downgrades to best-of-available, which may still be None" -- a failing
// worker must not take its siblings down with it, so each worker's
// (solution, error) is recorded independently and Run only reports failure
// when every worker failed.
package race

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"delivery-route-service/internal/cvrp/solver"
	"delivery-route-service/internal/cvrp/types"
)

// Worker is one race participant's configuration.
type Worker struct {
	// ID is a collision-free identifier for this worker's run, used to
	// correlate its standing on a Board independent of worker Index.
	ID            string
	Index         int
	Strategy      types.FirstSolutionStrategy
	Metaheuristic types.LocalSearchMetaheuristic
	Seed          int64
}

// Plan expands a solver config into the ordered list of workers the race
// will run, cycling through the configured strategy/metaheuristic pairs
// until ParallelWorkers are assigned. A negative ParallelWorkers uses the
// CPU core count minus one (at least one worker); zero uses one worker per
// strategy/metaheuristic pair.
func Plan(cfg types.SolverConfig) []Worker {
	n := cfg.ParallelWorkers
	if n < 0 {
		n = max(runtime.NumCPU()-1, 1)
	}
	if n <= 0 {
		n = len(cfg.FirstSolutionStrategies) * len(cfg.LocalSearchMetaheuristics)
	}
	if n <= 0 {
		n = 1
	}

	strategies := cfg.FirstSolutionStrategies
	if len(strategies) == 0 {
		strategies = []types.FirstSolutionStrategy{types.StrategyCheapestArc}
	}
	metas := cfg.LocalSearchMetaheuristics
	if len(metas) == 0 {
		metas = []types.LocalSearchMetaheuristic{types.MetaGuidedLocalSearch}
	}

	workers := make([]Worker, n)
	for i := 0; i < n; i++ {
		workers[i] = Worker{
			ID:            uuid.NewString(),
			Index:         i,
			Strategy:      strategies[i%len(strategies)],
			Metaheuristic: metas[(i/len(strategies))%len(metas)],
			Seed:          int64(i) + 1,
		}
	}
	return workers
}

// Result pairs a worker's configuration with the solution it produced, or
// the error that worker hit. Err is non-nil exactly when Solution is nil.
type Result struct {
	Worker   Worker
	Solution *types.Solution
	Err      error
}

// Run races every planned worker concurrently over the same immutable
// problem and returns the winner: the feasible solution with the lowest
// objective, or (if none are feasible) the infeasible one with the lowest
// objective. Ties are
// broken by the lower worker index.
//
// Each worker runs against ctx directly, not a derived cancel-on-error
// context: one worker's failure never aborts its siblings. Run only
// returns an error when every worker fails; partial failure is reported
// through each Result.Err while the race still proceeds to pick a winner
// among whatever solutions did come back.
func Run(ctx context.Context, p *solver.Problem, cfg types.SolverConfig) (*Result, []Result, error) {
	workers := Plan(cfg)
	timeLimit := time.Duration(cfg.TimeLimitSeconds) * time.Second
	if timeLimit <= 0 {
		timeLimit = 30 * time.Second
	}

	results := make([]Result, len(workers))

	var wg sync.WaitGroup
	for _, w := range workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			sol, err := solver.Solve(ctx, p, w.Strategy, w.Metaheuristic, timeLimit, w.Seed)
			if err != nil {
				log.Printf("race: worker %d (%s/%s) failed: %v", w.Index, w.Strategy, w.Metaheuristic, err)
				results[w.Index] = Result{Worker: w, Err: fmt.Errorf("race: worker %d (%s/%s): %w", w.Index, w.Strategy, w.Metaheuristic, err)}
				return
			}
			results[w.Index] = Result{Worker: w, Solution: sol}
		}()
	}
	wg.Wait()

	winner := pickWinner(results)
	if winner == nil {
		return nil, results, fmt.Errorf("race: every worker failed: %w", firstErr(results))
	}
	return winner, results, nil
}

// firstErr returns the first recorded worker error, for the all-failed
// error message. Never nil when called from the all-failed path.
func firstErr(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return fmt.Errorf("no worker produced a solution")
}

// pickWinner selects the lowest-objective solution, preferring feasible
// solutions over infeasible ones, with ties broken by worker index (the
// slice is already index-ordered).
func pickWinner(results []Result) *Result {
	var best *Result
	for i := range results {
		r := results[i]
		if r.Solution == nil {
			continue
		}
		if best == nil {
			best = &results[i]
			continue
		}
		if better(r.Solution, best.Solution) {
			best = &results[i]
		}
	}
	return best
}

func better(a, b *types.Solution) bool {
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	return a.Objective < b.Objective
}
