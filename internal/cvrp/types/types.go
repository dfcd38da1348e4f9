// Package types holds the data model shared by every routing core
// component: customers, vehicles, matrices, routes, and solutions.
package types

import (
	"time"

	"delivery-route-service/internal/cvrp/geo"
)

// Customer is a stable delivery request. It is immutable through solve.
type Customer struct {
	ID     string
	Name   string
	Coords geo.Point
	Volume float64
}

// VehicleKind is the closed set of fleet roles. Business role drives zone
// treatment (center discount vs. center penalty) in the constraint model.
type VehicleKind string

const (
	KindInternal VehicleKind = "INTERNAL"
	KindCenter   VehicleKind = "CENTER"
	KindExternal VehicleKind = "EXTERNAL"
	KindSpecial  VehicleKind = "SPECIAL"
	KindRegional VehicleKind = "REGIONAL"
)

// AllVehicleKinds enumerates every valid kind, used to reject unknown kind
// names when a wire request is translated into fleet and location config.
var AllVehicleKinds = []VehicleKind{
	KindInternal, KindCenter, KindExternal, KindSpecial, KindRegional,
}

// VehicleConfig describes one fleet kind's operating envelope. Values are
// read-only once built; use config.NewVehicleConfig to construct one.
type VehicleConfig struct {
	Kind                VehicleKind
	Capacity            float64
	Count               int
	MaxDistanceKM       *float64
	MaxTimeHours        *float64
	ServiceTimeMinutes  float64
	MaxCustomersPerRoute *int
	Enabled             bool
	StartDepot          geo.Point
	TSPDepot            geo.Point
	StartTimeMinutes    int
}

// LocationConfig carries the zone and depot geometry used by the splitter,
// constraint builder, and reconfiguration stages.
type LocationConfig struct {
	PrimaryDepot              geo.Point
	CenterAnchor              geo.Point
	CenterZoneRadiusKM        float64
	CityCenter                geo.Point
	CityZoneRadiusKM          float64
	CityTrafficMultiplier     float64
	CenterDiscount            float64
	CenterPenaltyByKind       map[VehicleKind]float64
	EnableCenterZonePriority  bool
	EnableCenterZoneRestrict  bool
	EnableCityTrafficAdjust   bool
}

// FirstSolutionStrategy selects the construction heuristic for a solver run.
type FirstSolutionStrategy string

const (
	StrategyCheapestArc          FirstSolutionStrategy = "PATH_CHEAPEST_ARC"
	StrategyParallelCheapestIns  FirstSolutionStrategy = "PARALLEL_CHEAPEST_INSERTION"
	StrategySavings              FirstSolutionStrategy = "SAVINGS"
	StrategySweep                FirstSolutionStrategy = "SWEEP"
	StrategyChristofides         FirstSolutionStrategy = "CHRISTOFIDES"
	StrategyAutomatic            FirstSolutionStrategy = "AUTOMATIC"
)

// LocalSearchMetaheuristic selects the refinement metaheuristic.
type LocalSearchMetaheuristic string

const (
	MetaGuidedLocalSearch    LocalSearchMetaheuristic = "GUIDED_LOCAL_SEARCH"
	MetaSimulatedAnnealing   LocalSearchMetaheuristic = "SIMULATED_ANNEALING"
	MetaTabuSearch           LocalSearchMetaheuristic = "TABU_SEARCH"
	MetaAutomatic            LocalSearchMetaheuristic = "AUTOMATIC"
)

// SolverConfig controls the two-phase search and the parallel race.
type SolverConfig struct {
	TimeLimitSeconds        int
	AllowCustomerSkipping   bool
	SkipPenalty             int64
	FirstSolutionStrategies []FirstSolutionStrategy
	LocalSearchMetaheuristics []LocalSearchMetaheuristic
	LNSTimeSliceSeconds     float64
	LNSNumNodes             int
	LNSNumArcs              int
	GuidedLocalSearchLambda float64
	UseFullPropagation      bool
	VerboseSearchLog        bool
	ParallelWorkers         int // -1 => cores-1
	EnableFinalReconfigure  bool
}

// RoutingEngineKind picks the routing provider implementation.
type RoutingEngineKind string

const (
	EngineOSRM     RoutingEngineKind = "osrm"
	EngineValhalla RoutingEngineKind = "valhalla"
)

// RoutingConfig controls matrix-provider engine selection.
type RoutingConfig struct {
	PrimaryEngine       RoutingEngineKind
	FallbackEngine      RoutingEngineKind
	EnableTimeDependent bool
	DepartureTime       string // "HH:MM"
	TruckHeightM        float64
	TruckWidthM         float64
	TruckWeightTons     float64
	CacheExpiry         time.Duration
	BatchEdgeLength     int
	SmallThreshold      int
}

// DistanceMatrix holds meters/seconds matrices over an ordered location
// list (depots first, then eligible customers).
type DistanceMatrix struct {
	Locations []geo.Point
	Distances [][]float64 // meters
	Durations [][]float64 // seconds
}

// RouteStop is a single visited customer within a route.
type RouteStop struct {
	Customer Customer
}

// Route is one vehicle instance's planned stop sequence.
type Route struct {
	// RouteID is a stable, collision-free identifier assigned once per
	// solve, carried through reconfiguration unchanged.
	RouteID           string
	VehicleKind       VehicleKind
	VehicleInstanceID int
	Customers         []Customer
	Depot             geo.Point
	DistanceKM        float64
	EngineTimeMinutes float64
	// ReconfiguredTimeMinutes is the exact, per-kind-service-time route
	// duration computed in §4.G. Used for the feasibility decision and
	// reporting; EngineTimeMinutes is reported instead while this is zero
	// (see TimeMinutes).
	ReconfiguredTimeMinutes float64
	Volume                  float64
	Feasible                bool
}

// TimeMinutes returns the duration that should be used for feasibility
// checks and reporting: the reconfigured value when present, engine time
// otherwise.
func (r Route) TimeMinutes() float64 {
	if r.ReconfiguredTimeMinutes > 0 {
		return r.ReconfiguredTimeMinutes
	}
	return r.EngineTimeMinutes
}

// Solution is the final output of a solve.
type Solution struct {
	Routes           []Route
	DroppedCustomers []Customer
	TotalDistanceKM  float64
	TotalTimeMinutes float64
	VehiclesUsed     int
	Objective        int64
	Feasible         bool
	ServedVolume     float64
}

// WarehouseAllocation is the output of the pre-allocation splitter.
type WarehouseAllocation struct {
	VehicleCustomers      []Customer
	WarehouseCustomers    []Customer
	CenterZoneCustomers   []Customer
	CapacityUtilization   float64
}
