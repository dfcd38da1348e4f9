// Package config builds the immutable configuration records consumed by
// the routing core. Config flows in through constructor parameters only;
// there is no package-level singleton and no reload-on-demand path.
package config

import (
	"fmt"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// VehicleConfigOption mutates a VehicleConfig under construction. Options
// compose the same way the teacher's route.NewRouter functional options
// do, but over our own VehicleConfig record.
type VehicleConfigOption func(*types.VehicleConfig)

// WithMaxDistanceKM sets an optional per-route distance cap.
func WithMaxDistanceKM(km float64) VehicleConfigOption {
	return func(c *types.VehicleConfig) { c.MaxDistanceKM = &km }
}

// WithMaxTimeHours sets an optional per-route duration cap.
func WithMaxTimeHours(hours float64) VehicleConfigOption {
	return func(c *types.VehicleConfig) { c.MaxTimeHours = &hours }
}

// WithMaxCustomersPerRoute sets an optional per-route stop cap.
func WithMaxCustomersPerRoute(n int) VehicleConfigOption {
	return func(c *types.VehicleConfig) { c.MaxCustomersPerRoute = &n }
}

// WithTSPDepot overrides the depot used for §4.G reconfiguration. When
// omitted, TSPDepot falls back to StartDepot.
func WithTSPDepot(p geo.Point) VehicleConfigOption {
	return func(c *types.VehicleConfig) { c.TSPDepot = p }
}

// WithStartTimeMinutes sets the vehicle's shift start, in minutes from
// 00:00.
func WithStartTimeMinutes(min int) VehicleConfigOption {
	return func(c *types.VehicleConfig) { c.StartTimeMinutes = min }
}

// NewVehicleConfig builds a VehicleConfig for one fleet kind.
func NewVehicleConfig(
	kind types.VehicleKind,
	capacity float64,
	count int,
	serviceTimeMinutes float64,
	startDepot geo.Point,
	enabled bool,
	opts ...VehicleConfigOption,
) (types.VehicleConfig, error) {
	if capacity <= 0 {
		return types.VehicleConfig{}, fmt.Errorf("vehicle config %s: capacity must be positive, got %v", kind, capacity)
	}
	if count < 0 {
		return types.VehicleConfig{}, fmt.Errorf("vehicle config %s: count must be non-negative, got %d", kind, count)
	}

	c := types.VehicleConfig{
		Kind:               kind,
		Capacity:           capacity,
		Count:              count,
		ServiceTimeMinutes: serviceTimeMinutes,
		Enabled:            enabled,
		StartDepot:         startDepot,
		TSPDepot:           startDepot,
		StartTimeMinutes:   480,
	}
	for _, opt := range opts {
		opt(&c)
	}

	return c, nil
}

// LocationConfigOption mutates a LocationConfig under construction.
type LocationConfigOption func(*types.LocationConfig)

// WithCityTraffic configures the traffic-zone duration multiplier.
func WithCityTraffic(center geo.Point, radiusKM, multiplier float64) LocationConfigOption {
	return func(c *types.LocationConfig) {
		c.CityCenter = center
		c.CityZoneRadiusKM = radiusKM
		c.CityTrafficMultiplier = multiplier
		c.EnableCityTrafficAdjust = true
	}
}

// WithCenterPenalty sets the center-zone arc-cost penalty (meters) applied
// to a non-CENTER vehicle kind's arcs into a center-zone customer.
func WithCenterPenalty(kind types.VehicleKind, penaltyMeters float64) LocationConfigOption {
	return func(c *types.LocationConfig) {
		if c.CenterPenaltyByKind == nil {
			c.CenterPenaltyByKind = make(map[types.VehicleKind]float64)
		}
		c.CenterPenaltyByKind[kind] = penaltyMeters
	}
}

// NewLocationConfig builds a LocationConfig centered on the primary depot
// and the center-zone anchor.
func NewLocationConfig(
	primaryDepot, centerAnchor geo.Point,
	centerZoneRadiusKM, centerDiscount float64,
	opts ...LocationConfigOption,
) types.LocationConfig {
	lc := types.LocationConfig{
		PrimaryDepot:             primaryDepot,
		CenterAnchor:             centerAnchor,
		CenterZoneRadiusKM:       centerZoneRadiusKM,
		CenterDiscount:           centerDiscount,
		CenterPenaltyByKind:      make(map[types.VehicleKind]float64),
		EnableCenterZonePriority: true,
		EnableCenterZoneRestrict: true,
	}
	for _, opt := range opts {
		opt(&lc)
	}
	return lc
}

// DefaultSolverConfig returns sane defaults matching the teacher's
// composition-root style of "use a fallback unless overridden" (see
// cmd/server/main.go's getEnv pattern), adapted to solver knobs instead of
// environment strings.
func DefaultSolverConfig() types.SolverConfig {
	return types.SolverConfig{
		TimeLimitSeconds:      30,
		AllowCustomerSkipping: false,
		SkipPenalty:           45000,
		FirstSolutionStrategies: []types.FirstSolutionStrategy{
			types.StrategyCheapestArc,
			types.StrategySavings,
		},
		LocalSearchMetaheuristics: []types.LocalSearchMetaheuristic{
			types.MetaGuidedLocalSearch,
		},
		LNSTimeSliceSeconds:     1.0,
		LNSNumNodes:             120,
		LNSNumArcs:              110,
		GuidedLocalSearchLambda: 0.8,
		UseFullPropagation:      true,
		ParallelWorkers:         -1,
		EnableFinalReconfigure:  true,
	}
}

// DefaultRoutingConfig returns sane defaults for matrix assembly.
func DefaultRoutingConfig() types.RoutingConfig {
	return types.RoutingConfig{
		PrimaryEngine:       types.EngineValhalla,
		FallbackEngine:      types.EngineOSRM,
		EnableTimeDependent: true,
		DepartureTime:       "08:00",
		BatchEdgeLength:     50,
		SmallThreshold:      10,
	}
}
