package dto

// CoordDTO is a (lat, lon) pair as it appears on the wire.
type CoordDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CustomerDTO is one delivery request as submitted by a caller.
type CustomerDTO struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Coords CoordDTO `json:"coords"`
	Volume float64  `json:"volume"`
}

// VehicleConfigDTO is one fleet kind's operating envelope.
type VehicleConfigDTO struct {
	Kind                 string   `json:"kind"`
	Capacity             float64  `json:"capacity"`
	Count                int      `json:"count"`
	MaxDistanceKM        *float64 `json:"max_distance_km,omitempty"`
	MaxTimeHours         *float64 `json:"max_time_hours,omitempty"`
	ServiceTimeMinutes   float64  `json:"service_time_minutes"`
	MaxCustomersPerRoute *int     `json:"max_customers_per_route,omitempty"`
	Enabled              bool     `json:"enabled"`
	StartDepot           CoordDTO `json:"start_depot"`
	TSPDepot             CoordDTO `json:"tsp_depot"`
	StartTimeMinutes     int      `json:"start_time_minutes"`
}

// LocationConfigDTO carries the zone/depot geometry for one solve.
type LocationConfigDTO struct {
	PrimaryDepot             CoordDTO           `json:"primary_depot"`
	CenterAnchor             CoordDTO           `json:"center_anchor"`
	CenterZoneRadiusKM       float64            `json:"center_zone_radius_km"`
	CityCenter               CoordDTO           `json:"city_center"`
	CityZoneRadiusKM         float64            `json:"city_zone_radius_km"`
	CityTrafficMultiplier    float64            `json:"city_traffic_multiplier"`
	CenterDiscount           float64            `json:"center_discount"`
	CenterPenaltyByKind      map[string]float64 `json:"center_penalty_by_kind,omitempty"`
	EnableCenterZonePriority bool               `json:"enable_center_zone_priority"`
	EnableCenterZoneRestrict bool               `json:"enable_center_zone_restrict"`
	EnableCityTrafficAdjust  bool               `json:"enable_city_traffic_adjust"`
}

// SolverConfigDTO controls the two-phase search and parallel race.
type SolverConfigDTO struct {
	TimeLimitSeconds          int      `json:"time_limit_seconds"`
	AllowCustomerSkipping     bool     `json:"allow_customer_skipping"`
	SkipPenalty               int64    `json:"skip_penalty"`
	FirstSolutionStrategies   []string `json:"first_solution_strategies,omitempty"`
	LocalSearchMetaheuristics []string `json:"local_search_metaheuristics,omitempty"`
	ParallelWorkers           int      `json:"parallel_workers"`
	EnableFinalReconfigure    bool     `json:"enable_final_reconfigure"`
}

// SolveRequest is the POST /solve request body.
type SolveRequest struct {
	Customers []CustomerDTO      `json:"customers"`
	Fleet     []VehicleConfigDTO `json:"fleet"`
	Location  LocationConfigDTO  `json:"location"`
	Solver    SolverConfigDTO    `json:"solver"`
}

// RouteDTO is one vehicle instance's planned stop sequence in the
// response.
type RouteDTO struct {
	RouteID           string   `json:"route_id"`
	VehicleKind       string   `json:"vehicle_kind"`
	VehicleInstanceID int      `json:"vehicle_instance_id"`
	CustomerIDs       []string `json:"customer_ids"`
	Depot             CoordDTO `json:"depot"`
	DistanceKM        float64  `json:"distance_km"`
	TimeMinutes       float64  `json:"time_minutes"`
	Volume            float64  `json:"volume"`
	Feasible          bool     `json:"feasible"`
}

// RouteSummaryDTO is one route's line in the structured summary.
type RouteSummaryDTO struct {
	VehicleKind       string  `json:"vehicle_kind"`
	VehicleInstanceID int     `json:"vehicle_instance_id"`
	CustomerCount     int     `json:"customer_count"`
	DistanceKM        float64 `json:"distance_km"`
	TimeMinutes       float64 `json:"time_minutes"`
	Feasible          bool    `json:"feasible"`
}

// SummaryDTO is the structured report spec.md §7 requires be surfaced.
type SummaryDTO struct {
	RunID               string            `json:"run_id"`
	TotalCustomers      int               `json:"total_customers"`
	ServedCustomers     int               `json:"served_customers"`
	DroppedCustomers    int               `json:"dropped_customers"`
	LargestDroppedIDs   []string          `json:"largest_dropped_ids"`
	TotalDistanceKM     float64           `json:"total_distance_km"`
	TotalTimeMinutes    float64           `json:"total_time_minutes"`
	CapacityUtilization float64           `json:"capacity_utilization"`
	Routes              []RouteSummaryDTO `json:"routes"`
}

// SolveResponse is the POST /solve response body.
type SolveResponse struct {
	RunID               string     `json:"run_id"`
	Routes              []RouteDTO `json:"routes"`
	DroppedCustomerIDs  []string   `json:"dropped_customer_ids"`
	WarehouseCustomerIDs []string  `json:"warehouse_customer_ids"`
	TotalDistanceKM     float64    `json:"total_distance_km"`
	TotalTimeMinutes    float64    `json:"total_time_minutes"`
	VehiclesUsed        int        `json:"vehicles_used"`
	Objective           int64      `json:"objective"`
	Feasible            bool       `json:"feasible"`
	ServedVolume        float64    `json:"served_volume"`
	Summary             SummaryDTO `json:"summary"`
}
