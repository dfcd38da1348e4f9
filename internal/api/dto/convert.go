package dto

import (
	"fmt"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/orchestrator"
	"delivery-route-service/internal/cvrp/types"
	"delivery-route-service/internal/cvrp/warehouse"
)

func toPoint(c CoordDTO) geo.Point {
	return geo.Point{Lat: c.Lat, Lon: c.Lon}
}

func fromPoint(p geo.Point) CoordDTO {
	return CoordDTO{Lat: p.Lat, Lon: p.Lon}
}

// ToRequest translates a wire SolveRequest into the orchestrator's
// Request, validating vehicle kinds against the closed set spec.md §3
// defines.
func (r SolveRequest) ToRequest() (orchestrator.Request, error) {
	customers := make([]types.Customer, len(r.Customers))
	for i, c := range r.Customers {
		customers[i] = types.Customer{ID: c.ID, Name: c.Name, Coords: toPoint(c.Coords), Volume: c.Volume}
	}

	fleet := make([]types.VehicleConfig, len(r.Fleet))
	for i, v := range r.Fleet {
		kind, err := parseKind(v.Kind)
		if err != nil {
			return orchestrator.Request{}, fmt.Errorf("fleet[%d]: %w", i, err)
		}
		fleet[i] = types.VehicleConfig{
			Kind:                 kind,
			Capacity:             v.Capacity,
			Count:                v.Count,
			MaxDistanceKM:        v.MaxDistanceKM,
			MaxTimeHours:         v.MaxTimeHours,
			ServiceTimeMinutes:   v.ServiceTimeMinutes,
			MaxCustomersPerRoute: v.MaxCustomersPerRoute,
			Enabled:              v.Enabled,
			StartDepot:           toPoint(v.StartDepot),
			TSPDepot:             toPoint(v.TSPDepot),
			StartTimeMinutes:     v.StartTimeMinutes,
		}
	}

	penaltyByKind := make(map[types.VehicleKind]float64, len(r.Location.CenterPenaltyByKind))
	for k, v := range r.Location.CenterPenaltyByKind {
		kind, err := parseKind(k)
		if err != nil {
			return orchestrator.Request{}, fmt.Errorf("location.center_penalty_by_kind: %w", err)
		}
		penaltyByKind[kind] = v
	}

	loc := types.LocationConfig{
		PrimaryDepot:             toPoint(r.Location.PrimaryDepot),
		CenterAnchor:             toPoint(r.Location.CenterAnchor),
		CenterZoneRadiusKM:       r.Location.CenterZoneRadiusKM,
		CityCenter:               toPoint(r.Location.CityCenter),
		CityZoneRadiusKM:         r.Location.CityZoneRadiusKM,
		CityTrafficMultiplier:    r.Location.CityTrafficMultiplier,
		CenterDiscount:           r.Location.CenterDiscount,
		CenterPenaltyByKind:      penaltyByKind,
		EnableCenterZonePriority: r.Location.EnableCenterZonePriority,
		EnableCenterZoneRestrict: r.Location.EnableCenterZoneRestrict,
		EnableCityTrafficAdjust:  r.Location.EnableCityTrafficAdjust,
	}

	strategies := make([]types.FirstSolutionStrategy, len(r.Solver.FirstSolutionStrategies))
	for i, s := range r.Solver.FirstSolutionStrategies {
		strategies[i] = types.FirstSolutionStrategy(s)
	}
	metas := make([]types.LocalSearchMetaheuristic, len(r.Solver.LocalSearchMetaheuristics))
	for i, m := range r.Solver.LocalSearchMetaheuristics {
		metas[i] = types.LocalSearchMetaheuristic(m)
	}

	solverCfg := types.SolverConfig{
		TimeLimitSeconds:          r.Solver.TimeLimitSeconds,
		AllowCustomerSkipping:     r.Solver.AllowCustomerSkipping,
		SkipPenalty:               r.Solver.SkipPenalty,
		FirstSolutionStrategies:   strategies,
		LocalSearchMetaheuristics: metas,
		ParallelWorkers:           r.Solver.ParallelWorkers,
		EnableFinalReconfigure:    r.Solver.EnableFinalReconfigure,
	}

	return orchestrator.Request{
		Customers:        customers,
		Fleet:            fleet,
		Location:         loc,
		Solver:           solverCfg,
		WarehouseOptions: warehouse.DefaultOptions(),
	}, nil
}

func parseKind(s string) (types.VehicleKind, error) {
	k := types.VehicleKind(s)
	for _, valid := range types.AllVehicleKinds {
		if valid == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown vehicle kind %q", s)
}

// FromResult translates an orchestrator.Result into the wire response.
func FromResult(res *orchestrator.Result) SolveResponse {
	routes := make([]RouteDTO, len(res.Solution.Routes))
	for i, r := range res.Solution.Routes {
		ids := make([]string, len(r.Customers))
		for j, c := range r.Customers {
			ids[j] = c.ID
		}
		routes[i] = RouteDTO{
			RouteID:           r.RouteID,
			VehicleKind:       string(r.VehicleKind),
			VehicleInstanceID: r.VehicleInstanceID,
			CustomerIDs:       ids,
			Depot:             fromPoint(r.Depot),
			DistanceKM:        r.DistanceKM,
			TimeMinutes:       r.TimeMinutes(),
			Volume:            r.Volume,
			Feasible:          r.Feasible,
		}
	}

	droppedIDs := make([]string, len(res.Solution.DroppedCustomers))
	for i, c := range res.Solution.DroppedCustomers {
		droppedIDs[i] = c.ID
	}
	warehouseIDs := make([]string, len(res.Allocation.WarehouseCustomers))
	for i, c := range res.Allocation.WarehouseCustomers {
		warehouseIDs[i] = c.ID
	}

	largestDroppedIDs := make([]string, len(res.Summary.LargestDropped))
	for i, c := range res.Summary.LargestDropped {
		largestDroppedIDs[i] = c.ID
	}
	routeSummaries := make([]RouteSummaryDTO, len(res.Summary.Routes))
	for i, rs := range res.Summary.Routes {
		routeSummaries[i] = RouteSummaryDTO{
			VehicleKind:       string(rs.VehicleKind),
			VehicleInstanceID: rs.VehicleInstanceID,
			CustomerCount:     rs.CustomerCount,
			DistanceKM:        rs.DistanceKM,
			TimeMinutes:       rs.TimeMinutes,
			Feasible:          rs.Feasible,
		}
	}

	return SolveResponse{
		RunID:                res.RunID,
		Routes:               routes,
		DroppedCustomerIDs:   droppedIDs,
		WarehouseCustomerIDs: warehouseIDs,
		TotalDistanceKM:      res.Solution.TotalDistanceKM,
		TotalTimeMinutes:     res.Solution.TotalTimeMinutes,
		VehiclesUsed:         res.Solution.VehiclesUsed,
		Objective:            res.Solution.Objective,
		Feasible:             res.Solution.Feasible,
		ServedVolume:         res.Solution.ServedVolume,
		Summary: SummaryDTO{
			RunID:               res.Summary.RunID,
			TotalCustomers:      res.Summary.TotalCustomers,
			ServedCustomers:     res.Summary.ServedCustomers,
			DroppedCustomers:    res.Summary.DroppedCustomers,
			LargestDroppedIDs:   largestDroppedIDs,
			TotalDistanceKM:     res.Summary.TotalDistanceKM,
			TotalTimeMinutes:    res.Summary.TotalTimeMinutes,
			CapacityUtilization: res.Summary.CapacityUtilization,
			Routes:              routeSummaries,
		},
	}
}
