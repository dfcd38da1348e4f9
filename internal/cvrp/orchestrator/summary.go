package orchestrator

import (
	"sort"

	"delivery-route-service/internal/cvrp/types"
)

// largestDroppedShown bounds how many dropped customers the summary names
// individually, per spec.md §7's "largest N dropped customers".
const largestDroppedShown = 10

// RouteSummary is one route's line in the structured summary, grounded on
// original_source's output_handler.py per-route breakdown.
type RouteSummary struct {
	VehicleKind       types.VehicleKind
	VehicleInstanceID int
	CustomerCount     int
	DistanceKM        float64
	TimeMinutes       float64
	Feasible          bool
}

// Summary is the structured report spec.md §7 requires be surfaced to the
// user: totals, the largest dropped customers by volume, and a per-route
// breakdown.
type Summary struct {
	RunID              string
	TotalCustomers      int
	ServedCustomers     int
	DroppedCustomers    int
	LargestDropped      []types.Customer
	TotalDistanceKM     float64
	TotalTimeMinutes    float64
	CapacityUtilization float64
	Routes              []RouteSummary
}

func summarize(runID string, allocation types.WarehouseAllocation, solution types.Solution) Summary {
	served := 0
	for _, r := range solution.Routes {
		served += len(r.Customers)
	}

	dropped := append([]types.Customer(nil), solution.DroppedCustomers...)
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Volume > dropped[j].Volume })
	if len(dropped) > largestDroppedShown {
		dropped = dropped[:largestDroppedShown]
	}

	routes := make([]RouteSummary, 0, len(solution.Routes))
	for _, r := range solution.Routes {
		routes = append(routes, RouteSummary{
			VehicleKind:       r.VehicleKind,
			VehicleInstanceID: r.VehicleInstanceID,
			CustomerCount:     len(r.Customers),
			DistanceKM:        r.DistanceKM,
			TimeMinutes:       r.TimeMinutes(),
			Feasible:          r.Feasible,
		})
	}

	return Summary{
		RunID:               runID,
		TotalCustomers:      len(allocation.VehicleCustomers),
		ServedCustomers:     served,
		DroppedCustomers:    len(solution.DroppedCustomers),
		LargestDropped:      dropped,
		TotalDistanceKM:     solution.TotalDistanceKM,
		TotalTimeMinutes:    solution.TotalTimeMinutes,
		CapacityUtilization: allocation.CapacityUtilization,
		Routes:              routes,
	}
}
