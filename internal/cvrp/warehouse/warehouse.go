// Package warehouse implements the customer/warehouse split described in
// spec.md §4.C: decide which customers the fleet can serve this run and
// which must be deferred to the warehouse, before any routing cost is
// computed.
//
// The allocation logic follows original_source/warehouse_manager.py: sort
// ascending by volume (ties broken by descending distance from the
// primary depot), then greedily fill vehicle capacity up to a tolerance,
// diverting oversized customers straight to the warehouse.
package warehouse

import (
	"fmt"
	"sort"

	"delivery-route-service/internal/cvrp/cvrperr"
	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// Tolerance controls how much of total fleet capacity the splitter is
// allowed to target (e.g. 0.90 reserves 10% slack for reconfiguration).
type Options struct {
	Tolerance            float64
	MaxBusCustomerVolume float64
}

// DefaultOptions mirrors the Python config's defaults.
func DefaultOptions() Options {
	return Options{Tolerance: 0.90, MaxBusCustomerVolume: 1e18}
}

// Allocate splits customers between the fleet and the warehouse.
//
// It fails with cvrperr.ErrNoEnabledVehicles if no vehicle in fleet is
// enabled, since there is then no capacity to allocate against at all.
func Allocate(customers []types.Customer, fleet []types.VehicleConfig, loc types.LocationConfig, opt Options) (types.WarehouseAllocation, error) {
	totalCapacity, maxSingle := fleetCapacity(fleet)
	if maxSingle <= 0 {
		return types.WarehouseAllocation{}, fmt.Errorf("warehouse: allocate: %w", cvrperr.ErrNoEnabledVehicles)
	}

	sorted := sortCustomers(customers, loc.PrimaryDepot)

	tolerance := opt.Tolerance
	if tolerance <= 0 {
		tolerance = 0.90
	}
	maxBusVolume := opt.MaxBusCustomerVolume
	if maxBusVolume <= 0 {
		maxBusVolume = 1e18
	}

	var vehicleCustomers, warehouseCustomers []types.Customer
	currentVolume := 0.0

	for _, c := range sorted {
		switch {
		case c.Volume > maxSingle:
			warehouseCustomers = append(warehouseCustomers, c)
		case c.Volume > maxBusVolume:
			warehouseCustomers = append(warehouseCustomers, c)
		case currentVolume+c.Volume <= totalCapacity*tolerance:
			vehicleCustomers = append(vehicleCustomers, c)
			currentVolume += c.Volume
		default:
			warehouseCustomers = append(warehouseCustomers, c)
		}
	}

	var centerZone []types.Customer
	if loc.EnableCenterZonePriority {
		for _, c := range vehicleCustomers {
			if geo.InCenterZone(c.Coords, loc.CenterAnchor, loc.CenterZoneRadiusKM) {
				centerZone = append(centerZone, c)
			}
		}
	}

	utilization := 0.0
	if totalCapacity > 0 {
		utilization = currentVolume / totalCapacity
	}

	return types.WarehouseAllocation{
		VehicleCustomers:    vehicleCustomers,
		WarehouseCustomers:  warehouseCustomers,
		CenterZoneCustomers: centerZone,
		CapacityUtilization: utilization,
	}, nil
}

func fleetCapacity(fleet []types.VehicleConfig) (total float64, maxSingle float64) {
	for _, v := range fleet {
		if !v.Enabled {
			continue
		}
		total += v.Capacity * float64(v.Count)
		if v.Capacity > maxSingle {
			maxSingle = v.Capacity
		}
	}
	return total, maxSingle
}

// sortCustomers orders ascending by volume, breaking ties by descending
// distance from depot, matching warehouse_manager.py's _sort_customers.
func sortCustomers(customers []types.Customer, depot geo.Point) []types.Customer {
	out := append([]types.Customer(nil), customers...)
	sort.SliceStable(out, func(i, j int) bool {
		vi := round2(out[i].Volume)
		vj := round2(out[j].Volume)
		if vi != vj {
			return vi < vj
		}
		di := geo.HaversineKm(out[i].Coords, depot)
		dj := geo.HaversineKm(out[j].Coords, depot)
		return di > dj
	})
	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
