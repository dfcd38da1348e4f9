package constraint

import (
	"math"
	"testing"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

func buildMatrix() *types.DistanceMatrix {
	return &types.DistanceMatrix{
		Distances: [][]float64{
			{0, 1000, 2000},
			{1000, 0, 1500},
			{2000, 1500, 0},
		},
	}
}

func TestArcCostCenterVehicleDiscountsCenterZoneArcs(t *testing.T) {
	inZone := types.Customer{ID: "c1", Coords: geo.Point{Lat: 0, Lon: 0}}
	outZone := types.Customer{ID: "c2", Coords: geo.Point{Lat: 9, Lon: 9}}
	nodes := []Node{{Index: 0}, {Index: 1, Customer: &inZone}, {Index: 2, Customer: &outZone}}

	loc := types.LocationConfig{CenterDiscount: 0.5, EnableCenterZoneRestrict: true}
	m := NewModel(buildMatrix(), nodes, loc, []types.Customer{inZone})

	if got := m.ArcCost(types.KindCenter, 0, 1); got != 500 {
		t.Fatalf("expected discounted cost 500 for in-zone arc, got %d", got)
	}
	if got := m.ArcCost(types.KindCenter, 0, 2); got != 2000 {
		t.Fatalf("expected undiscounted cost 2000 for out-of-zone arc, got %d", got)
	}
}

func TestArcCostNonCenterVehiclePenalizesCenterZoneArcs(t *testing.T) {
	inZone := types.Customer{ID: "c1", Coords: geo.Point{Lat: 0, Lon: 0}}
	nodes := []Node{{Index: 0}, {Index: 1, Customer: &inZone}}

	loc := types.LocationConfig{
		EnableCenterZoneRestrict: true,
		CenterPenaltyByKind:      map[types.VehicleKind]float64{types.KindExternal: 50000},
	}
	m := NewModel(buildMatrix(), nodes, loc, []types.Customer{inZone})

	if got := m.ArcCost(types.KindExternal, 0, 1); got != 51000 {
		t.Fatalf("expected base+penalty 51000, got %d", got)
	}
	// Never blocks starting: arcs that don't terminate at a center-zone
	// customer are left untouched.
	nodes2 := []Node{{Index: 0}, {Index: 1}}
	m2 := NewModel(buildMatrix(), nodes2, loc, nil)
	if got := m2.ArcCost(types.KindExternal, 0, 1); got != 1000 {
		t.Fatalf("expected unmodified base cost 1000, got %d", got)
	}
}

func TestArcCostRestrictionDisabledLeavesCostsUntouched(t *testing.T) {
	inZone := types.Customer{ID: "c1", Coords: geo.Point{Lat: 0, Lon: 0}}
	nodes := []Node{{Index: 0}, {Index: 1, Customer: &inZone}}

	loc := types.LocationConfig{
		EnableCenterZoneRestrict: false,
		CenterPenaltyByKind:      map[types.VehicleKind]float64{types.KindExternal: 50000},
	}
	m := NewModel(buildMatrix(), nodes, loc, []types.Customer{inZone})

	if got := m.ArcCost(types.KindExternal, 0, 1); got != 1000 {
		t.Fatalf("expected untouched cost when restrictions disabled, got %d", got)
	}
}

func TestSkipPenaltyCapsAtInt64Max(t *testing.T) {
	if got := SkipPenalty(-5); got != 0 {
		t.Fatalf("expected negative penalty clamped to 0, got %d", got)
	}
	if got := SkipPenalty(45000); got != 45000 {
		t.Fatalf("expected pass-through for ordinary penalty, got %d", got)
	}
	if got := SkipPenalty(math.MaxInt64); got != math.MaxInt64 {
		t.Fatalf("expected int64 max to be the cap, got %d", got)
	}
}
