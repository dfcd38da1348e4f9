package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// ValhallaEngine is the primary, time-dependent routing engine: it honors
// a departure time and truck costing options, grounded on
// original_source/valhalla_client.py's sources_to_targets request shape.
type ValhallaEngine struct {
	client  *httpClient
	baseURL string
	cfg     types.RoutingConfig
}

// NewValhallaEngine builds a Valhalla engine against baseURL (e.g.
// "http://localhost:8002").
func NewValhallaEngine(baseURL string, cfg types.RoutingConfig) *ValhallaEngine {
	return &ValhallaEngine{client: newHTTPClient(30 * time.Second), baseURL: baseURL, cfg: cfg}
}

func (e *ValhallaEngine) Name() string { return "valhalla" }

type valhallaLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type valhallaDateTime struct {
	Type  int    `json:"type"`
	Value string `json:"value"`
}

type valhallaTruckOptions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Weight float64 `json:"weight"`
}

type valhallaCostingOptions struct {
	Truck *valhallaTruckOptions `json:"truck,omitempty"`
}

type valhallaRequest struct {
	Sources        []valhallaLocation      `json:"sources"`
	Targets        []valhallaLocation      `json:"targets"`
	Costing        string                  `json:"costing"`
	DateTime       *valhallaDateTime       `json:"date_time,omitempty"`
	CostingOptions *valhallaCostingOptions `json:"costing_options,omitempty"`
}

type valhallaCell struct {
	Distance float64 `json:"distance"` // km
	Time     float64 `json:"time"`     // seconds
}

type valhallaResponse struct {
	SourcesToTargets [][]valhallaCell `json:"sources_to_targets"`
}

// Matrix issues a single sources_to_targets call. Callers batch large
// location lists before calling this (see batch.go).
func (e *ValhallaEngine) Matrix(ctx context.Context, locations []geo.Point) (*types.DistanceMatrix, error) {
	n := len(locations)
	locs := make([]valhallaLocation, n)
	for i, p := range locations {
		locs[i] = valhallaLocation{Lat: p.Lat, Lon: p.Lon}
	}

	req := valhallaRequest{Sources: locs, Targets: locs, Costing: "truck"}
	if e.cfg.EnableTimeDependent {
		dep := e.cfg.DepartureTime
		if dep == "" {
			dep = "08:00"
		}
		req.DateTime = &valhallaDateTime{Type: 1, Value: fmt.Sprintf("%sT%s", time.Now().Format("2006-01-02"), dep)}
	}
	if e.cfg.TruckHeightM > 0 || e.cfg.TruckWidthM > 0 || e.cfg.TruckWeightTons > 0 {
		req.CostingOptions = &valhallaCostingOptions{Truck: &valhallaTruckOptions{
			Height: e.cfg.TruckHeightM,
			Width:  e.cfg.TruckWidthM,
			Weight: e.cfg.TruckWeightTons,
		}}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("valhalla: marshal request: %w", err)
	}

	url := e.baseURL + "/sources_to_targets"
	resp, err := e.client.doWithRetry(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("valhalla: matrix request: %w", err)
	}
	defer resp.Body.Close()

	var vr valhallaResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("valhalla: decode response: %w", err)
	}
	if len(vr.SourcesToTargets) != n {
		return nil, fmt.Errorf("valhalla: expected %d source rows, got %d", n, len(vr.SourcesToTargets))
	}

	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i, row := range vr.SourcesToTargets {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
		if len(row) != n {
			return nil, fmt.Errorf("valhalla: row %d has %d cells, want %d", i, len(row), n)
		}
		for j, cell := range row {
			dist[i][j] = cell.Distance * 1000
			dur[i][j] = cell.Time
		}
	}

	return &types.DistanceMatrix{Locations: locations, Distances: dist, Durations: dur}, nil
}
