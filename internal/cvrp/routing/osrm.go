package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// OSRMEngine is the static fallback routing engine, grounded on
// original_source/osrm_client.py's table API usage: a single GET against
// /table/v1/driving/{coords}?annotations=distance,duration.
type OSRMEngine struct {
	client  *httpClient
	baseURL string
}

// NewOSRMEngine builds an OSRM engine against baseURL (e.g.
// "http://localhost:5000").
func NewOSRMEngine(baseURL string) *OSRMEngine {
	return &OSRMEngine{client: newHTTPClient(30 * time.Second), baseURL: baseURL}
}

func (e *OSRMEngine) Name() string { return "osrm" }

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix issues a single table request. OSRM coordinates are lon,lat
// ordered and semicolon-separated.
func (e *OSRMEngine) Matrix(ctx context.Context, locations []geo.Point) (*types.DistanceMatrix, error) {
	n := len(locations)
	coords := make([]string, n)
	for i, p := range locations {
		coords[i] = fmt.Sprintf("%s,%s",
			strconv.FormatFloat(p.Lon, 'f', -1, 64),
			strconv.FormatFloat(p.Lat, 'f', -1, 64))
	}

	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration", e.baseURL, strings.Join(coords, ";"))

	resp, err := e.client.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("osrm: table request: %w", err)
	}
	defer resp.Body.Close()

	var tr osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("osrm: decode response: %w", err)
	}
	if tr.Code != "" && tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm: non-ok response code %q", tr.Code)
	}
	if len(tr.Distances) != n || len(tr.Durations) != n {
		return nil, fmt.Errorf("osrm: expected %dx%d matrix, got distances=%d durations=%d", n, n, len(tr.Distances), len(tr.Durations))
	}

	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := range tr.Distances {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
		if len(tr.Distances[i]) != n || len(tr.Durations[i]) != n {
			return nil, fmt.Errorf("osrm: row %d has inconsistent length", i)
		}
		for j := range tr.Distances[i] {
			if tr.Distances[i][j] != nil {
				dist[i][j] = *tr.Distances[i][j]
			}
			if tr.Durations[i][j] != nil {
				dur[i][j] = *tr.Durations[i][j]
			}
		}
	}

	return &types.DistanceMatrix{Locations: locations, Distances: dist, Durations: dur}, nil
}
