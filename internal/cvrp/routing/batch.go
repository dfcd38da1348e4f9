package routing

import (
	"context"

	"golang.org/x/sync/errgroup"

	"delivery-route-service/internal/cvrp/geo"
	"delivery-route-service/internal/cvrp/types"
)

// batchedMatrix computes a full matrix for large location lists by tiling
// the N x N grid into edge x edge squares and issuing one engine call per
// tile, mirroring original_source/valhalla_client.py's batch mode for
// datasets above the engine's direct-request threshold.
func batchedMatrix(ctx context.Context, e Engine, locations []geo.Point, edge int) (*types.DistanceMatrix, error) {
	n := len(locations)
	if edge <= 0 || edge >= n {
		return e.Matrix(ctx, locations)
	}

	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
	}

	type tile struct {
		rowStart, rowEnd int
		colStart, colEnd int
	}

	var tiles []tile
	for r := 0; r < n; r += edge {
		re := min(r+edge, n)
		for c := 0; c < n; c += edge {
			ce := min(c+edge, n)
			tiles = append(tiles, tile{rowStart: r, rowEnd: re, colStart: c, colEnd: ce})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	results := make([]*types.DistanceMatrix, len(tiles))
	indices := make([][2][]int, len(tiles))

	for idx, t := range tiles {
		idx, t := idx, t
		g.Go(func() error {
			rowLocs := locations[t.rowStart:t.rowEnd]
			colLocs := locations[t.colStart:t.colEnd]
			union := append(append([]geo.Point{}, rowLocs...), colLocs...)

			m, err := e.Matrix(gctx, union)
			if err != nil {
				return err
			}

			results[idx] = m
			rowIdx := make([]int, len(rowLocs))
			colIdx := make([]int, len(colLocs))
			for i := range rowIdx {
				rowIdx[i] = i
			}
			for i := range colIdx {
				colIdx[i] = len(rowLocs) + i
			}
			indices[idx] = [2][]int{rowIdx, colIdx}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for idx, t := range tiles {
		m := results[idx]
		rowIdx, colIdx := indices[idx][0], indices[idx][1]
		for i, gi := range rowIdx {
			for j, gj := range colIdx {
				dist[t.rowStart+i][t.colStart+j] = m.Distances[gi][gj]
				dur[t.rowStart+i][t.colStart+j] = m.Durations[gi][gj]
			}
		}
	}

	return &types.DistanceMatrix{Locations: locations, Distances: dist, Durations: dur}, nil
}
