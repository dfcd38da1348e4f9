package race

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Board publishes race standings to Redis so a dashboard or a second
// process watching the same run key can observe worker progress without
// coupling to this package's in-process Result type. It is optional: the
// orchestrator only wires one in when a Redis address is configured.
type Board struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewBoard builds a Board against an already-configured client.
func NewBoard(client *redis.Client, ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Board{Client: client, TTL: ttl}
}

type standing struct {
	WorkerIndex   int     `json:"worker_index"`
	Strategy      string  `json:"strategy"`
	Metaheuristic string  `json:"metaheuristic"`
	Objective     int64   `json:"objective"`
	Feasible      bool    `json:"feasible"`
	VehiclesUsed  int     `json:"vehicles_used"`
	UpdatedAtUnix int64   `json:"updated_at_unix"`
	DistanceKM    float64 `json:"distance_km"`
}

// Publish records one worker's current result under runID, keyed by
// worker index within a Redis hash so the board reflects the whole
// race's standings, not just the latest writer.
func (b *Board) Publish(ctx context.Context, runID string, r Result, now time.Time) error {
	if b == nil || b.Client == nil {
		return nil
	}

	s := standing{
		WorkerIndex:   r.Worker.Index,
		Strategy:      string(r.Worker.Strategy),
		Metaheuristic: string(r.Worker.Metaheuristic),
		UpdatedAtUnix: now.Unix(),
	}
	if r.Solution != nil {
		s.Objective = r.Solution.Objective
		s.Feasible = r.Solution.Feasible
		s.VehiclesUsed = r.Solution.VehiclesUsed
		s.DistanceKM = r.Solution.TotalDistanceKM
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("race board: marshal standing: %w", err)
	}

	key := boardKey(runID)
	field := fmt.Sprintf("%d", r.Worker.Index)
	if err := b.Client.HSet(ctx, key, field, payload).Err(); err != nil {
		return fmt.Errorf("race board: publish: %w", err)
	}
	if err := b.Client.Expire(ctx, key, b.TTL).Err(); err != nil {
		return fmt.Errorf("race board: refresh ttl: %w", err)
	}
	return nil
}

// Standings returns every worker's last-published standing for runID.
func (b *Board) Standings(ctx context.Context, runID string) (map[string]standing, error) {
	if b == nil || b.Client == nil {
		return nil, nil
	}

	raw, err := b.Client.HGetAll(ctx, boardKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("race board: standings: %w", err)
	}

	out := make(map[string]standing, len(raw))
	for field, payload := range raw {
		var s standing
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("race board: decode standing for worker %s: %w", field, err)
		}
		out[field] = s
	}
	return out, nil
}

func boardKey(runID string) string {
	return "cvrp:race:" + runID
}
