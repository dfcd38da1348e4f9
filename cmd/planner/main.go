package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"delivery-route-service/internal/api/dto"
	"delivery-route-service/internal/cvrp/cache"
	"delivery-route-service/internal/cvrp/config"
	"delivery-route-service/internal/cvrp/orchestrator"
	"delivery-route-service/internal/cvrp/routing"
)

// planner is a batch CLI entry point (à la cmd/dbtool) that runs one solve
// from a JSON fixture file shaped like the POST /solve body and prints the
// structured summary from spec.md §7 to stdout.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	fixturePath := flag.String("fixture", "", "path to a JSON file shaped like the POST /solve request body")
	dbPath := flag.String("cache-db", "data/planner_cache.db", "SQLite file backing the matrix cache")
	valhallaURL := flag.String("valhalla-url", getEnv("VALHALLA_URL", "http://localhost:8002"), "Valhalla base URL")
	osrmURL := flag.String("osrm-url", getEnv("OSRM_URL", "http://localhost:5000"), "OSRM base URL")
	flag.Parse()

	if *fixturePath == "" {
		log.Fatal("-fixture is required")
	}

	raw, err := os.ReadFile(*fixturePath)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}

	var req dto.SolveRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Fatalf("decode fixture: %v", err)
	}

	orchReq, err := req.ToRequest()
	if err != nil {
		log.Fatalf("translate fixture: %v", err)
	}

	conn, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open matrix cache db: %v", err)
	}
	defer conn.Close()

	matrixCache := cache.NewSqliteMatrixCache(conn)
	if err := matrixCache.InitSchema(); err != nil {
		log.Fatalf("init matrix cache schema: %v", err)
	}

	routingCfg := config.DefaultRoutingConfig()
	primary := routing.NewValhallaEngine(*valhallaURL, routingCfg)
	fallback := routing.NewOSRMEngine(*osrmURL)
	provider := routing.NewCompositeProvider(primary, fallback, matrixCache, routingCfg)

	o := orchestrator.New(provider, nil)

	result, err := o.Run(context.Background(), orchReq)
	if err != nil {
		log.Fatalf("solve: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.FromResult(result).Summary); err != nil {
		log.Fatalf("encode summary: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
