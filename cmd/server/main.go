package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"delivery-route-service/internal/api"
	"delivery-route-service/internal/cvrp/cache"
	"delivery-route-service/internal/cvrp/config"
	"delivery-route-service/internal/cvrp/orchestrator"
	"delivery-route-service/internal/cvrp/platform/db"
	"delivery-route-service/internal/cvrp/race"
	"delivery-route-service/internal/cvrp/routing"
)

// main is the application composition root. It wires the routing engines,
// the persistent matrix cache, the optional Redis race board, and the
// orchestrator behind the HTTP API, failing fast on missing required
// config, matching the teacher's cmd/server/main.go.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := getEnv("PORT", "8080")
	valhallaURL := getEnv("VALHALLA_URL", "http://localhost:8002")
	osrmURL := getEnv("OSRM_URL", "http://localhost:5000")

	matrixCache, closeCache, err := openMatrixCache()
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	routingCfg := config.DefaultRoutingConfig()
	primary := routing.NewValhallaEngine(valhallaURL, routingCfg)
	fallback := routing.NewOSRMEngine(osrmURL)
	provider := routing.NewCompositeProvider(primary, fallback, matrixCache, routingCfg)

	board, err := openRaceBoard()
	if err != nil {
		log.Fatal(err)
	}

	o := orchestrator.New(provider, board)
	router := api.NewRouter(o)

	// Timeouts are tuned for cold-cache route solves (external engine
	// latency plus the solver's own time budget).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openMatrixCache wires a Postgres-backed cache when DATABASE_URL is set,
// falling back to a local SQLite file for single-node/dev runs.
func openMatrixCache() (cache.MatrixCache, func(), error) {
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewSQLMatrixCache(conn)
		if err := c.InitSchema(); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("init matrix cache schema: %w", err)
		}
		return c, func() { conn.Close() }, nil
	}

	dbPath := getEnv("DB_PATH", "data/app.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("verify sqlite connection to %q: %w", dbPath, err)
	}
	c := cache.NewSqliteMatrixCache(conn)
	if err := c.InitSchema(); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("init matrix cache schema: %w", err)
	}
	return c, func() { conn.Close() }, nil
}

// openRaceBoard wires an optional Redis-backed race.Board. Unset
// REDIS_ADDR disables it; the orchestrator treats a nil Board as "don't
// publish standings" (spec.md §5's race coordination is additive, not
// required).
func openRaceBoard() (*race.Board, error) {
	addr := os.Getenv("REDIS_ADDR")
	if strings.TrimSpace(addr) == "" {
		return nil, nil
	}

	ttlSeconds, err := strconv.Atoi(getEnv("REDIS_BOARD_TTL_SECONDS", "600"))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_BOARD_TTL_SECONDS: %w", err)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	return race.NewBoard(client, time.Duration(ttlSeconds)*time.Second), nil
}
