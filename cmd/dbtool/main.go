package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"delivery-route-service/internal/cvrp/cache"
	"delivery-route-service/internal/cvrp/platform/db"
)

// dbtool initializes the Postgres schema backing the persistent submatrix
// cache, matching the teacher's cmd/dbtool composition root shape (load
// env, open the pool, run schema init, exit).
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing matrix cache schema...")
	matrixCache := cache.NewSQLMatrixCache(conn)
	if err := matrixCache.InitSchema(); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}
