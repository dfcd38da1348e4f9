package api

import (
	"net/http"

	"delivery-route-service/internal/api/handlers"
	"delivery-route-service/internal/cvrp/orchestrator"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(o *orchestrator.Orchestrator) http.Handler {
	mux := http.NewServeMux()

	solveHandler := handlers.NewSolveHandler(o)

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/solve", solveHandler.Solve)

	return loggingMiddleware(mux)
}
