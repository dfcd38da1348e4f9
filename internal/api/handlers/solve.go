package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"delivery-route-service/internal/api/dto"
	"delivery-route-service/internal/cvrp/cvrperr"
	"delivery-route-service/internal/cvrp/orchestrator"
)

// SolveHandler exposes POST /solve, translating the wire request into an
// orchestrator.Request, running the pipeline, and translating the result
// back, following the teacher's decode/validate/call/respond shape from
// its plan-handler.
type SolveHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

func NewSolveHandler(o *orchestrator.Orchestrator) *SolveHandler {
	return &SolveHandler{Orchestrator: o}
}

func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.SolveRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "request body must contain a single JSON object")
		return
	}

	orchReq, err := req.ToRequest()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(orchReq.Fleet) == 0 {
		writeError(w, r, http.StatusBadRequest, "fleet must not be empty")
		return
	}

	result, err := h.Orchestrator.Run(r.Context(), orchReq)
	if err != nil {
		switch {
		case errors.Is(err, cvrperr.ErrNoEnabledVehicles):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, cvrperr.ErrMatrixUnavailable):
			writeError(w, r, http.StatusBadGateway, err.Error())
		case errors.Is(err, cvrperr.ErrNoSolution), errors.Is(err, cvrperr.ErrInfeasibleRoute):
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			log.Printf("solve failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
			writeError(w, r, http.StatusInternalServerError, "solve failed")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromResult(result))
}
