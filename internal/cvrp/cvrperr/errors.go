// Package cvrperr defines the sentinel error taxonomy shared across the
// routing core, so callers can branch with errors.Is instead of string
// matching.
package cvrperr

import "errors"

var (
	// ErrNoEnabledVehicles is returned by the warehouse splitter when the
	// fleet has no enabled vehicle to allocate requests to.
	ErrNoEnabledVehicles = errors.New("cvrp: no enabled vehicles in fleet")

	// ErrNoSolution is returned when the solver engine produces no
	// feasible solution within its time budget.
	ErrNoSolution = errors.New("cvrp: solver found no solution")

	// ErrInfeasibleRoute is returned when a required-customer route
	// violates its vehicle kind's hard bounds after extraction.
	ErrInfeasibleRoute = errors.New("cvrp: route violates vehicle constraints")

	// ErrMatrixUnavailable is returned when no routing engine (primary,
	// fallback, or haversine synthesis) could produce a distance matrix.
	ErrMatrixUnavailable = errors.New("cvrp: distance matrix unavailable")
)
