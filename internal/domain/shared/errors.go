// Package shared contains common domain types and errors used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// ErrDependencyUnavailable means a fetch the whole operation depends
	// on (friend graph, summary batch, achievement schema) failed.
	// No partial result is returned in that case.
	ErrDependencyUnavailable = errors.New("upstream dependency unavailable")

	// ErrProfileNotFound means the batch summary endpoint resolved no
	// record for the requested Steam ID.
	ErrProfileNotFound = errors.New("steam profile not found")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptySteamID = errors.New("steam id cannot be empty")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
)

// OperationError carries the failed operation's name alongside the
// underlying cause, so handlers can log one coherent line and map the
// wrapped sentinel to a status code.
type OperationError struct {
	Op   string // operation that failed, e.g. "GetLeaderboard"
	Kind error  // base sentinel for errors.Is() checking
	Err  error  // underlying error (optional)
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *OperationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both kind and cause.
func (e *OperationError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// Dependency wraps err as a fatal dependency failure of op.
func Dependency(op string, err error) error {
	return &OperationError{Op: op, Kind: ErrDependencyUnavailable, Err: err}
}
