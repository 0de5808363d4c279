// Package core provides the retrieval engine that turns a query and an
// immutable record snapshot into a budget-constrained memory pack.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidBudget indicates a structurally invalid budget: a negative
	// total or baseline budget, or a baseline budget above the total.
	ErrInvalidBudget = errors.New("invalid token budget")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoEmbedder indicates that Query was called without an embedding
	// provider configured.
	ErrNoEmbedder = errors.New("no embedding provider configured")

	// ErrEmbeddingFailed indicates that query embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrSnapshotUnavailable indicates that the snapshot provider failed.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// ErrInvalidScope indicates an unrecognized scope filter value.
	ErrInvalidScope = errors.New("invalid scope")
)

// PackError wraps errors with operation context, making failures
// attributable to a specific engine operation.
//
// Example:
//
//	err := &PackError{Op: "Query", Err: ErrInvalidBudget}
//	// Error() returns: "memopack: Query: invalid token budget"
type PackError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message in the form
// "memopack: <Op>: <Err>".
func (e *PackError) Error() string {
	return fmt.Sprintf("memopack: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *PackError) Unwrap() error {
	return e.Err
}

// NewPackError creates a PackError wrapping the given error. If err is
// nil, returns nil, allowing unconditional wrapping at return sites.
func NewPackError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PackError{Op: op, Err: err}
}
