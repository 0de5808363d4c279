package core

import (
	"time"

	"github.com/memopack/memopack-go/pkg/memory"
)

// Default token budgets for a query.
const (
	// DefaultTotalBudget is the default total token budget for a pack.
	DefaultTotalBudget = 2000

	// DefaultBaselineBudget is the default sub-budget for the baseline
	// section.
	DefaultBaselineBudget = 800
)

// QueryOption is a function type for configuring Query operations, applied
// via the functional options pattern.
type QueryOption func(*QueryOptions)

// QueryOptions contains the per-query parameters of the retrieval pipeline.
type QueryOptions struct {
	// TotalBudget is the total token budget for the pack. Zero is valid
	// and yields an empty pack.
	TotalBudget int

	// BaselineBudget is the sub-budget for the baseline section. Must not
	// exceed TotalBudget. When not set explicitly it defaults to
	// DefaultBaselineBudget capped at TotalBudget.
	BaselineBudget int

	// baselineSet records whether WithBaselineBudget was supplied, so the
	// defaulted baseline can shrink with a small total while an explicit
	// baseline above the total is still rejected.
	baselineSet bool

	// ScopeFilter restricts retrieved candidates to a single scope when
	// non-empty. Baseline records are exempt.
	ScopeFilter memory.Scope

	// ExcludeEphemeral drops ephemeral records from consideration.
	ExcludeEphemeral bool

	// IncludeDeprecated keeps deprecated records in consideration.
	// Deprecated baseline records are still never auto-included.
	IncludeDeprecated bool

	// Now overrides the instant used for expiry checks and timestamps.
	// Zero means the wall clock. Fixing it makes queries reproducible
	// in tests.
	Now time.Time
}

// applyQueryOptions builds QueryOptions from defaults plus the given options.
func applyQueryOptions(opts []QueryOption) QueryOptions {
	options := QueryOptions{
		TotalBudget:    DefaultTotalBudget,
		BaselineBudget: DefaultBaselineBudget,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.baselineSet {
		options.BaselineBudget = min(DefaultBaselineBudget, options.TotalBudget)
	}
	return options
}

// WithTotalBudget sets the total token budget for the pack.
//
// Example:
//
//	pack, _ := engine.Query(ctx, "auth flow", core.WithTotalBudget(1500))
func WithTotalBudget(budget int) QueryOption {
	return func(opts *QueryOptions) {
		opts.TotalBudget = budget
	}
}

// WithBaselineBudget sets the sub-budget for the baseline section.
//
// Example:
//
//	pack, _ := engine.Query(ctx, "auth flow", core.WithBaselineBudget(500))
func WithBaselineBudget(budget int) QueryOption {
	return func(opts *QueryOptions) {
		opts.BaselineBudget = budget
		opts.baselineSet = true
	}
}

// WithScopeFilter restricts retrieved candidates to a single scope.
//
// Example:
//
//	pack, _ := engine.Query(ctx, "auth flow", core.WithScopeFilter(memory.ScopeProject))
func WithScopeFilter(scope memory.Scope) QueryOption {
	return func(opts *QueryOptions) {
		opts.ScopeFilter = scope
	}
}

// WithExcludeEphemeral drops ephemeral records from consideration.
func WithExcludeEphemeral() QueryOption {
	return func(opts *QueryOptions) {
		opts.ExcludeEphemeral = true
	}
}

// WithIncludeDeprecated keeps deprecated records in consideration.
func WithIncludeDeprecated() QueryOption {
	return func(opts *QueryOptions) {
		opts.IncludeDeprecated = true
	}
}

// WithClock fixes the instant used for expiry checks and pack timestamps.
func WithClock(now time.Time) QueryOption {
	return func(opts *QueryOptions) {
		opts.Now = now
	}
}

// validate checks the structural validity of the options.
//
// A zero total budget is deliberately valid: it yields an empty pack
// rather than an error, because an empty bundle is a correct answer to
// "no room". Negative budgets and a baseline budget above the total are
// rejected before any ranking work.
func (o *QueryOptions) validate() error {
	if o.TotalBudget < 0 || o.BaselineBudget < 0 {
		return ErrInvalidBudget
	}
	if o.BaselineBudget > o.TotalBudget {
		return ErrInvalidBudget
	}
	if o.ScopeFilter != "" {
		switch o.ScopeFilter {
		case memory.ScopeBaseline, memory.ScopeGlobal, memory.ScopeAgent,
			memory.ScopeProject, memory.ScopeEphemeral:
		default:
			return ErrInvalidScope
		}
	}
	return nil
}
