package retrieval

import (
	"sort"
	"time"

	"github.com/memopack/memopack-go/pkg/memory"
)

// FilterOptions carries the per-query eligibility rules applied by the
// candidate filter.
type FilterOptions struct {
	// ScopeFilter restricts candidates to a single scope when non-empty.
	// Baseline records are exempt: they are always candidates.
	ScopeFilter memory.Scope

	// ExcludeEphemeral drops ephemeral records from the pool.
	ExcludeEphemeral bool

	// IncludeDeprecated keeps deprecated records in the pool.
	IncludeDeprecated bool

	// Now is the instant used for expiry checks.
	Now time.Time
}

// PoolResult is the output of the candidate filter: the working pool with
// raw similarities attached, plus the records trimmed or skipped along
// the way.
type PoolResult struct {
	// Candidates is the filtered pool, capped at the configured maximum.
	Candidates []*memory.RankedCandidate

	// ExcludedPaths lists records dropped by the max-candidates cap or
	// skipped as malformed, in drop order.
	ExcludedPaths []string
}

// CandidateFilter builds the working candidate pool from the records of
// the routed directories plus all baseline records store-wide.
//
// Records with an embedding dimension different from the query embedding
// are skipped and counted rather than failing the query; one bad record
// must not deny the whole response.
type CandidateFilter struct {
	maxCandidates int
}

// NewCandidateFilter creates a filter capping the pool at maxCandidates.
// A non-positive cap falls back to the default.
func NewCandidateFilter(maxCandidates int) *CandidateFilter {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &CandidateFilter{maxCandidates: maxCandidates}
}

// Pool applies the eligibility rules in order and returns the capped pool.
//
// Rules: deprecated records are dropped unless IncludeDeprecated; ephemeral
// records are dropped when ExcludeEphemeral is set or their expiry has
// passed; a scope filter drops records of other scopes, baseline excepted.
// When the pool exceeds the cap, the highest raw-similarity records are
// kept (ties broken by record ID for reproducibility) and the rest are
// reported in ExcludedPaths.
func (f *CandidateFilter) Pool(queryEmbedding []float64, snap *memory.Snapshot, routed map[string]bool, opts FilterOptions) PoolResult {
	var result PoolResult

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	for _, rec := range snap.Records {
		if !routed[rec.Directory] && !rec.IsBaseline() {
			continue
		}
		if rec.Status == memory.StatusDeprecated && !opts.IncludeDeprecated {
			continue
		}
		// Deprecated baseline records surface only on an explicit
		// baseline scope query, no matter the include_deprecated flag.
		if rec.Status == memory.StatusDeprecated && rec.IsBaseline() &&
			opts.ScopeFilter != memory.ScopeBaseline {
			continue
		}
		if rec.Scope == memory.ScopeEphemeral && opts.ExcludeEphemeral {
			continue
		}
		if rec.IsExpired(now) {
			continue
		}
		if opts.ScopeFilter != "" && rec.Scope != opts.ScopeFilter && !rec.IsBaseline() {
			continue
		}
		if len(rec.Embedding) != len(queryEmbedding) {
			// Malformed record: skip locally, never abort the query.
			result.ExcludedPaths = append(result.ExcludedPaths, rec.Path)
			continue
		}

		result.Candidates = append(result.Candidates, &memory.RankedCandidate{
			Record:     rec,
			Similarity: CosineSimilarity(queryEmbedding, rec.Embedding),
		})
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		if result.Candidates[i].Similarity != result.Candidates[j].Similarity {
			return result.Candidates[i].Similarity > result.Candidates[j].Similarity
		}
		return result.Candidates[i].Record.ID < result.Candidates[j].Record.ID
	})

	if len(result.Candidates) > f.maxCandidates {
		for _, c := range result.Candidates[f.maxCandidates:] {
			result.ExcludedPaths = append(result.ExcludedPaths, c.Record.Path)
		}
		result.Candidates = result.Candidates[:f.maxCandidates]
	}

	return result
}
