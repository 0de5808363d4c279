package retrieval

import (
	"time"

	"github.com/memopack/memopack-go/pkg/memory"
)

// AssembleInput carries the pieces the assembler merges into a pack.
type AssembleInput struct {
	// Query is the originating query text.
	Query string

	// Budget is the total token budget.
	Budget int

	// Baseline is the assembled baseline section.
	Baseline BaselineSection

	// Retrieved is the packed retrieved section.
	Retrieved PackedSection

	// DirectoriesSearched lists the routed directories, in routing order.
	DirectoriesSearched []string

	// CandidatesConsidered is the pool size before the diversity filter.
	CandidatesConsidered int

	// ExcludedPaths collects exclusions from earlier stages (candidate
	// cap, malformed records, diversity); the assembler adds the budget
	// exclusions from both sections.
	ExcludedPaths []string

	// GeneratedAt stamps the pack; zero means now.
	GeneratedAt time.Time
}

// PackAssembler merges the baseline and retrieved sections into the final
// ordered pack with totals and statistics.
type PackAssembler struct{}

// NewPackAssembler creates an assembler.
func NewPackAssembler() *PackAssembler {
	return &PackAssembler{}
}

// Assemble concatenates baseline entries then retrieved entries, preserving
// each section's internal order, and computes token totals and stats.
//
// A record skipped by one stage can still be included by a later one (a
// baseline record that missed the baseline budget may be retrieved), so
// excluded paths are reconciled against the included set before counting.
func (a *PackAssembler) Assemble(in AssembleInput) *memory.Pack {
	generatedAt := in.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	included := make([]string, 0, len(in.Baseline.Entries)+len(in.Retrieved.Entries))
	includedSet := make(map[string]bool)
	for _, e := range in.Baseline.Entries {
		included = append(included, e.Path)
		includedSet[e.Path] = true
	}
	for _, e := range in.Retrieved.Entries {
		included = append(included, e.Path)
		includedSet[e.Path] = true
	}

	var excluded []string
	excludedSet := make(map[string]bool)
	for _, group := range [][]string{
		in.ExcludedPaths,
		in.Baseline.SkippedPaths,
		in.Retrieved.ExcludedPaths,
	} {
		for _, path := range group {
			if includedSet[path] || excludedSet[path] {
				continue
			}
			excluded = append(excluded, path)
			excludedSet[path] = true
		}
	}

	return &memory.Pack{
		GeneratedAt:      generatedAt,
		Query:            in.Query,
		BaselineEntries:  in.Baseline.Entries,
		RetrievedEntries: in.Retrieved.Entries,
		BaselineTokens:   in.Baseline.TokensUsed,
		RetrievedTokens:  in.Retrieved.TokensUsed,
		TotalTokensUsed:  in.Baseline.TokensUsed + in.Retrieved.TokensUsed,
		Budget:           in.Budget,
		IncludedPaths:    included,
		ExcludedPaths:    excluded,
		Stats: memory.Stats{
			DirectoriesSearched:  in.DirectoriesSearched,
			CandidatesConsidered: in.CandidatesConsidered,
			BaselineFiles:        len(in.Baseline.Entries),
			RetrievedFiles:       len(in.Retrieved.Entries),
			ExcludedFiles:        len(excluded),
		},
	}
}
