package retrieval

import "github.com/memopack/memopack-go/pkg/memory"

// DiversityResult is the output of the diversity filter.
type DiversityResult struct {
	// Kept is the deduplicated ranked list, in rank order.
	Kept []*memory.RankedCandidate

	// ExcludedPaths lists near-duplicates discarded in favor of a
	// higher-ranked record.
	ExcludedPaths []string
}

// DiversityFilter removes near-duplicate candidates by pairwise embedding
// similarity against already-accepted records.
//
// This is a greedy relevance-diversity trade-off, not clustering: walking
// in descending score order guarantees that of two near-duplicates the
// higher-scored one survives. Cost is O(n·m) in accepted records, which
// the candidate cap keeps small.
type DiversityFilter struct {
	threshold float64
}

// NewDiversityFilter creates a filter with the given similarity threshold.
// A non-positive threshold falls back to the default.
func NewDiversityFilter(threshold float64) *DiversityFilter {
	if threshold <= 0 {
		threshold = DefaultDiversityThreshold
	}
	return &DiversityFilter{threshold: threshold}
}

// Apply walks the ranked pool in order, skipping records already placed in
// the baseline section, and discards any candidate whose maximum cosine
// similarity against the accepted set strictly exceeds the threshold.
func (f *DiversityFilter) Apply(ranked []*memory.RankedCandidate, placed map[string]bool) DiversityResult {
	var result DiversityResult
	var accepted [][]float64

	for _, c := range ranked {
		if placed[c.Record.ID] {
			continue
		}

		duplicate := false
		for _, emb := range accepted {
			if CosineSimilarity(c.Record.Embedding, emb) > f.threshold {
				duplicate = true
				break
			}
		}

		if duplicate {
			result.ExcludedPaths = append(result.ExcludedPaths, c.Record.Path)
			continue
		}

		result.Kept = append(result.Kept, c)
		accepted = append(accepted, c.Record.Embedding)
	}

	return result
}
