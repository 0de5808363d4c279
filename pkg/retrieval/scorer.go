package retrieval

import (
	"sort"

	"github.com/memopack/memopack-go/pkg/memory"
)

// Scorer computes composite relevance scores and orders the candidate pool.
//
// The composite score blends raw similarity, curated priority, and the
// confidence score table:
//
//	composite = similarityWeight·similarity + priorityWeight·priority + confidenceWeight·confidence
//
// The ordering is total and deterministic: composite score descending,
// then usage count descending, then record ID ascending. Identical inputs
// therefore always rank identically.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a scorer with the given weight configuration.
// Unset fields fall back to the fixed design defaults.
func NewScorer(cfg ScoringConfig) *Scorer {
	cfg.ApplyDefaults()
	return &Scorer{cfg: cfg}
}

// Rank computes composite scores for the pool, sorts it descending, and
// assigns rank positions. The slice is sorted in place and returned.
func (s *Scorer) Rank(pool []*memory.RankedCandidate) []*memory.RankedCandidate {
	for _, c := range pool {
		c.CompositeScore = s.cfg.SimilarityWeight*c.Similarity +
			s.cfg.PriorityWeight*c.Record.Priority +
			s.cfg.ConfidenceWeight*s.cfg.ConfidenceScore(c.Record.Confidence)
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].CompositeScore != pool[j].CompositeScore {
			return pool[i].CompositeScore > pool[j].CompositeScore
		}
		if pool[i].Record.UsageCount != pool[j].Record.UsageCount {
			return pool[i].Record.UsageCount > pool[j].Record.UsageCount
		}
		return pool[i].Record.ID < pool[j].Record.ID
	})

	for i, c := range pool {
		c.Rank = i
	}

	return pool
}
