// Package retrieval implements the retrieval and context assembly pipeline:
// directory routing, candidate filtering, composite scoring, diversity
// deduplication, and budget-constrained packing of memory records into a
// baseline section plus a retrieved section.
package retrieval

import "github.com/memopack/memopack-go/pkg/memory"

// Default tuning values for the retrieval pipeline.
const (
	// DefaultTopKDirectories is the number of directories the router keeps.
	DefaultTopKDirectories = 3

	// DefaultMaxCandidates caps the candidate pool before scoring.
	DefaultMaxCandidates = 50

	// DefaultDiversityThreshold is the maximum allowed embedding similarity
	// between two simultaneously retrieved records.
	DefaultDiversityThreshold = 0.9
)

// DefaultBaselinePriorityFiles are the baseline filenames placed first, in
// order, before the remaining baseline records.
var DefaultBaselinePriorityFiles = []string{"identity.md", "hard_constraints.md"}

// Config contains the tunable parameters of the retrieval pipeline.
//
// The zero value is not usable directly; call ApplyDefaults or construct
// via DefaultConfig.
type Config struct {
	// TopKDirectories is the number of directories the router selects
	// by similarity. Directories holding baseline records are always
	// included in addition to the top K.
	TopKDirectories int `json:"top_k_directories"`

	// MaxCandidates caps the candidate pool size before scoring. When the
	// pool exceeds the cap, the highest raw-similarity records are kept.
	MaxCandidates int `json:"max_candidates"`

	// DiversityThreshold is the near-duplicate cutoff: a candidate whose
	// maximum cosine similarity against already-selected records exceeds
	// this value is discarded.
	DiversityThreshold float64 `json:"diversity_threshold"`

	// BaselinePriorityFiles lists baseline filenames placed first, in
	// listed order, when assembling the baseline section.
	BaselinePriorityFiles []string `json:"baseline_priority_files,omitempty"`

	// Scoring holds the composite score weights and confidence table.
	Scoring ScoringConfig `json:"scoring"`
}

// DefaultConfig returns a Config populated with the default tuning values.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.TopKDirectories <= 0 {
		c.TopKDirectories = DefaultTopKDirectories
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if c.DiversityThreshold <= 0 {
		c.DiversityThreshold = DefaultDiversityThreshold
	}
	if c.BaselinePriorityFiles == nil {
		c.BaselinePriorityFiles = append([]string(nil), DefaultBaselinePriorityFiles...)
	}
	c.Scoring.ApplyDefaults()
}

// ScoringConfig holds the composite score weights and the confidence score
// table. The weights are process-wide configuration, not per-query tunables;
// the Version field lets deployments track which weight set produced a pack.
type ScoringConfig struct {
	// Version identifies the weight set (for observability; not used in
	// score computation).
	Version string `json:"version,omitempty"`

	// SimilarityWeight is the weight of cosine similarity. Default 0.6.
	SimilarityWeight float64 `json:"similarity_weight"`

	// PriorityWeight is the weight of record priority. Default 0.25.
	PriorityWeight float64 `json:"priority_weight"`

	// ConfidenceWeight is the weight of the confidence score. Default 0.15.
	ConfidenceWeight float64 `json:"confidence_weight"`

	// ConfidenceScores maps each confidence level to its score.
	// Unknown levels score 0.5.
	ConfidenceScores map[memory.Confidence]float64 `json:"confidence_scores,omitempty"`
}

// ApplyDefaults fills unset scoring fields with the fixed design defaults.
func (s *ScoringConfig) ApplyDefaults() {
	if s.Version == "" {
		s.Version = "v1"
	}
	if s.SimilarityWeight == 0 && s.PriorityWeight == 0 && s.ConfidenceWeight == 0 {
		s.SimilarityWeight = 0.6
		s.PriorityWeight = 0.25
		s.ConfidenceWeight = 0.15
	}
	if s.ConfidenceScores == nil {
		s.ConfidenceScores = map[memory.Confidence]float64{
			memory.ConfidenceStable:       1.0,
			memory.ConfidenceActive:       0.8,
			memory.ConfidenceExperimental: 0.5,
			memory.ConfidenceDeprecated:   0.0,
		}
	}
}

// ConfidenceScore returns the score for a confidence level, or 0.5 for
// levels missing from the table.
func (s *ScoringConfig) ConfidenceScore(c memory.Confidence) float64 {
	if score, ok := s.ConfidenceScores[c]; ok {
		return score
	}
	return 0.5
}
