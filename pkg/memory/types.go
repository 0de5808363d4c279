// Package memory defines the data model shared by the retrieval engine and
// its collaborators: memory records, directory aggregates, immutable
// snapshots, and the assembled pack types.
package memory

import "time"

// Scope defines where a memory record applies and how retrieval treats it.
//
// Scopes control candidate eligibility:
//   - ScopeBaseline: always considered, regardless of directory routing
//     or scope filters
//   - ScopeGlobal / ScopeAgent / ScopeProject: regular retrievable scopes
//   - ScopeEphemeral: short-lived records that may carry an expiry
type Scope string

const (
	// ScopeBaseline marks mandatory records assembled into the baseline section.
	ScopeBaseline Scope = "baseline"

	// ScopeGlobal marks records that apply across all agents and projects.
	ScopeGlobal Scope = "global"

	// ScopeAgent marks records tied to a specific agent.
	ScopeAgent Scope = "agent"

	// ScopeProject marks records tied to a specific project.
	ScopeProject Scope = "project"

	// ScopeEphemeral marks short-lived records; only ephemeral records
	// may expire.
	ScopeEphemeral Scope = "ephemeral"
)

// Confidence indicates how stable a record's content is. It feeds the
// composite ranking score through a fixed lookup table.
type Confidence string

const (
	// ConfidenceExperimental marks unproven content.
	ConfidenceExperimental Confidence = "experimental"

	// ConfidenceActive marks content in regular use.
	ConfidenceActive Confidence = "active"

	// ConfidenceStable marks well-established content.
	ConfidenceStable Confidence = "stable"

	// ConfidenceDeprecated marks content scheduled for removal.
	ConfidenceDeprecated Confidence = "deprecated"
)

// Status is the lifecycle state of a record.
type Status string

const (
	// StatusActive marks records eligible for retrieval.
	StatusActive Status = "active"

	// StatusDeprecated marks records excluded unless the query opts in.
	StatusDeprecated Status = "deprecated"
)

// Record is the unit of retrieval: a short text memory with ranking
// metadata and a precomputed embedding.
//
// Records are produced by an external indexer and are read-only from the
// engine's perspective. UsageCount and LastUsed are updated through the
// usage sink after a query completes, never during the query that selected
// the record.
type Record struct {
	// ID uniquely and stably identifies the record.
	ID string `json:"id"`

	// Path is the unique source path of the record (e.g. "project/auth.md").
	Path string `json:"path"`

	// Directory is the directory portion of Path; empty for root-level paths.
	Directory string `json:"directory"`

	// Title is the record's short title.
	Title string `json:"title"`

	// Body is the record's text content.
	Body string `json:"body"`

	// TokenCount is the precomputed token size of Body. Never negative.
	TokenCount int `json:"token_count"`

	// Scope classifies where the record applies.
	Scope Scope `json:"scope"`

	// Priority is the curated importance in [0,1].
	Priority float64 `json:"priority"`

	// Confidence indicates content stability.
	Confidence Confidence `json:"confidence"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Tags are free-form labels. Informational for retrieval.
	Tags []string `json:"tags,omitempty"`

	// Created is when the record was first indexed.
	Created time.Time `json:"created"`

	// LastUsed is when the record was last included in a pack (nil if never).
	LastUsed *time.Time `json:"last_used,omitempty"`

	// UsageCount is how many packs have included this record.
	UsageCount int `json:"usage_count"`

	// Expires is the expiry time for ephemeral records (nil otherwise).
	Expires *time.Time `json:"expires,omitempty"`

	// Supersedes lists record IDs this record replaces. Not dereferenced
	// during ranking.
	Supersedes []string `json:"supersedes,omitempty"`

	// Related lists related record IDs. Not dereferenced during ranking.
	Related []string `json:"related,omitempty"`

	// Embedding is the composite embedding vector. All records in one
	// snapshot share the same dimension.
	Embedding []float64 `json:"embedding,omitempty"`
}

// DirectoryOf derives the directory component of a path. Root-level paths
// have an empty directory.
func DirectoryOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// Filename returns the final path component of the record's path.
func (r *Record) Filename() string {
	p := r.Path
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

// IsBaseline reports whether the record belongs to the baseline scope.
func (r *Record) IsBaseline() bool {
	return r.Scope == ScopeBaseline
}

// IsActive reports whether the record is in the active lifecycle state.
func (r *Record) IsActive() bool {
	return r.Status == StatusActive
}

// IsExpired reports whether an ephemeral record has passed its expiry at
// the given instant. Records without an expiry never expire.
func (r *Record) IsExpired(now time.Time) bool {
	if r.Scope != ScopeEphemeral || r.Expires == nil {
		return false
	}
	return now.After(*r.Expires)
}

// DirectoryAggregate summarizes one directory of records for routing:
// its path, the aggregated embedding of its active non-expired records,
// and how many records it holds.
type DirectoryAggregate struct {
	// Path is the directory path.
	Path string `json:"path"`

	// Embedding is the mean embedding of the directory's active records.
	Embedding []float64 `json:"embedding,omitempty"`

	// RecordCount is the number of records aggregated.
	RecordCount int `json:"record_count"`
}

// Snapshot is an immutable, versioned view of all indexed records and
// directory aggregates, valid for exactly one query. The provider owns
// visibility; the engine never mutates a snapshot.
type Snapshot struct {
	// Version identifies the snapshot generation.
	Version string `json:"version"`

	// TakenAt is when the snapshot was materialized.
	TakenAt time.Time `json:"taken_at"`

	// Records holds every indexed record.
	Records []*Record `json:"records"`

	// Directories holds one aggregate per distinct directory.
	Directories []*DirectoryAggregate `json:"directories"`
}

// IsEmpty reports whether the snapshot holds no records.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Records) == 0
}

// UsageEvent records that a memory was included in a pack. Events are
// applied by the usage sink after the query returns; losing one on crash
// is acceptable.
type UsageEvent struct {
	// RecordID is the included record.
	RecordID string `json:"record_id"`

	// Path is the record's path, for sinks that key usage by path.
	Path string `json:"path"`

	// Baseline is true when the record was included via the baseline section.
	Baseline bool `json:"baseline"`

	// Timestamp is when the pack was assembled.
	Timestamp time.Time `json:"timestamp"`
}

// RankedCandidate pairs a record with its raw similarity and composite
// ranking score for one query.
type RankedCandidate struct {
	// Record is the underlying memory record.
	Record *Record

	// Similarity is the cosine similarity to the query embedding, in [-1,1].
	Similarity float64

	// CompositeScore is the weighted blend of similarity, priority, and
	// confidence used for ranking.
	CompositeScore float64

	// Rank is the zero-based position after scoring.
	Rank int
}
