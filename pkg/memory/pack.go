package memory

import (
	"fmt"
	"strings"
	"time"
)

// Section identifies which part of a pack an entry belongs to.
type Section string

const (
	// SectionBaseline marks entries from the mandatory baseline section.
	SectionBaseline Section = "baseline"

	// SectionRetrieved marks entries selected by query-driven retrieval.
	SectionRetrieved Section = "retrieved"
)

// PackEntry is a single memory included in a pack.
type PackEntry struct {
	// RecordID is the included record's ID.
	RecordID string `json:"record_id"`

	// Path is the record's source path.
	Path string `json:"path"`

	// Title is the record's title.
	Title string `json:"title"`

	// Body is the record's text content.
	Body string `json:"body"`

	// TokenCount is the entry's token size.
	TokenCount int `json:"token_count"`

	// RelevanceScore is the query similarity for retrieved entries and
	// 1.0 for baseline entries.
	RelevanceScore float64 `json:"relevance_score"`

	// Section is the pack section the entry was placed in.
	Section Section `json:"section"`
}

// Stats describes how a pack was assembled, for observability.
type Stats struct {
	// DirectoriesSearched lists the directories the router selected.
	DirectoriesSearched []string `json:"directories_searched"`

	// CandidatesConsidered is the pool size after filtering and the
	// max-candidates cap, before the diversity filter.
	CandidatesConsidered int `json:"candidates_considered"`

	// BaselineFiles is the number of baseline entries included.
	BaselineFiles int `json:"baseline_files"`

	// RetrievedFiles is the number of retrieved entries included.
	RetrievedFiles int `json:"retrieved_files"`

	// ExcludedFiles sums every exclusion: candidate-cap trims, malformed
	// records, diversity rejections, and budget skips.
	ExcludedFiles int `json:"excluded_files"`

	// QueryTimeMs is the total wall time for the query.
	QueryTimeMs float64 `json:"query_time_ms"`

	// EmbeddingTimeMs is the time spent embedding the query text.
	EmbeddingTimeMs float64 `json:"embedding_time_ms"`

	// RetrievalTimeMs is the time spent routing, filtering, and ranking.
	RetrievalTimeMs float64 `json:"retrieval_time_ms"`

	// AssemblyTimeMs is the time spent packing and assembling.
	AssemblyTimeMs float64 `json:"assembly_time_ms"`
}

// Pack is the final ordered bundle of baseline and retrieved entries
// returned for a query.
type Pack struct {
	// GeneratedAt is when the pack was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// Query is the originating query text.
	Query string `json:"query"`

	// BaselineEntries are the mandatory entries, in baseline order.
	BaselineEntries []PackEntry `json:"baseline_entries"`

	// RetrievedEntries are the query-driven entries, in rank order.
	RetrievedEntries []PackEntry `json:"retrieved_entries"`

	// BaselineTokens is the token total of the baseline section.
	BaselineTokens int `json:"baseline_tokens"`

	// RetrievedTokens is the token total of the retrieved section.
	RetrievedTokens int `json:"retrieved_tokens"`

	// TotalTokensUsed is BaselineTokens + RetrievedTokens.
	TotalTokensUsed int `json:"total_tokens_used"`

	// Budget is the total token budget the pack was built under.
	Budget int `json:"budget"`

	// IncludedPaths lists every included path, baseline first.
	IncludedPaths []string `json:"included_paths"`

	// ExcludedPaths lists paths excluded for size or diversity.
	ExcludedPaths []string `json:"excluded_paths,omitempty"`

	// Stats describes how the pack was assembled.
	Stats Stats `json:"stats"`
}

// Entries returns baseline and retrieved entries as one ordered list.
func (p *Pack) Entries() []PackEntry {
	out := make([]PackEntry, 0, len(p.BaselineEntries)+len(p.RetrievedEntries))
	out = append(out, p.BaselineEntries...)
	out = append(out, p.RetrievedEntries...)
	return out
}

// RemainingBudget is the unused portion of the total budget.
func (p *Pack) RemainingBudget() int {
	return p.Budget - p.TotalTokensUsed
}

// IsEmpty reports whether the pack holds no entries.
func (p *Pack) IsEmpty() bool {
	return len(p.BaselineEntries) == 0 && len(p.RetrievedEntries) == 0
}

// scopeRenderOrder fixes the grouping order of the retrieved section.
var scopeRenderOrder = []string{"global", "agent", "project", "ephemeral", "other"}

// RenderMarkdown renders the pack as a markdown document for transports
// that deliver text context: a header with token accounting, the baseline
// section, the retrieved section grouped by top-level path scope, and a
// statistics footer. With verbose set, retrieved entries carry their
// relevance scores and excluded paths are listed.
func (p *Pack) RenderMarkdown(verbose bool) string {
	var b strings.Builder

	b.WriteString("# Memory Pack\n")
	fmt.Fprintf(&b, "Generated: %s\n", p.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Task: %q\n", p.Query)
	fmt.Fprintf(&b, "Baseline tokens: %d | Retrieved tokens: %d | Total: %d\n\n---\n\n",
		p.BaselineTokens, p.RetrievedTokens, p.TotalTokensUsed)

	if len(p.BaselineEntries) > 0 {
		b.WriteString("## Baseline (Always Included)\n\n")
		for _, e := range p.BaselineEntries {
			fmt.Fprintf(&b, "### [%s]\n\n%s\n\n", e.Path, e.Body)
		}
		b.WriteString("---\n\n")
	}

	if len(p.RetrievedEntries) > 0 {
		b.WriteString("## Retrieved Context\n\n")

		groups := make(map[string][]PackEntry)
		for _, e := range p.RetrievedEntries {
			scope := "other"
			if i := strings.IndexByte(e.Path, '/'); i > 0 {
				scope = e.Path[:i]
			}
			if !isKnownScopeGroup(scope) {
				scope = "other"
			}
			groups[scope] = append(groups[scope], e)
		}

		for _, scope := range scopeRenderOrder {
			entries, ok := groups[scope]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "### %s%s\n\n", strings.ToUpper(scope[:1]), scope[1:])
			for _, e := range entries {
				if verbose {
					fmt.Fprintf(&b, "#### [%s] (relevance: %.2f)\n\n%s\n\n", e.Path, e.RelevanceScore, e.Body)
				} else {
					fmt.Fprintf(&b, "#### [%s]\n\n%s\n\n", e.Path, e.Body)
				}
			}
		}
		b.WriteString("---\n\n")
	}

	b.WriteString("## Pack Statistics\n")
	fmt.Fprintf(&b, "- Baseline: %d files, %d tokens\n", len(p.BaselineEntries), p.BaselineTokens)
	fmt.Fprintf(&b, "- Retrieved: %d files, %d tokens\n", len(p.RetrievedEntries), p.RetrievedTokens)
	fmt.Fprintf(&b, "- Budget: %d tokens\n", p.Budget)
	fmt.Fprintf(&b, "- Remaining: %d tokens\n", p.RemainingBudget())
	if n := len(p.ExcludedPaths); n > 0 {
		fmt.Fprintf(&b, "- Excluded: %d files\n", n)
		if verbose {
			b.WriteString("\n### Excluded Files\n")
			for _, path := range p.ExcludedPaths {
				fmt.Fprintf(&b, "- %s\n", path)
			}
		}
	}

	return b.String()
}

func isKnownScopeGroup(scope string) bool {
	for _, s := range scopeRenderOrder {
		if s == scope {
			return true
		}
	}
	return false
}
