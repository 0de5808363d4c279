package retrieval

import (
	"sort"

	"github.com/memopack/memopack-go/pkg/memory"
)

// DirectoryMatch is a directory selected by the router.
type DirectoryMatch struct {
	// Path is the directory path.
	Path string

	// Similarity is the cosine similarity between the query embedding and
	// the directory's aggregate embedding.
	Similarity float64

	// RecordCount is the number of records the directory holds.
	RecordCount int

	// Baseline is true when the directory was included because it holds
	// baseline records, regardless of its similarity rank.
	Baseline bool
}

// DirectoryRouter narrows the search space by ranking directories against
// the query embedding. Routing bounds candidate-set size in large stores;
// with topK at or above the directory count it selects everything, changing
// cost but never correctness.
type DirectoryRouter struct {
	topK int
}

// NewDirectoryRouter creates a router that keeps the top K directories.
// A non-positive K falls back to the default.
func NewDirectoryRouter(topK int) *DirectoryRouter {
	if topK <= 0 {
		topK = DefaultTopKDirectories
	}
	return &DirectoryRouter{topK: topK}
}

// Route returns the top-K directories by cosine similarity against the
// snapshot's directory aggregates, plus every directory holding baseline
// records. Ties break on higher record count, then lexical path order, so
// identical inputs always produce identical routing.
func (r *DirectoryRouter) Route(queryEmbedding []float64, snap *memory.Snapshot) []DirectoryMatch {
	if snap.IsEmpty() {
		return nil
	}

	baselineDirs := make(map[string]bool)
	for _, rec := range snap.Records {
		if rec.IsBaseline() {
			baselineDirs[rec.Directory] = true
		}
	}

	matches := make([]DirectoryMatch, 0, len(snap.Directories))
	for _, dir := range snap.Directories {
		matches = append(matches, DirectoryMatch{
			Path:        dir.Path,
			Similarity:  CosineSimilarity(queryEmbedding, dir.Embedding),
			RecordCount: dir.RecordCount,
			Baseline:    baselineDirs[dir.Path],
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].RecordCount != matches[j].RecordCount {
			return matches[i].RecordCount > matches[j].RecordCount
		}
		return matches[i].Path < matches[j].Path
	})

	selected := matches
	if len(matches) > r.topK {
		selected = matches[:r.topK]

		// Baseline directories are never excluded by routing.
		for _, m := range matches[r.topK:] {
			if m.Baseline {
				selected = append(selected, m)
			}
		}
	}

	return selected
}

// RoutedSet converts matches into a directory membership set.
func RoutedSet(matches []DirectoryMatch) map[string]bool {
	set := make(map[string]bool, len(matches))
	for _, m := range matches {
		set[m.Path] = true
	}
	return set
}
