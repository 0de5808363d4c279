package retrieval

import "github.com/memopack/memopack-go/pkg/memory"

// PackedSection is the retrieved section produced by the budget packer.
type PackedSection struct {
	// Entries are the included entries, in rank order.
	Entries []memory.PackEntry

	// TokensUsed is the section's token total.
	TokensUsed int

	// ExcludedPaths lists records skipped because they did not fit the
	// remaining budget, in rank order.
	ExcludedPaths []string
}

// BudgetPacker greedily fills the remaining token budget from the ranked,
// deduplicated candidate list.
//
// Packing is first-fit-skip, the same policy as the baseline section: an
// oversized record is skipped and iteration continues, preserving rank
// order rather than attempting bin-packing optimality. Simplicity and
// predictability win over optimal fill here; which records appear under a
// tight budget must be reproducible.
type BudgetPacker struct{}

// NewBudgetPacker creates a packer.
func NewBudgetPacker() *BudgetPacker {
	return &BudgetPacker{}
}

// Pack iterates the ranked list in order, adding each record that fits the
// remaining budget and skipping the rest. Iteration stops early only when
// the budget is filled exactly.
func (p *BudgetPacker) Pack(ranked []*memory.RankedCandidate, remainingBudget int) PackedSection {
	var section PackedSection

	for _, c := range ranked {
		if section.TokensUsed+c.Record.TokenCount <= remainingBudget {
			section.Entries = append(section.Entries, memory.PackEntry{
				RecordID:       c.Record.ID,
				Path:           c.Record.Path,
				Title:          c.Record.Title,
				Body:           c.Record.Body,
				TokenCount:     c.Record.TokenCount,
				RelevanceScore: c.Similarity,
				Section:        memory.SectionRetrieved,
			})
			section.TokensUsed += c.Record.TokenCount

			if section.TokensUsed == remainingBudget {
				break
			}
		} else {
			section.ExcludedPaths = append(section.ExcludedPaths, c.Record.Path)
		}
	}

	return section
}
