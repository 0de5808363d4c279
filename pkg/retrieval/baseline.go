package retrieval

import (
	"sort"

	"github.com/memopack/memopack-go/pkg/memory"
)

// BaselineSection is the assembled mandatory section of a pack.
type BaselineSection struct {
	// Entries are the included baseline entries, in baseline order.
	Entries []memory.PackEntry

	// TokensUsed is the section's token total.
	TokensUsed int

	// PlacedIDs holds the IDs of every included record.
	PlacedIDs map[string]bool

	// SkippedPaths lists baseline records that did not fit the budget,
	// in iteration order.
	SkippedPaths []string
}

// BaselineManager assembles the mandatory baseline section under its own
// sub-budget.
//
// Only records with scope baseline and status active participate:
// deprecated baseline records are never auto-included, even when a query
// opts into deprecated records, so the mandatory context stays trustworthy.
type BaselineManager struct {
	priorityFiles []string
}

// NewBaselineManager creates a manager placing the given filenames first.
// A nil list falls back to the default priority files.
func NewBaselineManager(priorityFiles []string) *BaselineManager {
	if priorityFiles == nil {
		priorityFiles = append([]string(nil), DefaultBaselinePriorityFiles...)
	}
	return &BaselineManager{priorityFiles: priorityFiles}
}

// Build assembles the baseline section from the snapshot.
//
// Ordering: the fixed priority filenames first, in listed order, then the
// remaining baseline records by priority descending, ID ascending. Packing
// is first-fit-skip: an oversized record is skipped, not a stopping point,
// so a later smaller record can still fit.
func (m *BaselineManager) Build(snap *memory.Snapshot, baselineBudget int) BaselineSection {
	section := BaselineSection{PlacedIDs: make(map[string]bool)}

	var candidates []*memory.Record
	for _, rec := range snap.Records {
		if rec.IsBaseline() && rec.IsActive() {
			candidates = append(candidates, rec)
		}
	}

	ordered := m.order(candidates)

	for _, rec := range ordered {
		if section.TokensUsed+rec.TokenCount <= baselineBudget {
			section.Entries = append(section.Entries, memory.PackEntry{
				RecordID:       rec.ID,
				Path:           rec.Path,
				Title:          rec.Title,
				Body:           rec.Body,
				TokenCount:     rec.TokenCount,
				RelevanceScore: 1.0,
				Section:        memory.SectionBaseline,
			})
			section.TokensUsed += rec.TokenCount
			section.PlacedIDs[rec.ID] = true
		} else {
			section.SkippedPaths = append(section.SkippedPaths, rec.Path)
		}
	}

	return section
}

// order sorts baseline records: fixed priority filenames first in listed
// order, then the rest by priority descending, ID ascending.
func (m *BaselineManager) order(records []*memory.Record) []*memory.Record {
	byFilename := make(map[string][]*memory.Record)
	var rest []*memory.Record

	priority := make(map[string]bool, len(m.priorityFiles))
	for _, f := range m.priorityFiles {
		priority[f] = true
	}

	for _, rec := range records {
		name := rec.Filename()
		if priority[name] {
			byFilename[name] = append(byFilename[name], rec)
		} else {
			rest = append(rest, rec)
		}
	}

	ordered := make([]*memory.Record, 0, len(records))
	for _, f := range m.priorityFiles {
		group := byFilename[f]
		// Multiple directories can hold a priority filename.
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		ordered = append(ordered, group...)
	}

	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Priority != rest[j].Priority {
			return rest[i].Priority > rest[j].Priority
		}
		return rest[i].ID < rest[j].ID
	})

	return append(ordered, rest...)
}
