package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/retrieval"
)

func TestBaselinePriorityFilesFirst(t *testing.T) {
	snap := snapshotOf(
		baselineRec("b3", "baseline/notes.md", 10, 1.0, []float64{1, 0}),
		baselineRec("b2", "baseline/hard_constraints.md", 10, 0.1, []float64{1, 0}),
		baselineRec("b1", "baseline/identity.md", 10, 0.1, []float64{1, 0}),
	)

	section := retrieval.NewBaselineManager(nil).Build(snap, 100)

	require.Len(t, section.Entries, 3)
	assert.Equal(t, "baseline/identity.md", section.Entries[0].Path)
	assert.Equal(t, "baseline/hard_constraints.md", section.Entries[1].Path)
	assert.Equal(t, "baseline/notes.md", section.Entries[2].Path)
}

func TestBaselineRestOrderedByPriorityThenID(t *testing.T) {
	snap := snapshotOf(
		baselineRec("bz", "baseline/z.md", 10, 0.5, []float64{1, 0}),
		baselineRec("ba", "baseline/a.md", 10, 0.5, []float64{1, 0}),
		baselineRec("bh", "baseline/h.md", 10, 0.9, []float64{1, 0}),
	)

	section := retrieval.NewBaselineManager(nil).Build(snap, 100)

	require.Len(t, section.Entries, 3)
	assert.Equal(t, "baseline/h.md", section.Entries[0].Path)
	assert.Equal(t, "baseline/a.md", section.Entries[1].Path)
	assert.Equal(t, "baseline/z.md", section.Entries[2].Path)
}

// Five baseline files sized [100,200,50,400,100] under a 300-token budget:
// the fixed-priority file goes first, the 400-token file is skipped, and
// first-fit-skip keeps filling with the smaller files that follow it.
func TestBaselineFirstFitSkip(t *testing.T) {
	snap := snapshotOf(
		baselineRec("b1", "baseline/identity.md", 100, 1.0, []float64{1, 0}),
		baselineRec("b2", "baseline/big.md", 400, 0.9, []float64{1, 0}),
		baselineRec("b3", "baseline/mid.md", 200, 0.8, []float64{1, 0}),
		baselineRec("b4", "baseline/small.md", 50, 0.7, []float64{1, 0}),
		baselineRec("b5", "baseline/tail.md", 100, 0.6, []float64{1, 0}),
	)

	section := retrieval.NewBaselineManager(nil).Build(snap, 300)

	paths := entryPaths(section.Entries)
	assert.Equal(t, []string{"baseline/identity.md", "baseline/mid.md", "baseline/small.md"}, paths)
	assert.Equal(t, 250, section.TokensUsed)
	assert.LessOrEqual(t, section.TokensUsed, 300)
	assert.Contains(t, section.SkippedPaths, "baseline/big.md")
	assert.Contains(t, section.SkippedPaths, "baseline/tail.md")
}

func TestBaselineExcludesDeprecatedAndNonBaseline(t *testing.T) {
	dep := baselineRec("b1", "baseline/old.md", 10, 1.0, []float64{1, 0})
	dep.Status = memory.StatusDeprecated
	snap := snapshotOf(
		dep,
		baselineRec("b2", "baseline/live.md", 10, 1.0, []float64{1, 0}),
		rec("r1", "a/r1.md", 10, []float64{1, 0}),
	)

	section := retrieval.NewBaselineManager(nil).Build(snap, 100)

	assert.Equal(t, []string{"baseline/live.md"}, entryPaths(section.Entries))
	assert.True(t, section.PlacedIDs["b2"])
	assert.False(t, section.PlacedIDs["b1"])
}

func TestBaselineEntriesMarkedBaseline(t *testing.T) {
	snap := snapshotOf(baselineRec("b1", "baseline/identity.md", 10, 1.0, []float64{1, 0}))

	section := retrieval.NewBaselineManager(nil).Build(snap, 100)

	require.Len(t, section.Entries, 1)
	assert.Equal(t, memory.SectionBaseline, section.Entries[0].Section)
	assert.Equal(t, 1.0, section.Entries[0].RelevanceScore)
}

func entryPaths(entries []memory.PackEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
