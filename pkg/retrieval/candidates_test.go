package retrieval_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/retrieval"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestFilterDropsUnroutedDirectories(t *testing.T) {
	inRouted := rec("r1", "a/r1.md", 10, []float64{1, 0})
	outRouted := rec("r2", "b/r2.md", 10, []float64{1, 0})
	snap := snapshotOf(inRouted, outRouted)

	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		map[string]bool{"a": true}, retrieval.FilterOptions{Now: testNow})

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "r1", result.Candidates[0].Record.ID)
}

func TestFilterBaselineBypassesRouting(t *testing.T) {
	base := baselineRec("b1", "baseline/identity.md", 10, 1.0, []float64{0, 1})
	snap := snapshotOf(rec("r1", "a/r1.md", 10, []float64{1, 0}), base)

	// Routed set deliberately omits the baseline directory.
	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		map[string]bool{"a": true}, retrieval.FilterOptions{Now: testNow})

	ids := candidateIDs(result.Candidates)
	assert.Contains(t, ids, "b1")
}

func TestFilterDeprecated(t *testing.T) {
	dep := rec("r1", "a/r1.md", 10, []float64{1, 0})
	dep.Status = memory.StatusDeprecated
	snap := snapshotOf(dep)

	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{Now: testNow})
	assert.Empty(t, result.Candidates)

	result = retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{IncludeDeprecated: true, Now: testNow})
	assert.Len(t, result.Candidates, 1)
}

func TestFilterDeprecatedBaselineNeedsExplicitScope(t *testing.T) {
	dep := baselineRec("b1", "baseline/old_rules.md", 10, 0.9, []float64{1, 0})
	dep.Status = memory.StatusDeprecated
	snap := snapshotOf(dep)

	// include_deprecated alone is not enough for a baseline record.
	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{IncludeDeprecated: true, Now: testNow})
	assert.Empty(t, result.Candidates)

	result = retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{
			IncludeDeprecated: true,
			ScopeFilter:       memory.ScopeBaseline,
			Now:               testNow,
		})
	assert.Len(t, result.Candidates, 1)

	// Without include_deprecated the status rule still drops it.
	result = retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{
			ScopeFilter: memory.ScopeBaseline,
			Now:         testNow,
		})
	assert.Empty(t, result.Candidates)
}

func TestFilterEphemeral(t *testing.T) {
	expired := rec("r1", "ephemeral/r1.md", 10, []float64{1, 0})
	expired.Scope = memory.ScopeEphemeral
	past := testNow.Add(-time.Hour)
	expired.Expires = &past

	live := rec("r2", "ephemeral/r2.md", 10, []float64{1, 0})
	live.Scope = memory.ScopeEphemeral
	future := testNow.Add(time.Hour)
	live.Expires = &future

	snap := snapshotOf(expired, live)

	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{Now: testNow})
	assert.Equal(t, []string{"r2"}, candidateIDs(result.Candidates))

	// ExcludeEphemeral drops even the live one.
	result = retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{ExcludeEphemeral: true, Now: testNow})
	assert.Empty(t, result.Candidates)
}

func TestFilterScopeFilterExemptsBaseline(t *testing.T) {
	project := rec("r1", "a/r1.md", 10, []float64{1, 0})
	global := rec("r2", "a/r2.md", 10, []float64{1, 0})
	global.Scope = memory.ScopeGlobal
	base := baselineRec("b1", "baseline/identity.md", 10, 1.0, []float64{1, 0})
	snap := snapshotOf(project, global, base)

	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{ScopeFilter: memory.ScopeProject, Now: testNow})

	ids := candidateIDs(result.Candidates)
	assert.Contains(t, ids, "r1")
	assert.Contains(t, ids, "b1")
	assert.NotContains(t, ids, "r2")
}

func TestFilterDimensionMismatchSkipsLocally(t *testing.T) {
	good := rec("r1", "a/r1.md", 10, []float64{1, 0})
	bad := rec("r2", "a/r2.md", 10, []float64{1, 0, 0})
	snap := snapshotOf(good, bad)

	result := retrieval.NewCandidateFilter(50).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{Now: testNow})

	assert.Equal(t, []string{"r1"}, candidateIDs(result.Candidates))
	assert.Equal(t, []string{"a/r2.md"}, result.ExcludedPaths)
}

func TestFilterCapKeepsHighestSimilarity(t *testing.T) {
	records := []*memory.Record{
		rec("r1", "a/r1.md", 10, []float64{1, 0}),
		rec("r2", "a/r2.md", 10, []float64{0.8, 0.2}),
		rec("r3", "a/r3.md", 10, []float64{0.2, 0.8}),
		rec("r4", "a/r4.md", 10, []float64{0, 1}),
	}
	snap := snapshotOf(records...)

	result := retrieval.NewCandidateFilter(2).Pool([]float64{1, 0}, snap,
		allDirs(snap), retrieval.FilterOptions{Now: testNow})

	assert.Equal(t, []string{"r1", "r2"}, candidateIDs(result.Candidates))
	assert.ElementsMatch(t, []string{"a/r3.md", "a/r4.md"}, result.ExcludedPaths)
}

func candidateIDs(pool []*memory.RankedCandidate) []string {
	ids := make([]string, len(pool))
	for i, c := range pool {
		ids[i] = c.Record.ID
	}
	return ids
}
