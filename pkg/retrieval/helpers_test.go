package retrieval_test

import (
	"time"

	"github.com/memopack/memopack-go/pkg/memory"
)

// rec builds a minimal active record for pipeline tests.
func rec(id, path string, tokens int, embedding []float64) *memory.Record {
	return &memory.Record{
		ID:         id,
		Path:       path,
		Directory:  memory.DirectoryOf(path),
		Title:      id,
		Body:       "body of " + id,
		TokenCount: tokens,
		Scope:      memory.ScopeProject,
		Priority:   0.5,
		Confidence: memory.ConfidenceActive,
		Status:     memory.StatusActive,
		Created:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Embedding:  embedding,
	}
}

// baselineRec builds an active baseline record.
func baselineRec(id, path string, tokens int, priority float64, embedding []float64) *memory.Record {
	r := rec(id, path, tokens, embedding)
	r.Scope = memory.ScopeBaseline
	r.Priority = priority
	return r
}

// snapshotOf wraps records in a snapshot with one aggregate per directory,
// using the first record's embedding as the directory embedding.
func snapshotOf(records ...*memory.Record) *memory.Snapshot {
	seen := make(map[string]*memory.DirectoryAggregate)
	var dirs []*memory.DirectoryAggregate
	for _, r := range records {
		if agg, ok := seen[r.Directory]; ok {
			agg.RecordCount++
			continue
		}
		agg := &memory.DirectoryAggregate{
			Path:        r.Directory,
			Embedding:   r.Embedding,
			RecordCount: 1,
		}
		seen[r.Directory] = agg
		dirs = append(dirs, agg)
	}
	return &memory.Snapshot{
		Version:     "test",
		TakenAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Records:     records,
		Directories: dirs,
	}
}

// allDirs returns a routed set covering every directory in the snapshot.
func allDirs(snap *memory.Snapshot) map[string]bool {
	set := make(map[string]bool)
	for _, d := range snap.Directories {
		set[d.Path] = true
	}
	return set
}
