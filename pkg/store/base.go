// Package store defines the capability interfaces between the retrieval
// engine and its persistence collaborators: snapshot acquisition and
// usage write-back.
//
// The engine is purely a reader. Snapshot visibility and the single-writer
// path for record content belong to the indexer that implements these
// interfaces, so the engine needs no locking of its own.
package store

import (
	"context"
	"sync/atomic"

	"github.com/memopack/memopack-go/pkg/memory"
)

// SnapshotProvider hands the engine an immutable snapshot of records and
// directory aggregates for the duration of one query.
type SnapshotProvider interface {
	// Snapshot returns the current snapshot. Implementations must return
	// a view that no concurrent re-index can mutate mid-query.
	Snapshot(ctx context.Context) (*memory.Snapshot, error)
}

// UsageSink applies usage-count and last-used updates after a pack is
// returned. Calls are fire-and-forget from the engine's perspective:
// best-effort, at-most-once, and never awaited by the query path.
type UsageSink interface {
	// RecordUsage applies the given usage events.
	RecordUsage(ctx context.Context, events []memory.UsageEvent) error
}

// StaticProvider is an in-memory SnapshotProvider serving a versioned
// snapshot reference. It backs tests, examples, and callers that
// materialize snapshots themselves; an indexer can publish a fresh
// snapshot with Swap while queries keep the reference they already hold.
type StaticProvider struct {
	snapshot atomic.Pointer[memory.Snapshot]
}

// NewStaticProvider creates a provider serving the given snapshot.
func NewStaticProvider(snap *memory.Snapshot) *StaticProvider {
	p := &StaticProvider{}
	p.snapshot.Store(snap)
	return p
}

// Snapshot returns the currently published snapshot.
func (p *StaticProvider) Snapshot(ctx context.Context) (*memory.Snapshot, error) {
	return p.snapshot.Load(), nil
}

// Swap publishes a new snapshot and returns the previous one. The new
// snapshot is visible to the next Snapshot call; in-flight queries are
// unaffected.
func (p *StaticProvider) Swap(snap *memory.Snapshot) *memory.Snapshot {
	return p.snapshot.Swap(snap)
}

// DiscardSink is a UsageSink that drops every event. Useful when usage
// tracking is disabled.
type DiscardSink struct{}

// RecordUsage drops the events.
func (DiscardSink) RecordUsage(ctx context.Context, events []memory.UsageEvent) error {
	return nil
}
