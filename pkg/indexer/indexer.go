// Package indexer builds memory records and directory aggregates from raw
// markdown sources.
//
// The indexer is the single writer of record content: it counts tokens,
// generates embeddings, and recomputes directory centroids, then publishes
// the result either as an in-memory snapshot or through a writable store.
// The retrieval engine itself never mutates records.
package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/memopack/memopack-go/pkg/embedder"
	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/tokencount"
)

// Writer is the store-side surface the indexer publishes through.
// Both the SQLite and PostgreSQL clients implement it.
type Writer interface {
	UpsertRecord(ctx context.Context, rec *memory.Record) error
	UpsertDirectory(ctx context.Context, dir *memory.DirectoryAggregate) error
}

// Source is one markdown file to index.
type Source struct {
	// Path is the store-relative path (e.g. "project/auth/login_flow.md").
	Path string

	// Title is the human-readable title.
	Title string

	// Body is the markdown content.
	Body string

	// Scope classifies the record; empty defaults by top-level directory
	// ("baseline/..." becomes scope baseline, everything else project).
	Scope memory.Scope

	// Priority is the curated priority in [0,1]; zero means 0.5.
	Priority float64

	// Confidence is the trust level; empty means experimental.
	Confidence memory.Confidence

	// Tags are free-form labels.
	Tags []string

	// Expires sets an expiry for ephemeral records.
	Expires *time.Time
}

// Indexer converts sources into records with embeddings and token counts.
type Indexer struct {
	embed   embedder.Provider
	counter tokencount.Counter
	logger  *zap.Logger
}

// New creates an indexer.
//
// Parameters:
//   - embed: embedding provider for record bodies (required)
//   - counter: token counter; nil falls back to the estimator
//   - logger: logger for indexing progress; nil means no-op
func New(embed embedder.Provider, counter tokencount.Counter, logger *zap.Logger) *Indexer {
	if counter == nil {
		counter = tokencount.Estimator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{embed: embed, counter: counter, logger: logger}
}

// BuildRecord converts one source into a record.
//
// The record ID is the source path: paths are unique in the store and
// stable across re-indexing, so usage counters survive content updates.
func (ix *Indexer) BuildRecord(ctx context.Context, src Source) (*memory.Record, error) {
	tokens, err := ix.counter.Count(src.Body)
	if err != nil {
		return nil, fmt.Errorf("BuildRecord: count tokens for %s: %w", src.Path, err)
	}

	embedding, err := ix.embed.Embed(ctx, src.Body)
	if err != nil {
		return nil, fmt.Errorf("BuildRecord: embed %s: %w", src.Path, err)
	}

	scope := src.Scope
	if scope == "" {
		if memory.DirectoryOf(src.Path) == "baseline" {
			scope = memory.ScopeBaseline
		} else {
			scope = memory.ScopeProject
		}
	}
	priority := src.Priority
	if priority == 0 {
		priority = 0.5
	}
	confidence := src.Confidence
	if confidence == "" {
		confidence = memory.ConfidenceExperimental
	}

	return &memory.Record{
		ID:         src.Path,
		Path:       src.Path,
		Directory:  memory.DirectoryOf(src.Path),
		Title:      src.Title,
		Body:       src.Body,
		TokenCount: tokens,
		Scope:      scope,
		Priority:   priority,
		Confidence: confidence,
		Status:     memory.StatusActive,
		Tags:       src.Tags,
		Created:    time.Now(),
		Expires:    src.Expires,
		Embedding:  embedding,
	}, nil
}

// Aggregate computes directory centroids from records.
//
// Each aggregate embedding is the arithmetic mean of the directory's
// record embeddings. Records whose dimension disagrees with the
// directory's first record are left out of the centroid.
func Aggregate(records []*memory.Record) []*memory.DirectoryAggregate {
	type acc struct {
		sum   []float64
		n     int
		count int
	}
	byDir := make(map[string]*acc)

	for _, rec := range records {
		a := byDir[rec.Directory]
		if a == nil {
			a = &acc{}
			byDir[rec.Directory] = a
		}
		a.count++

		if len(rec.Embedding) == 0 {
			continue
		}
		if a.sum == nil {
			a.sum = make([]float64, len(rec.Embedding))
		}
		if len(rec.Embedding) != len(a.sum) {
			continue
		}
		for i, v := range rec.Embedding {
			a.sum[i] += v
		}
		a.n++
	}

	dirs := make([]*memory.DirectoryAggregate, 0, len(byDir))
	for path, a := range byDir {
		centroid := a.sum
		if a.n > 1 {
			centroid = make([]float64, len(a.sum))
			for i, v := range a.sum {
				centroid[i] = v / float64(a.n)
			}
		}
		dirs = append(dirs, &memory.DirectoryAggregate{
			Path:        path,
			Embedding:   centroid,
			RecordCount: a.count,
		})
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	return dirs
}

// BuildSnapshot indexes all sources and materializes a snapshot, for
// callers that serve from memory rather than a database.
func (ix *Indexer) BuildSnapshot(ctx context.Context, sources []Source) (*memory.Snapshot, error) {
	records := make([]*memory.Record, 0, len(sources))
	for _, src := range sources {
		rec, err := ix.BuildRecord(ctx, src)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	ix.logger.Info("snapshot built",
		zap.Int("records", len(records)),
		zap.Int("directories", len(Aggregate(records))))

	return &memory.Snapshot{
		Version:     fmt.Sprintf("mem-%d", time.Now().UnixNano()),
		TakenAt:     time.Now(),
		Records:     records,
		Directories: Aggregate(records),
	}, nil
}

// Sync indexes all sources and writes records plus recomputed directory
// aggregates through the store writer.
func (ix *Indexer) Sync(ctx context.Context, w Writer, sources []Source) error {
	records := make([]*memory.Record, 0, len(sources))
	for _, src := range sources {
		rec, err := ix.BuildRecord(ctx, src)
		if err != nil {
			return err
		}
		if err := w.UpsertRecord(ctx, rec); err != nil {
			return err
		}
		records = append(records, rec)
	}

	dirs := Aggregate(records)
	for _, dir := range dirs {
		if err := w.UpsertDirectory(ctx, dir); err != nil {
			return err
		}
	}

	ix.logger.Info("store synced",
		zap.Int("records", len(records)),
		zap.Int("directories", len(dirs)))
	return nil
}
