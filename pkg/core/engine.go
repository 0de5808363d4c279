package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/memopack/memopack-go/pkg/embedder"
	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/retrieval"
	"github.com/memopack/memopack-go/pkg/store"
)

// Engine turns a query and the current record snapshot into a
// budget-constrained memory pack.
//
// The engine is a pure reader over immutable snapshots: a query sees
// exactly one snapshot for its whole duration, and concurrent queries
// need no coordination. Usage write-back happens off the query path.
//
// Example:
//
//	provider := store.NewStaticProvider(snap)
//	engine, err := core.NewEngine(core.DefaultConfig(), provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pack, err := engine.QueryWithEmbedding(ctx, "auth flow", queryVec)
type Engine struct {
	cfg      *Config
	provider store.SnapshotProvider
	sink     store.UsageSink
	embed    embedder.Provider
	logger   *zap.Logger

	router    *retrieval.DirectoryRouter
	filter    *retrieval.CandidateFilter
	scorer    *retrieval.Scorer
	baseline  *retrieval.BaselineManager
	diversity *retrieval.DiversityFilter
	packer    *retrieval.BudgetPacker
	assembler *retrieval.PackAssembler
}

// EngineOption is a function type for configuring an Engine.
type EngineOption func(*Engine)

// WithUsageSink sets the sink receiving usage events after each query.
// Without it, usage events are discarded.
func WithUsageSink(sink store.UsageSink) EngineOption {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithEmbedder sets the embedding provider used by Query. Without it,
// only QueryWithEmbedding is available.
func WithEmbedder(provider embedder.Provider) EngineOption {
	return func(e *Engine) {
		e.embed = provider
	}
}

// WithLogger sets the logger for off-path events such as usage write-back
// failures. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine over the given snapshot provider.
//
// Parameters:
//   - cfg: engine configuration; nil means DefaultConfig()
//   - provider: snapshot source (required)
//   - opts: optional engine options (usage sink, embedder, logger)
//
// Returns:
//   - *Engine: the engine instance
//   - error: non-nil if the configuration is invalid or provider is nil
func NewEngine(cfg *Config, provider store.SnapshotProvider, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, NewPackError("NewEngine", ErrSnapshotUnavailable)
	}

	e := &Engine{
		cfg:      cfg,
		provider: provider,
		sink:     store.DiscardSink{},
		logger:   zap.NewNop(),

		router:    retrieval.NewDirectoryRouter(cfg.Retrieval.TopKDirectories),
		filter:    retrieval.NewCandidateFilter(cfg.Retrieval.MaxCandidates),
		scorer:    retrieval.NewScorer(cfg.Retrieval.Scoring),
		baseline:  retrieval.NewBaselineManager(cfg.Retrieval.BaselinePriorityFiles),
		diversity: retrieval.NewDiversityFilter(cfg.Retrieval.DiversityThreshold),
		packer:    retrieval.NewBudgetPacker(),
		assembler: retrieval.NewPackAssembler(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Query embeds the query text with the configured embedding provider and
// assembles a pack. It requires WithEmbedder; use QueryWithEmbedding when
// the caller already holds the query vector.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - text: the query text
//   - opts: per-query options (budgets, scope filter, clock)
//
// Returns the assembled pack and any error.
func (e *Engine) Query(ctx context.Context, text string, opts ...QueryOption) (*memory.Pack, error) {
	if e.embed == nil {
		return nil, NewPackError("Query", ErrNoEmbedder)
	}

	start := time.Now()
	queryEmbedding, err := e.embed.Embed(ctx, text)
	if err != nil {
		e.logger.Warn("query embedding failed", zap.Error(err))
		return nil, &PackError{Op: "Query", Err: ErrEmbeddingFailed}
	}
	embeddingMs := elapsedMs(start)

	pack, err := e.QueryWithEmbedding(ctx, text, queryEmbedding, opts...)
	if err != nil {
		return nil, err
	}

	pack.Stats.EmbeddingTimeMs = embeddingMs
	pack.Stats.QueryTimeMs = elapsedMs(start)
	return pack, nil
}

// QueryWithEmbedding assembles a pack for a query whose embedding the
// caller already holds.
//
// The pipeline runs in fixed stage order: directory routing, candidate
// filtering, composite scoring, baseline assembly, diversity filtering,
// budget packing, final assembly. Identical snapshot, embedding, and
// options always produce an identical pack.
//
// A zero total budget is valid and yields an empty pack. An empty
// snapshot yields an empty pack, not an error.
func (e *Engine) QueryWithEmbedding(ctx context.Context, text string, queryEmbedding []float64, opts ...QueryOption) (*memory.Pack, error) {
	start := time.Now()

	options := applyQueryOptions(opts)
	if err := options.validate(); err != nil {
		return nil, NewPackError("Query", err)
	}

	now := options.Now
	if now.IsZero() {
		now = time.Now()
	}

	snap, err := e.provider.Snapshot(ctx)
	if err != nil {
		return nil, &PackError{Op: "Query", Err: ErrSnapshotUnavailable}
	}
	if snap == nil || snap.IsEmpty() {
		return e.assembler.Assemble(retrieval.AssembleInput{
			Query:       text,
			Budget:      options.TotalBudget,
			GeneratedAt: now,
		}), nil
	}

	routed := e.router.Route(queryEmbedding, snap)
	dirs := make([]string, len(routed))
	for i, m := range routed {
		dirs[i] = m.Path
	}

	pool := e.filter.Pool(queryEmbedding, snap, retrieval.RoutedSet(routed), retrieval.FilterOptions{
		ScopeFilter:       options.ScopeFilter,
		ExcludeEphemeral:  options.ExcludeEphemeral,
		IncludeDeprecated: options.IncludeDeprecated,
		Now:               now,
	})
	ranked := e.scorer.Rank(pool.Candidates)
	retrievalMs := elapsedMs(start)

	assemblyStart := time.Now()
	baseline := e.baseline.Build(snap, options.BaselineBudget)
	kept := e.diversity.Apply(ranked, baseline.PlacedIDs)
	packed := e.packer.Pack(kept.Kept, options.TotalBudget-baseline.TokensUsed)

	excluded := append(append([]string(nil), pool.ExcludedPaths...), kept.ExcludedPaths...)
	pack := e.assembler.Assemble(retrieval.AssembleInput{
		Query:                text,
		Budget:               options.TotalBudget,
		Baseline:             baseline,
		Retrieved:            packed,
		DirectoriesSearched:  dirs,
		CandidatesConsidered: len(ranked),
		ExcludedPaths:        excluded,
		GeneratedAt:          now,
	})
	pack.Stats.RetrievalTimeMs = retrievalMs
	pack.Stats.AssemblyTimeMs = elapsedMs(assemblyStart)
	pack.Stats.QueryTimeMs = elapsedMs(start)

	e.emitUsage(pack, now)

	return pack, nil
}

// emitUsage sends usage events for every included entry to the sink,
// without blocking the query path. Failures are logged and dropped; usage
// counting is best-effort by design of the read path.
func (e *Engine) emitUsage(pack *memory.Pack, now time.Time) {
	if _, discard := e.sink.(store.DiscardSink); discard {
		return
	}

	events := make([]memory.UsageEvent, 0, len(pack.BaselineEntries)+len(pack.RetrievedEntries))
	for _, entry := range pack.BaselineEntries {
		events = append(events, memory.UsageEvent{
			RecordID:  entry.RecordID,
			Path:      entry.Path,
			Baseline:  true,
			Timestamp: now,
		})
	}
	for _, entry := range pack.RetrievedEntries {
		events = append(events, memory.UsageEvent{
			RecordID:  entry.RecordID,
			Path:      entry.Path,
			Timestamp: now,
		})
	}
	if len(events) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.sink.RecordUsage(ctx, events); err != nil {
			e.logger.Warn("usage write-back failed",
				zap.Int("events", len(events)),
				zap.Error(err))
		}
	}()
}

// elapsedMs is the wall time since start in fractional milliseconds.
func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}

// Close releases the engine's resources, closing the embedding provider
// when one is configured.
func (e *Engine) Close() error {
	if e.embed != nil {
		return e.embed.Close()
	}
	return nil
}
