// Package memopack provides the high-level client that wires a configured
// store, embedding provider, and retrieval engine together.
//
// The client is the one-stop entry point for applications: it builds the
// snapshot provider from configuration, constructs the engine, mirrors
// usage events into the store, and appends each pack to the query log.
// Callers needing finer control compose pkg/core, pkg/store, and
// pkg/embedder directly.
//
// Example:
//
//	cfg, _ := core.LoadConfigFromEnv()
//	client, err := memopack.NewClient(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	pack, _ := client.Query(ctx, "how do we handle auth?")
//	fmt.Println(pack.RenderMarkdown(false))
package memopack

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/memopack/memopack-go/pkg/core"
	"github.com/memopack/memopack-go/pkg/embedder"
	openaiEmb "github.com/memopack/memopack-go/pkg/embedder/openai"
	staticEmb "github.com/memopack/memopack-go/pkg/embedder/static"
	"github.com/memopack/memopack-go/pkg/indexer"
	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/store"
	"github.com/memopack/memopack-go/pkg/store/postgres"
	"github.com/memopack/memopack-go/pkg/store/sqlite"
	"github.com/memopack/memopack-go/pkg/tokencount"
)

// storeClient is the full surface both database clients share.
type storeClient interface {
	store.SnapshotProvider
	store.UsageSink
	indexer.Writer
	LogQuery(ctx context.Context, pack *memory.Pack) error
	Close() error
}

// Client bundles an engine with its configured store and embedder.
type Client struct {
	engine  *core.Engine
	backend storeClient
	embed   embedder.Provider
	indexer *indexer.Indexer
	logger  *zap.Logger
}

// NewClient creates a client from configuration.
//
// The store provider (sqlite, postgres) and embedding provider (openai,
// static) are constructed from cfg; an unset store or embedder section is
// an error here, unlike in core.NewEngine, because the client exists to
// wire both ends.
func NewClient(cfg *core.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, core.NewPackError("NewClient", core.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts)

	backend, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	embed, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := core.NewEngine(cfg, backend,
		core.WithEmbedder(embed),
		core.WithUsageSink(backend),
		core.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	counter := tokencount.WithFallback(
		tokencount.NewTiktokenCounter(""), tokencount.Estimator{})

	return &Client{
		engine:  engine,
		backend: backend,
		embed:   embed,
		indexer: indexer.New(embed, counter, options.logger),
		logger:  options.logger,
	}, nil
}

// Query embeds the query text, assembles a pack, and appends it to the
// store's query log.
func (c *Client) Query(ctx context.Context, text string, opts ...core.QueryOption) (*memory.Pack, error) {
	pack, err := c.engine.Query(ctx, text, opts...)
	if err != nil {
		return nil, err
	}

	if err := c.backend.LogQuery(ctx, pack); err != nil {
		c.logger.Warn("query log append failed", zap.Error(err))
	}

	return pack, nil
}

// Index writes the given sources into the store, recomputing the affected
// directory aggregates. The next Query sees the updated snapshot.
func (c *Client) Index(ctx context.Context, sources []indexer.Source) error {
	return c.indexer.Sync(ctx, c.backend, sources)
}

// Engine exposes the underlying engine, for callers holding their own
// query embeddings.
func (c *Client) Engine() *core.Engine {
	return c.engine
}

// Close closes the embedding provider and the store connection.
func (c *Client) Close() error {
	if err := c.embed.Close(); err != nil {
		return err
	}
	return c.backend.Close()
}

// buildStore constructs the store client named by the configuration.
func buildStore(cfg *core.Config) (storeClient, error) {
	switch cfg.Store.Provider {
	case "sqlite":
		return sqlite.NewClient(&sqlite.Config{
			DBPath: stringValue(cfg.Store.Config, "db_path", "./memopack.db"),
		})
	case "postgres":
		return postgres.NewClient(&postgres.Config{
			Host:     stringValue(cfg.Store.Config, "host", "localhost"),
			Port:     intValue(cfg.Store.Config, "port", 5432),
			User:     stringValue(cfg.Store.Config, "user", "postgres"),
			Password: stringValue(cfg.Store.Config, "password", ""),
			DBName:   stringValue(cfg.Store.Config, "db_name", "memopack"),
			SSLMode:  stringValue(cfg.Store.Config, "ssl_mode", "disable"),
		})
	case "":
		return nil, core.NewPackError("NewClient", fmt.Errorf("store provider not configured: %w", core.ErrInvalidConfig))
	default:
		return nil, core.NewPackError("NewClient", fmt.Errorf("unsupported store provider %q: %w", cfg.Store.Provider, core.ErrInvalidConfig))
	}
}

// buildEmbedder constructs the embedding provider named by the
// configuration.
func buildEmbedder(cfg *core.Config) (embedder.Provider, error) {
	switch cfg.Embedder.Provider {
	case "openai":
		return openaiEmb.NewClient(&openaiEmb.Config{
			APIKey:     cfg.Embedder.APIKey,
			Model:      cfg.Embedder.Model,
			BaseURL:    cfg.Embedder.BaseURL,
			Dimensions: cfg.Embedder.Dimensions,
		})
	case "static":
		return staticEmb.NewProvider(cfg.Embedder.Dimensions), nil
	case "":
		return nil, core.NewPackError("NewClient", core.ErrNoEmbedder)
	default:
		return nil, core.NewPackError("NewClient", fmt.Errorf("unsupported embedding provider %q: %w", cfg.Embedder.Provider, core.ErrInvalidConfig))
	}
}

func stringValue(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intValue(m map[string]interface{}, key string, fallback int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}
