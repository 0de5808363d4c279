// Package sqlite provides a SQLite-backed snapshot provider and usage sink.
//
// SQLite is a lightweight, file-based database suitable for local
// development and single-machine agents. Embeddings are stored as JSON
// strings in TEXT fields; similarity math happens in memory inside the
// retrieval pipeline, never in SQL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/mattn/go-sqlite3"

	"github.com/memopack/memopack-go/pkg/memory"
)

// Client implements store.SnapshotProvider and store.UsageSink over a
// SQLite database.
type Client struct {
	db   *sql.DB
	node *snowflake.Node
}

// Config contains configuration for creating a SQLite client.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// NodeID identifies this process for usage-event ID generation
	// (0-1023, default 1).
	NodeID int64
}

// NewClient creates a new SQLite client and initializes the schema.
//
// Parameters:
//   - cfg: Configuration containing the database path
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if connection or schema creation fails
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	nodeID := cfg.NodeID
	if nodeID == 0 {
		nodeID = 1
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{db: db, node: node}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database schema.
func (c *Client) initTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			directory TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			scope TEXT NOT NULL,
			priority REAL NOT NULL DEFAULT 0.5,
			confidence TEXT NOT NULL DEFAULT 'experimental',
			status TEXT NOT NULL DEFAULT 'active',
			tags TEXT NOT NULL DEFAULT '[]',
			created DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_used DATETIME,
			usage_count INTEGER NOT NULL DEFAULT 0,
			expires DATETIME,
			supersedes TEXT NOT NULL DEFAULT '[]',
			related TEXT NOT NULL DEFAULT '[]',
			embedding TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_directory ON records(directory)`,
		`CREATE INDEX IF NOT EXISTS idx_records_scope_status ON records(scope, status)`,
		`CREATE TABLE IF NOT EXISTS directories (
			path TEXT PRIMARY KEY,
			embedding TEXT NOT NULL,
			record_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS memory_usage (
			id INTEGER PRIMARY KEY,
			record_id TEXT NOT NULL,
			path TEXT NOT NULL,
			baseline INTEGER NOT NULL DEFAULT 0,
			used_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_usage_record ON memory_usage(record_id)`,
		`CREATE TABLE IF NOT EXISTS query_log (
			id INTEGER PRIMARY KEY,
			query TEXT NOT NULL,
			budget INTEGER NOT NULL,
			tokens_used INTEGER NOT NULL,
			baseline_files INTEGER NOT NULL,
			retrieved_files INTEGER NOT NULL,
			excluded_files INTEGER NOT NULL,
			query_time_ms REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('version', 0)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}

	return nil
}

// Snapshot loads all records and directory aggregates.
//
// The snapshot is fully materialized in memory, so later writes to the
// database never affect a query that already holds it.
func (c *Client) Snapshot(ctx context.Context) (*memory.Snapshot, error) {
	var version int64
	if err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	versionStr := strconv.FormatInt(version, 10)

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, path, directory, title, body, token_count, scope, priority,
		       confidence, status, tags, created, last_used, usage_count,
		       expires, supersedes, related, embedding
		FROM records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*memory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("Snapshot: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}

	dirRows, err := c.db.QueryContext(ctx, `
		SELECT path, embedding, record_count
		FROM directories
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	defer func() { _ = dirRows.Close() }()

	var dirs []*memory.DirectoryAggregate
	for dirRows.Next() {
		dir, err := scanDirectory(dirRows)
		if err != nil {
			return nil, fmt.Errorf("Snapshot: %w", err)
		}
		dirs = append(dirs, dir)
	}
	if err := dirRows.Err(); err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}

	return &memory.Snapshot{
		Version:     versionStr,
		TakenAt:     time.Now(),
		Records:     records,
		Directories: dirs,
	}, nil
}

// UpsertRecord inserts or replaces a record and bumps the snapshot version.
//
// The directory aggregate is not recomputed here; call UpsertDirectory
// after re-aggregating the affected directory.
func (c *Client) UpsertRecord(ctx context.Context, rec *memory.Record) error {
	tagsJSON, supersedesJSON, relatedJSON, embeddingJSON, err := encodeRecordFields(rec)
	if err != nil {
		return fmt.Errorf("UpsertRecord: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertRecord: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records
			(id, path, directory, title, body, token_count, scope, priority,
			 confidence, status, tags, created, last_used, usage_count,
			 expires, supersedes, related, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			directory = excluded.directory,
			title = excluded.title,
			body = excluded.body,
			token_count = excluded.token_count,
			scope = excluded.scope,
			priority = excluded.priority,
			confidence = excluded.confidence,
			status = excluded.status,
			tags = excluded.tags,
			expires = excluded.expires,
			supersedes = excluded.supersedes,
			related = excluded.related,
			embedding = excluded.embedding
	`,
		rec.ID, rec.Path, rec.Directory, rec.Title, rec.Body, rec.TokenCount,
		string(rec.Scope), rec.Priority, string(rec.Confidence), string(rec.Status),
		tagsJSON, rec.Created, rec.LastUsed, rec.UsageCount,
		rec.Expires, supersedesJSON, relatedJSON, embeddingJSON,
	)
	if err != nil {
		return fmt.Errorf("UpsertRecord: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = value + 1 WHERE key = 'version'`); err != nil {
		return fmt.Errorf("UpsertRecord: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertRecord: %w", err)
	}
	return nil
}

// UpsertDirectory inserts or replaces a directory aggregate and bumps the
// snapshot version.
func (c *Client) UpsertDirectory(ctx context.Context, dir *memory.DirectoryAggregate) error {
	embeddingJSON, err := encodeEmbedding(dir.Embedding)
	if err != nil {
		return fmt.Errorf("UpsertDirectory: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertDirectory: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO directories (path, embedding, record_count)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			embedding = excluded.embedding,
			record_count = excluded.record_count
	`, dir.Path, embeddingJSON, dir.RecordCount)
	if err != nil {
		return fmt.Errorf("UpsertDirectory: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = value + 1 WHERE key = 'version'`); err != nil {
		return fmt.Errorf("UpsertDirectory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertDirectory: %w", err)
	}
	return nil
}

// DeleteRecord removes a record by ID and bumps the snapshot version.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = value + 1 WHERE key = 'version'`); err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}
	return nil
}

// RecordUsage applies usage events: each event increments the record's
// usage count, stamps its last-used time, and appends an audit row.
//
// Usage updates deliberately do not bump the snapshot version; they tune
// future tie-breaks without invalidating cached snapshots.
func (c *Client) RecordUsage(ctx context.Context, events []memory.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("RecordUsage: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, event := range events {
		_, err := tx.ExecContext(ctx, `
			UPDATE records SET usage_count = usage_count + 1, last_used = ?
			WHERE id = ?
		`, event.Timestamp, event.RecordID)
		if err != nil {
			return fmt.Errorf("RecordUsage: %w", err)
		}

		baseline := 0
		if event.Baseline {
			baseline = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO memory_usage (id, record_id, path, baseline, used_at)
			VALUES (?, ?, ?, ?, ?)
		`, c.node.Generate().Int64(), event.RecordID, event.Path, baseline, event.Timestamp)
		if err != nil {
			return fmt.Errorf("RecordUsage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("RecordUsage: %w", err)
	}
	return nil
}

// LogQuery appends a pack's summary to the query log.
func (c *Client) LogQuery(ctx context.Context, pack *memory.Pack) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO query_log
			(id, query, budget, tokens_used, baseline_files, retrieved_files,
			 excluded_files, query_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.node.Generate().Int64(), pack.Query, pack.Budget, pack.TotalTokensUsed,
		pack.Stats.BaselineFiles, pack.Stats.RetrievedFiles,
		pack.Stats.ExcludedFiles, pack.Stats.QueryTimeMs,
	)
	if err != nil {
		return fmt.Errorf("LogQuery: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}
