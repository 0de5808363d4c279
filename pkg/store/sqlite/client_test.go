package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/store/sqlite"
)

func newTestClient(t *testing.T) *sqlite.Client {
	t.Helper()

	client, err := sqlite.NewClient(&sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "memopack_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testRecord(id, path string) *memory.Record {
	return &memory.Record{
		ID:         id,
		Path:       path,
		Directory:  memory.DirectoryOf(path),
		Title:      "Test Record",
		Body:       "body of " + id,
		TokenCount: 42,
		Scope:      memory.ScopeProject,
		Priority:   0.7,
		Confidence: memory.ConfidenceActive,
		Status:     memory.StatusActive,
		Tags:       []string{"go", "testing"},
		Created:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Supersedes: []string{"old-" + id},
		Related:    []string{},
		Embedding:  []float64{0.1, 0.2, 0.3},
	}
}

func TestSnapshotEmptyDatabase(t *testing.T) {
	client := newTestClient(t)

	snap, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", snap.Version)
	assert.True(t, snap.IsEmpty())
}

func TestUpsertRecordRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	rec := testRecord("r1", "conventions/style.md")
	require.NoError(t, client.UpsertRecord(ctx, rec))

	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)

	got := snap.Records[0]
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "conventions/style.md", got.Path)
	assert.Equal(t, "conventions", got.Directory)
	assert.Equal(t, "Test Record", got.Title)
	assert.Equal(t, 42, got.TokenCount)
	assert.Equal(t, memory.ScopeProject, got.Scope)
	assert.InDelta(t, 0.7, got.Priority, 1e-9)
	assert.Equal(t, memory.ConfidenceActive, got.Confidence)
	assert.Equal(t, []string{"go", "testing"}, got.Tags)
	assert.Equal(t, []string{"old-r1"}, got.Supersedes)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got.Embedding)
	assert.Nil(t, got.LastUsed)
	assert.Nil(t, got.Expires)
}

func TestUpsertRecordUpdatesExisting(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	rec := testRecord("r1", "conventions/style.md")
	require.NoError(t, client.UpsertRecord(ctx, rec))

	rec.Body = "updated body"
	rec.TokenCount = 99
	require.NoError(t, client.UpsertRecord(ctx, rec))

	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "updated body", snap.Records[0].Body)
	assert.Equal(t, 99, snap.Records[0].TokenCount)
}

func TestWritesBumpSnapshotVersion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertRecord(ctx, testRecord("r1", "a/one.md")))
	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", snap.Version)

	require.NoError(t, client.UpsertDirectory(ctx, &memory.DirectoryAggregate{
		Path:        "a",
		Embedding:   []float64{0.1, 0.2, 0.3},
		RecordCount: 1,
	}))
	snap, err = client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", snap.Version)

	require.NoError(t, client.DeleteRecord(ctx, "r1"))
	snap, err = client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", snap.Version)
	assert.Empty(t, snap.Records)
}

func TestRecordUsage(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertRecord(ctx, testRecord("r1", "a/one.md")))

	usedAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []memory.UsageEvent{
		{RecordID: "r1", Path: "a/one.md", Baseline: false, Timestamp: usedAt},
		{RecordID: "r1", Path: "a/one.md", Baseline: false, Timestamp: usedAt.Add(time.Minute)},
	}
	require.NoError(t, client.RecordUsage(ctx, events))

	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, 2, snap.Records[0].UsageCount)
	require.NotNil(t, snap.Records[0].LastUsed)

	// Usage writes must not invalidate cached snapshots.
	assert.Equal(t, "1", snap.Version)
}

func TestRecordUsageEmptyEvents(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.RecordUsage(context.Background(), nil))
}

func TestLogQuery(t *testing.T) {
	client := newTestClient(t)

	pack := &memory.Pack{
		Query:           "how do we handle errors",
		Budget:          2000,
		TotalTokensUsed: 850,
		Stats: memory.Stats{
			BaselineFiles:  2,
			RetrievedFiles: 3,
			ExcludedFiles:  1,
			QueryTimeMs:    4.25,
		},
	}
	assert.NoError(t, client.LogQuery(context.Background(), pack))
}

func TestDirectoryRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	dirs := []*memory.DirectoryAggregate{
		{Path: "baseline", Embedding: []float64{1, 0}, RecordCount: 2},
		{Path: "conventions", Embedding: []float64{0, 1}, RecordCount: 5},
	}
	for _, dir := range dirs {
		require.NoError(t, client.UpsertDirectory(ctx, dir))
	}

	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Directories, 2)
	assert.Equal(t, "baseline", snap.Directories[0].Path)
	assert.Equal(t, "conventions", snap.Directories[1].Path)
	assert.Equal(t, 5, snap.Directories[1].RecordCount)
}
