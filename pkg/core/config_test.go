package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := core.DefaultConfig()

	assert.Equal(t, 2000, cfg.TotalBudget)
	assert.Equal(t, 800, cfg.BaselineBudget)
	assert.Equal(t, 3, cfg.Retrieval.TopKDirectories)
	assert.Equal(t, 50, cfg.Retrieval.MaxCandidates)
	assert.Equal(t, 0.9, cfg.Retrieval.DiversityThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.BaselineBudget = cfg.TotalBudget + 1
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidBudget)

	cfg = core.DefaultConfig()
	cfg.Retrieval.DiversityThreshold = 0
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = core.DefaultConfig()
	cfg.Retrieval.TopKDirectories = -1
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MEMOPACK_TOTAL_BUDGET", "3000")
	t.Setenv("MEMOPACK_BASELINE_BUDGET", "1200")
	t.Setenv("MEMOPACK_DIVERSITY_THRESHOLD", "0.85")
	t.Setenv("STORE_PROVIDER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/test-memopack.db")

	cfg, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.TotalBudget)
	assert.Equal(t, 1200, cfg.BaselineBudget)
	assert.Equal(t, 0.85, cfg.Retrieval.DiversityThreshold)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, "/tmp/test-memopack.db", cfg.Store.Config["db_path"])
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"total_budget": 1500,
		"baseline_budget": 500,
		"retrieval": {"top_k_directories": 5},
		"embedder": {"provider": "openai", "model": "text-embedding-3-small"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := core.LoadConfigFromJSON(path)
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.TotalBudget)
	assert.Equal(t, 500, cfg.BaselineBudget)
	assert.Equal(t, 5, cfg.Retrieval.TopKDirectories)
	// Unset tunables fall back to defaults.
	assert.Equal(t, 50, cfg.Retrieval.MaxCandidates)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
}

func TestLoadConfigFromJSONMissing(t *testing.T) {
	_, err := core.LoadConfigFromJSON("/nonexistent/config.json")
	assert.Error(t, err)
}
