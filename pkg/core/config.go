package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/memopack/memopack-go/pkg/retrieval"
)

// Config contains the complete configuration for a retrieval engine.
//
// It includes:
//   - Retrieval pipeline tuning (routing, candidate cap, diversity, scoring)
//   - Default token budgets
//   - Embedding provider settings (for callers that let the engine embed)
//   - Snapshot source settings (for the SQLite/PostgreSQL providers)
//
// Example:
//
//	cfg := &core.Config{
//	    Retrieval: retrieval.DefaultConfig(),
//	    TotalBudget: 2000,
//	    BaselineBudget: 800,
//	}
type Config struct {
	// Retrieval holds the pipeline tuning parameters.
	Retrieval retrieval.Config `json:"retrieval"`

	// TotalBudget is the default total token budget per query.
	TotalBudget int `json:"total_budget"`

	// BaselineBudget is the default baseline sub-budget per query.
	BaselineBudget int `json:"baseline_budget"`

	// Embedder contains embedding provider configuration (optional; the
	// engine also accepts caller-supplied query embeddings).
	Embedder EmbedderConfig `json:"embedder"`

	// Store contains snapshot source configuration (optional; used by the
	// database-backed providers, not by the engine itself).
	Store StoreConfig `json:"store"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai.
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g., "text-embedding-3-small").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding vector dimension (e.g., 1536, 384).
	Dimensions int `json:"dimensions,omitempty"`
}

// StoreConfig contains configuration for a snapshot source.
//
// Supported providers: sqlite, postgres.
type StoreConfig struct {
	// Provider is the snapshot source name (sqlite, postgres).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	Config map[string]interface{} `json:"config,omitempty"`
}

// DefaultConfig returns a Config with all defaults applied and no
// embedder or store configured.
func DefaultConfig() *Config {
	return &Config{
		Retrieval:      retrieval.DefaultConfig(),
		TotalBudget:    DefaultTotalBudget,
		BaselineBudget: DefaultBaselineBudget,
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function searches for a .env file (up to 5 directory levels up),
// loads it if found, then reads:
//
//   - MEMOPACK_TOTAL_BUDGET, MEMOPACK_BASELINE_BUDGET
//   - MEMOPACK_TOP_K_DIRECTORIES, MEMOPACK_MAX_CANDIDATES,
//     MEMOPACK_DIVERSITY_THRESHOLD
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMENSIONS
//   - STORE_PROVIDER (sqlite, postgres)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//
// Unset variables keep their defaults.
func LoadConfigFromEnv() (*Config, error) {
	if envPath, found := FindEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	cfg.TotalBudget = getEnvInt("MEMOPACK_TOTAL_BUDGET", cfg.TotalBudget)
	cfg.BaselineBudget = getEnvInt("MEMOPACK_BASELINE_BUDGET", cfg.BaselineBudget)
	cfg.Retrieval.TopKDirectories = getEnvInt("MEMOPACK_TOP_K_DIRECTORIES", cfg.Retrieval.TopKDirectories)
	cfg.Retrieval.MaxCandidates = getEnvInt("MEMOPACK_MAX_CANDIDATES", cfg.Retrieval.MaxCandidates)
	cfg.Retrieval.DiversityThreshold = getEnvFloat("MEMOPACK_DIVERSITY_THRESHOLD", cfg.Retrieval.DiversityThreshold)

	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		cfg.Embedder = EmbedderConfig{
			Provider:   provider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
		}
	}

	switch getEnvOrDefault("STORE_PROVIDER", "") {
	case "sqlite":
		cfg.Store = StoreConfig{
			Provider: "sqlite",
			Config: map[string]interface{}{
				"db_path": getEnvOrDefault("SQLITE_PATH", "./memopack.db"),
			},
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		cfg.Store = StoreConfig{
			Provider: "postgres",
			Config: map[string]interface{}{
				"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				"port":     port,
				"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
				"password": os.Getenv("POSTGRES_PASSWORD"),
				"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "memopack"),
				"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
			},
		}
	}

	return cfg, nil
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewPackError("LoadConfigFromJSON", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, NewPackError("LoadConfigFromJSON", err)
	}
	cfg.Retrieval.ApplyDefaults()
	if cfg.TotalBudget == 0 {
		cfg.TotalBudget = DefaultTotalBudget
	}
	if cfg.BaselineBudget == 0 {
		cfg.BaselineBudget = DefaultBaselineBudget
	}

	return &cfg, nil
}

// Validate validates the configuration.
//
// Budgets must be non-negative with the baseline budget at or below the
// total; the diversity threshold must lie in (0,1].
func (c *Config) Validate() error {
	if c.TotalBudget < 0 || c.BaselineBudget < 0 || c.BaselineBudget > c.TotalBudget {
		return NewPackError("Validate", ErrInvalidBudget)
	}
	if c.Retrieval.DiversityThreshold <= 0 || c.Retrieval.DiversityThreshold > 1 {
		return NewPackError("Validate", ErrInvalidConfig)
	}
	if c.Retrieval.TopKDirectories <= 0 || c.Retrieval.MaxCandidates <= 0 {
		return NewPackError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files, checking the
// current directory and then up to 5 levels of parent directories.
//
// Returns the path of the first file found and whether one was found.
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
