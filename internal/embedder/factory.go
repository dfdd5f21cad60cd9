package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables consulted by NewFromEnv
const (
	EnvProvider  = "TESTRETRIEVER_EMBEDDING_PROVIDER"
	EnvBaseURL   = "TESTRETRIEVER_EMBEDDING_URL"
	EnvDimension = "TESTRETRIEVER_EMBEDDING_DIM"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	BaseURL   string
	Dimension int
	CacheSize int
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderHTTP:
		return NewHTTPProvider(cfg.BaseURL, cfg.Dimension, cache)
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrNoProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables, falling
// back to the local deterministic provider when nothing is configured
func NewFromEnv() (Embedder, error) {
	cfg := Config{
		Provider:  os.Getenv(EnvProvider),
		BaseURL:   os.Getenv(EnvBaseURL),
		CacheSize: 10000,
	}

	if dim := os.Getenv(EnvDimension); dim != "" {
		d, err := strconv.Atoi(dim)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s: %v", ErrNoProvider, EnvDimension, err)
		}
		cfg.Dimension = d
	}

	if cfg.Provider == "" && cfg.BaseURL != "" {
		cfg.Provider = ProviderHTTP
	}

	return New(cfg)
}
