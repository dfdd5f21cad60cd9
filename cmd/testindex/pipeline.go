package main

import (
	"fmt"

	"testretriever/internal/cache"
	"testretriever/internal/config"
	"testretriever/internal/embedder"
	"testretriever/internal/tokenizer"
)

// buildStore constructs the token cache backend named in the config, or
// returns nil when caching is disabled.
func buildStore(cfg *config.AppConfig) (cache.Store, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case "fs":
		return cache.NewFSStore(cfg.Cache.Dir)
	case "sqlite":
		return cache.NewSQLiteStore(cfg.Cache.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func buildEmbedder(cfg *config.AppConfig) (embedder.Embedder, error) {
	return embedder.New(embedder.Config{
		Provider:  cfg.Embedder.Provider,
		BaseURL:   cfg.Embedder.BaseURL,
		Dimension: cfg.Embedder.Dimension,
		CacheSize: cfg.Embedder.CacheSize,
	})
}

// buildTokenizer wires the external tokenizer endpoint when one is
// configured and falls back to the byte encoder otherwise.
func buildTokenizer(cfg *config.AppConfig) *tokenizer.ChunkedTokenizer {
	if cfg.Tokenizer.BaseURL != "" {
		return tokenizer.New(tokenizer.NewRemoteEncoder(cfg.Tokenizer.BaseURL))
	}
	return tokenizer.New(tokenizer.NewByteEncoder())
}
