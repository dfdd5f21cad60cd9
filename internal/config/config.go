// Package config loads application configuration from YAML with defaults
// and validates the repository/scan directory layout before any work starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"testretriever/pkg/types"
)

// CacheConfig configures the token cache.
type CacheConfig struct {
	Backend string `yaml:"backend"` // "fs" or "sqlite"
	Dir     string `yaml:"dir"`
	Enabled bool   `yaml:"enabled"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // "http" or "local"
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	CacheSize int    `yaml:"cache_size"`
}

// TokenizerConfig configures the external tokenizer endpoint. An empty URL
// selects the built-in byte encoder.
type TokenizerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// IndexConfig configures index construction.
type IndexConfig struct {
	RepoDir    string `yaml:"repo_dir"`
	Directory  string `yaml:"directory"`
	FilePrefix string `yaml:"file_prefix"`
	TestsOnly  bool   `yaml:"tests_only"`
	Workers    int    `yaml:"workers"`
	AssetsDir  string `yaml:"assets_dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Index     IndexConfig     `yaml:"index"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Index.FilePrefix == "" {
		cfg.Index.FilePrefix = "test_"
	}
	if cfg.Index.AssetsDir == "" {
		cfg.Index.AssetsDir = "assets"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "fs"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "cache"
	}
	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = "local"
	}
	if cfg.Embedder.CacheSize == 0 {
		cfg.Embedder.CacheSize = 10000
	}
}

// EffectiveDirectory resolves the scan directory against the repository
// root. The root, when set, must be absolute; a relative scan directory is
// resolved under it and an absolute one must already lie inside it. Paths
// starting with "~" are rejected because they are never expanded here.
// An empty repoDir leaves the scan directory as given, with no cache use
// possible.
func EffectiveDirectory(repoDir, directory string) (string, error) {
	if strings.HasPrefix(directory, "~") {
		return "", fmt.Errorf("directory %s must not start with '~': %w", directory, types.ErrConfiguration)
	}
	if repoDir == "" {
		return directory, nil
	}
	if !filepath.IsAbs(repoDir) {
		return "", fmt.Errorf("repository root %s must be an absolute path: %w", repoDir, types.ErrConfiguration)
	}
	if filepath.IsAbs(directory) {
		rel, err := filepath.Rel(repoDir, directory)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("directory %s is not under repository root %s: %w", directory, repoDir, types.ErrConfiguration)
		}
		return directory, nil
	}
	return filepath.Join(repoDir, directory), nil
}
