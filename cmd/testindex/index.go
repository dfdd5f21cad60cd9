package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"testretriever/internal/config"
	"testretriever/internal/extractor"
	"testretriever/internal/indexer"
	"testretriever/internal/shardstore"
)

var (
	flagDirectory  string
	flagRepoDir    string
	flagFilePrefix string
	flagTestsOnly  bool
	flagWorkers    int
	flagNoCache    bool
	flagExperiment string
	flagTokensOut  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build an embedding index shard from test files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		applyIndexFlags(cmd, cfg)

		directory, err := config.EffectiveDirectory(cfg.Index.RepoDir, cfg.Index.Directory)
		if err != nil {
			return err
		}
		if cfg.Index.RepoDir == "" {
			slog.Warn("no repository root configured, cache disabled")
			cfg.Cache.Enabled = false
		}

		files, err := indexer.DiscoverFiles(directory, cfg.Index.FilePrefix)
		if err != nil {
			return err
		}
		slog.Info("discovered files", slog.Int("count", len(files)), slog.String("directory", directory))

		store, err := buildStore(cfg)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		emb, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}
		defer emb.Close()

		builder := indexer.New(extractor.New(nil), buildTokenizer(cfg), emb, store, slog.Default())
		partition := indexer.PartitionFromEnv()

		start := time.Now()
		shard, stats, err := builder.BuildIndex(cmd.Context(), cfg.Index.RepoDir, files, indexer.Config{
			Workers:   cfg.Index.Workers,
			TestsOnly: cfg.Index.TestsOnly,
			UseCache:  cfg.Cache.Enabled,
			Partition: partition,
		})
		if err != nil {
			return err
		}
		for _, msg := range stats.ErrorMessages {
			slog.Warn("file failed", slog.String("detail", msg))
		}
		slog.Info("build finished",
			slog.Int("units", stats.UnitsIndexed),
			slog.Int("cache_hits", stats.CacheHits),
			slog.Int("failed", stats.FilesFailed),
			slog.Duration("elapsed", time.Since(start)))

		if shard.Len() == 0 {
			slog.Warn("no units indexed, nothing persisted")
			return nil
		}

		if flagTokensOut != "" {
			if err := dumpUnitNames(flagTokensOut, shard.Names); err != nil {
				return err
			}
		}

		shardDir := filepath.Join(cfg.Index.AssetsDir, flagExperiment)
		store2, err := shardstore.New(shardDir, slog.Default())
		if err != nil {
			return err
		}
		vecPath, mapPath, err := store2.Persist(shard, shardstore.NewSalt(), partition.Rank)
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d units from %d files\n", stats.UnitsIndexed, stats.FilesProcessed)
		fmt.Printf("Shard: %s\n", vecPath)
		fmt.Printf("Mapping: %s\n", mapPath)
		return nil
	},
}

// applyIndexFlags overlays explicitly set command-line flags on the loaded
// configuration.
func applyIndexFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	if cmd.Flags().Changed("directory") {
		cfg.Index.Directory = flagDirectory
	}
	if cmd.Flags().Changed("repo-dir") {
		cfg.Index.RepoDir = flagRepoDir
	}
	if cmd.Flags().Changed("file-prefix") {
		cfg.Index.FilePrefix = flagFilePrefix
	}
	if cmd.Flags().Changed("tests-only") {
		cfg.Index.TestsOnly = flagTestsOnly
	}
	if cmd.Flags().Changed("workers") {
		cfg.Index.Workers = flagWorkers
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
}

// dumpUnitNames writes the indexed unit keys as a JSON array, mirroring the
// optional token dump of the original pipeline.
func dumpUnitNames(path string, names []string) error {
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	indexCmd.Flags().StringVar(&flagDirectory, "directory", "", "directory to scan for test files")
	indexCmd.Flags().StringVar(&flagRepoDir, "repo-dir", "", "absolute repository root (enables the cache)")
	indexCmd.Flags().StringVar(&flagFilePrefix, "file-prefix", "test_", "only scan files starting with this prefix")
	indexCmd.Flags().BoolVar(&flagTestsOnly, "tests-only", true, "restrict extraction to test-named units")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "concurrent file workers (0 = number of CPUs)")
	indexCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "bypass the token cache")
	indexCmd.Flags().StringVar(&flagExperiment, "experiment", "default", "experiment name for shard artifacts")
	indexCmd.Flags().StringVar(&flagTokensOut, "output-file", "", "optional JSON dump of indexed unit keys")
	rootCmd.AddCommand(indexCmd)
}
