package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"testretriever/internal/config"
	"testretriever/internal/embedder"
	"testretriever/internal/scorer"
	"testretriever/internal/shardstore"
	"testretriever/internal/tokenizer"
	"testretriever/pkg/types"
)

var (
	flagExperiments []string
	flagQueryFiles  []string
	flagOutputDir   string
	flagCleanRoot   string
	flagTopK        int
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Score query items against indexed experiments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if len(flagExperiments) == 0 {
			return fmt.Errorf("at least one --experiment-names entry is required")
		}
		if len(flagQueryFiles) == 0 {
			return fmt.Errorf("at least one --query-files entry is required")
		}
		outputDir := flagOutputDir
		if outputDir == "" {
			outputDir = filepath.Join(cfg.Index.AssetsDir, "mappings")
		}

		// Load every experiment index up front so a missing shard fails
		// before any embedding work.
		start := time.Now()
		indexes := make(map[string]types.IndexShard, len(flagExperiments))
		for _, experiment := range flagExperiments {
			store, err := shardstore.New(filepath.Join(cfg.Index.AssetsDir, experiment), slog.Default())
			if err != nil {
				return err
			}
			index, err := store.LoadAll(store.Dir())
			if err != nil {
				return fmt.Errorf("load experiment %s: %w", experiment, err)
			}
			slog.Info("loaded experiment",
				slog.String("name", experiment),
				slog.Int("rows", index.Len()))
			indexes[experiment] = index
		}
		slog.Info("experiments loaded", slog.Duration("elapsed", time.Since(start)))

		emb, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}
		defer emb.Close()
		tok := buildTokenizer(cfg)

		start = time.Now()
		queries := make(map[string][]float32, len(flagQueryFiles))
		for _, queryFile := range flagQueryFiles {
			vector, err := embedQueryFile(cmd.Context(), tok, emb, queryFile)
			if err != nil {
				return err
			}
			queries[queryItemName(queryFile)] = vector
		}
		slog.Info("query embeddings generated",
			slog.Int("items", len(queries)),
			slog.Duration("elapsed", time.Since(start)))

		start = time.Now()
		sc := scorer.New(slog.Default())
		for experiment, index := range indexes {
			for item, vector := range queries {
				scores, err := sc.Score([][]float32{vector}, index)
				if err != nil {
					return fmt.Errorf("score %s against %s: %w", item, experiment, err)
				}
				outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.json", experiment, item))
				if err := sc.WriteMapping(outPath, scores, flagCleanRoot); err != nil {
					return err
				}
				printTop(experiment, item, scores)
			}
		}
		slog.Info("scoring complete", slog.Duration("elapsed", time.Since(start)))
		return nil
	},
}

// embedQueryFile turns one query item file into a single pooled vector
// using the same chunk-then-sum path as indexing.
func embedQueryFile(ctx context.Context, tok *tokenizer.ChunkedTokenizer, emb embedder.Embedder, path string) ([]float32, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	chunks, err := tok.TokenizeAndChunk(ctx, string(text))
	if err != nil {
		return nil, fmt.Errorf("tokenize query %s: %w", path, err)
	}
	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := emb.Embed(ctx, chunk.Tokens)
		if err != nil {
			return nil, fmt.Errorf("embed query %s: %w", path, err)
		}
		vectors = append(vectors, vec)
	}
	pooled := embedder.PoolSum(vectors)
	if pooled == nil {
		return nil, fmt.Errorf("query file %s produced no tokens", path)
	}
	return pooled, nil
}

func queryItemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func printTop(experiment, item string, scores map[string]float64) {
	ranked := scorer.Ranked(scores)
	limit := flagTopK
	if limit > len(ranked) {
		limit = len(ranked)
	}
	fmt.Printf("%s / %s:\n", experiment, item)
	for _, result := range ranked[:limit] {
		fmt.Printf("  %.4f  %s\n", result.Score, result.Name)
	}
}

func init() {
	retrieveCmd.Flags().StringSliceVar(&flagExperiments, "experiment-names", nil, "experiments whose shards should be loaded")
	retrieveCmd.Flags().StringSliceVar(&flagQueryFiles, "query-files", nil, "files whose contents are embedded as query items")
	retrieveCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "directory for score mapping files (default <assets>/mappings)")
	retrieveCmd.Flags().StringVar(&flagCleanRoot, "clean-root", "", "strip this prefix from unit paths in the output")
	retrieveCmd.Flags().IntVar(&flagTopK, "top", 10, "number of top results to print per query")
	rootCmd.AddCommand(retrieveCmd)
}
