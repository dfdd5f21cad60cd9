package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"testretriever/internal/cache"
	"testretriever/internal/embedder"
	"testretriever/internal/extractor"
	"testretriever/internal/tokenizer"
	"testretriever/pkg/types"
)

// DefaultFilePrefix selects candidate test files during discovery.
const DefaultFilePrefix = "test_"

// testMethodPattern matches test methods qualified by a class name.
var testMethodPattern = regexp.MustCompile(`.*\.test_.*`)

// Builder coordinates the indexing pipeline:
// extract -> filter -> chunk -> embed -> pool.
type Builder struct {
	extractor *extractor.Extractor
	tokenizer *tokenizer.ChunkedTokenizer
	embedder  embedder.Embedder
	store     cache.Store
	logger    *slog.Logger
}

// Config contains configuration for one index build.
type Config struct {
	Workers     int               // concurrent file workers; <= 1 means sequential
	TestsOnly   bool              // keep only test-named units
	UseCache    bool              // consult the token cache (needs a repo root)
	ScopeFilter []types.LineRange // optional line-range restriction per file
	Partition   Partition         // rank/world split of the file list
}

// Statistics describes one completed build.
type Statistics struct {
	FilesProcessed int
	CacheHits      int
	FilesFailed    int
	UnitsIndexed   int
	ChunksEmbedded int
	Duration       time.Duration
	ErrorMessages  []string
}

// New creates a Builder. The cache store may be nil, in which case every
// file is processed from scratch.
func New(ext *extractor.Extractor, tok *tokenizer.ChunkedTokenizer, emb embedder.Embedder, store cache.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		extractor: ext,
		tokenizer: tok,
		embedder:  emb,
		store:     store,
		logger:    logger,
	}
}

// DiscoverFiles walks dir and returns every Python file whose base name
// starts with prefix, excluding anything under a third_party directory.
// The result is sorted so partitioning across ranks is deterministic.
func DiscoverFiles(dir, prefix string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "third_party" {
				return filepath.SkipDir
			}
			return nil
		}
		name := info.Name()
		if !strings.HasSuffix(name, ".py") || !strings.HasPrefix(name, prefix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover files in %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// BuildIndex processes this builder's partition of files into one index
// shard. A file that fails to parse or embed is recorded in the statistics
// and skipped; sibling files are unaffected. Row order in the shard is the
// sorted order of unit keys, so repeated builds over the same inputs produce
// identical shards.
func (b *Builder) BuildIndex(ctx context.Context, repoDir string, files []string, cfg Config) (types.IndexShard, *Statistics, error) {
	if err := cfg.Partition.Validate(); err != nil {
		return types.IndexShard{}, nil, err
	}
	files = cfg.Partition.Slice(files)

	start := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	var mu sync.Mutex
	var hits, failed, chunks atomic.Int32
	pooled := make(map[string][]float32)

	process := func(ctx context.Context, filePath string) {
		vectors, fileChunks, cached, err := b.processFile(ctx, repoDir, filePath, cfg)
		if err != nil {
			failed.Add(1)
			b.logger.Warn("skipping file", slog.String("path", filePath), slog.String("error", err.Error()))
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			return
		}
		if cached {
			hits.Add(1)
		}
		chunks.Add(int32(fileChunks))
		mu.Lock()
		for key, vec := range vectors {
			pooled[key] = vec
		}
		mu.Unlock()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers <= 1 || len(files) <= 1 {
		for _, filePath := range files {
			if err := ctx.Err(); err != nil {
				return types.IndexShard{}, nil, err
			}
			process(ctx, filePath)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		semaphore := make(chan struct{}, workers)
		for _, filePath := range files {
			filePath := filePath
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case semaphore <- struct{}{}:
				}
				defer func() { <-semaphore }()
				process(gctx, filePath)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return types.IndexShard{}, nil, err
		}
	}

	keys := make([]string, 0, len(pooled))
	for key := range pooled {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var shard types.IndexShard
	for _, key := range keys {
		shard.Append(pooled[key], key)
	}

	stats.FilesProcessed = len(files)
	stats.CacheHits = int(hits.Load())
	stats.FilesFailed = int(failed.Load())
	stats.UnitsIndexed = shard.Len()
	stats.ChunksEmbedded = int(chunks.Load())
	stats.Duration = time.Since(start)

	b.logger.Info("index build complete",
		slog.Int("files", stats.FilesProcessed),
		slog.Int("cache_hits", stats.CacheHits),
		slog.Int("failed", stats.FilesFailed),
		slog.Int("units", stats.UnitsIndexed),
		slog.Duration("elapsed", stats.Duration))
	return shard, stats, nil
}

// processFile produces one pooled vector per unit in the file. Token chunks
// come from the cache when possible; embedding always runs, one call per
// chunk, summed into a single vector per unit.
func (b *Builder) processFile(ctx context.Context, repoDir, filePath string, cfg Config) (map[string][]float32, int, bool, error) {
	unitTokens, cached, err := b.tokensForFile(ctx, repoDir, filePath, cfg)
	if err != nil {
		return nil, 0, false, err
	}

	vectors := make(map[string][]float32, len(unitTokens))
	embedded := 0
	for key, chunkList := range unitTokens {
		chunkVectors := make([][]float32, 0, len(chunkList))
		for _, chunk := range chunkList {
			vec, err := b.embedder.Embed(ctx, chunk.Tokens)
			if err != nil {
				return nil, 0, cached, fmt.Errorf("embed %s: %w", key, err)
			}
			chunkVectors = append(chunkVectors, vec)
			embedded++
		}
		if pooled := embedder.PoolSum(chunkVectors); pooled != nil {
			vectors[key] = pooled
		}
	}
	return vectors, embedded, cached, nil
}

// tokensForFile returns the per-unit token chunks for a file, consulting the
// cache first. The cached value is complete for the file's last successful
// processing; on a miss the freshly computed mapping is stored before return.
func (b *Builder) tokensForFile(ctx context.Context, repoDir, filePath string, cfg Config) (types.UnitTokens, bool, error) {
	useCache := cfg.UseCache && b.store != nil && repoDir != ""
	relPath := cache.RelativePath(repoDir, filePath)

	if useCache {
		cached, ok, err := b.store.Get(ctx, cache.NamespaceFileTokens, relPath)
		if err != nil {
			b.logger.Warn("cache read failed", slog.String("path", relPath), slog.String("error", err.Error()))
		} else if ok {
			b.logger.Debug("cache hit", slog.String("path", relPath))
			return cached, true, nil
		}
	}

	units, err := b.extractor.ExtractFile(filePath, cfg.ScopeFilter)
	if err != nil {
		return nil, false, err
	}

	unitTokens := make(types.UnitTokens, len(units))
	for _, unit := range units {
		if cfg.TestsOnly && !isTestUnit(unit.QualifiedName) {
			continue
		}
		chunkList, err := b.tokenizer.TokenizeAndChunk(ctx, unit.Source)
		if err != nil {
			return nil, false, fmt.Errorf("tokenize %s: %w", unit.Key(), err)
		}
		unitTokens[unit.Key()] = chunkList
	}

	if useCache {
		if err := b.store.Put(ctx, cache.NamespaceFileTokens, relPath, unitTokens); err != nil {
			b.logger.Warn("cache write failed", slog.String("path", relPath), slog.String("error", err.Error()))
		}
	}
	return unitTokens, false, nil
}

// isTestUnit reports whether a qualified name denotes a test function or a
// test method of some class.
func isTestUnit(qualifiedName string) bool {
	return strings.HasPrefix(qualifiedName, "test") || testMethodPattern.MatchString(qualifiedName)
}
