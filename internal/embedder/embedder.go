package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyInput     = errors.New("token sequence cannot be empty")
	ErrProviderFailed = errors.New("embedding provider failed")
	ErrNoProvider     = errors.New("no embedding provider configured")
)

// Embedder is the external embedding-model collaborator. Given one bounded
// token sequence it returns one fixed-dimension vector, deterministic for a
// fixed input. Model internals (attention, weights, pooling across token
// positions) live behind this interface.
type Embedder interface {
	// Embed generates one vector for the given token sequence
	Embed(ctx context.Context, tokens []int) ([]float32, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache provides in-memory LRU caching of chunk vectors keyed by a hash of
// the token sequence
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. Returning a copy keeps caller
// mutations out of the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}

	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a vector with automatic LRU eviction
func (c *Cache) Set(hash string, vector []float32) {
	c.cache.Add(hash, vector)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// ComputeHash computes a stable SHA-256 key for a token sequence
func ComputeHash(tokens []int) string {
	h := sha256.New()
	var buf [8]byte
	for _, tok := range tokens {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(tok)))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PoolSum sums per-chunk vectors into one vector representing a whole unit.
// All inputs must share one dimension.
func PoolSum(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	pooled := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range v {
			pooled[i] += v[i]
		}
	}
	return pooled
}
