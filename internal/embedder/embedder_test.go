package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_Deterministic(t *testing.T) {
	emb, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	ctx := context.Background()
	tokens := []int{10, 20, 30}

	v1, err := emb.Embed(ctx, tokens)
	require.NoError(t, err)
	v2, err := emb.Embed(ctx, tokens)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, LocalDimension)
	assert.Equal(t, LocalDimension, emb.Dimension())
}

func TestLocalProvider_DistinctInputs(t *testing.T) {
	emb, err := NewLocalProvider(nil)
	require.NoError(t, err)

	ctx := context.Background()
	v1, err := emb.Embed(ctx, []int{1, 2, 3})
	require.NoError(t, err)
	v2, err := emb.Embed(ctx, []int{3, 2, 1})
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestLocalProvider_EmptyInput(t *testing.T) {
	emb, err := NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestCache_GetReturnsCopy(t *testing.T) {
	cache := NewCache(10)
	cache.Set("k", []float32{1, 2, 3})

	v, ok := cache.Get("k")
	require.True(t, ok)
	v[0] = 99

	again, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])
}

func TestComputeHash_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, ComputeHash([]int{1, 2}), ComputeHash([]int{2, 1}))
	assert.Equal(t, ComputeHash([]int{5, 6, 7}), ComputeHash([]int{5, 6, 7}))
}

func TestPoolSum(t *testing.T) {
	pooled := PoolSum([][]float32{
		{1, 2, 3},
		{10, 20, 30},
	})

	assert.Equal(t, []float32{11, 22, 33}, pooled)
}

func TestPoolSum_SingleChunk(t *testing.T) {
	assert.Equal(t, []float32{4, 5}, PoolSum([][]float32{{4, 5}}))
	assert.Nil(t, PoolSum(nil))
}

func TestHTTPProvider_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)

		var req struct {
			Tokens []int `json:"tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vector := make([]float32, 4)
		for i := range vector {
			vector[i] = float32(len(req.Tokens))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vector})
	}))
	defer srv.Close()

	emb, err := NewHTTPProvider(srv.URL, 4, NewCache(10))
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	v, err := emb.Embed(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3, 3, 3}, v)
}

func TestHTTPProvider_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2}})
	}))
	defer srv.Close()

	emb, err := NewHTTPProvider(srv.URL, 4, nil)
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []int{1})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestHTTPProvider_CacheHitSkipsCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2, 3, 4}})
	}))
	defer srv.Close()

	emb, err := NewHTTPProvider(srv.URL, 4, NewCache(10))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = emb.Embed(ctx, []int{8, 9})
	require.NoError(t, err)
	_, err = emb.Embed(ctx, []int{8, 9})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "gpu-cluster"})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	emb, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
}
