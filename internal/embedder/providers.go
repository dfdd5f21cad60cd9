package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Provider configuration
const (
	ProviderHTTP  = "http"
	ProviderLocal = "local"

	// LocalDimension is the vector size of the deterministic local provider
	LocalDimension = 384

	// httpTimeout bounds a single model call; large chunks can take a
	// while on a busy inference host
	httpTimeout = 120 * time.Second
)

// HTTPProvider calls an embedding-model service that accepts token ids and
// returns one pooled vector per request.
type HTTPProvider struct {
	baseURL    string
	dimension  int
	httpClient *http.Client
	cache      *Cache
}

// NewHTTPProvider creates an embedder backed by the model service at
// baseURL, which must expose POST /embed. dimension is the fixed vector
// size the service produces.
func NewHTTPProvider(baseURL string, dimension int, cache *Cache) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL not set", ErrNoProvider)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrNoProvider)
	}

	return &HTTPProvider{
		baseURL:   baseURL,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		cache: cache,
	}, nil
}

func (p *HTTPProvider) Embed(ctx context.Context, tokens []int) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyInput
	}

	hash := ComputeHash(tokens)
	if p.cache != nil {
		if v, ok := p.cache.Get(hash); ok {
			return v, nil
		}
	}

	vector, err := p.callAPI(ctx, tokens)
	if err != nil {
		return nil, err
	}

	if len(vector) != p.dimension {
		return nil, fmt.Errorf("%w: got %d-dimensional vector, want %d",
			ErrProviderFailed, len(vector), p.dimension)
	}

	if p.cache != nil {
		p.cache.Set(hash, vector)
	}

	return vector, nil
}

func (p *HTTPProvider) callAPI(ctx context.Context, tokens []int) ([]float32, error) {
	body, err := json.Marshal(map[string]any{"tokens": tokens})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var vector []float32
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			err := fmt.Errorf("%w: api error %d: %s", ErrProviderFailed, resp.StatusCode, respBody)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		var apiResp struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}

		vector = apiResp.Embedding
		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(5*time.Minute)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	return vector, nil
}

func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

func (p *HTTPProvider) Provider() string {
	return ProviderHTTP
}

func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider is a deterministic stand-in for a real model, used for
// hermetic runs and tests. The vector is derived from a hash of the token
// sequence, so a fixed input always yields the same fixed-dimension output.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a local embedder
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{cache: cache}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, tokens []int) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyInput
	}

	hash := ComputeHash(tokens)
	if l.cache != nil {
		if v, ok := l.cache.Get(hash); ok {
			return v, nil
		}
	}

	vector := make([]float32, LocalDimension)
	seed := sha256.Sum256([]byte(hash))
	for i := range vector {
		// Expand the seed block by block; values land in [-1, 1).
		if i%32 == 0 && i > 0 {
			seed = sha256.Sum256(seed[:])
		}
		bits := binary.LittleEndian.Uint16(seed[(i*2)%30:])
		vector[i] = float32(bits)/float32(math.MaxUint16)*2 - 1
	}

	if l.cache != nil {
		l.cache.Set(hash, vector)
	}

	return vector, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Close() error {
	return nil
}
