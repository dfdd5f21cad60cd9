package tokenizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testretriever/pkg/types"
)

func TestByteEncoder_RoundTrip(t *testing.T) {
	enc := NewByteEncoder()
	ctx := context.Background()

	text := "def test_foo():\n    assert 1 == 1\n"
	tokens, err := enc.Encode(ctx, text)
	require.NoError(t, err)
	assert.Len(t, tokens, len(text))

	decoded, err := enc.Decode(ctx, tokens)
	require.NoError(t, err)
	assert.Equal(t, text, decoded)
}

func TestByteEncoder_EmptyText(t *testing.T) {
	enc := NewByteEncoder()

	_, err := enc.Encode(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestTokenizeAndChunk_SingleChunk(t *testing.T) {
	tok := New(NewByteEncoder())

	chunks, err := tok.TokenizeAndChunk(context.Background(), "def f():\n    pass")
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, 17, chunks[0].Len())
}

func TestTokenizeAndChunk_SplitsAtBound(t *testing.T) {
	tok := NewWithLimit(NewByteEncoder(), 10)
	ctx := context.Background()

	text := strings.Repeat("x", 25)
	chunks, err := tok.TokenizeAndChunk(ctx, text)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, 10, chunks[0].Len())
	assert.Equal(t, 10, chunks[1].Len())
	assert.Equal(t, 5, chunks[2].Len())

	// Rejoining the chunks and re-tokenizing the original text agree on
	// the total token count, and decoding reproduces the text.
	joined := types.JoinChunks(chunks)
	retokenized, err := tok.encoder.Encode(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, len(retokenized), len(joined))

	decoded, err := tok.Decode(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, text, decoded)
}

func TestTokenizeAndChunk_ExactBound(t *testing.T) {
	tok := NewWithLimit(NewByteEncoder(), 10)

	// A sequence of exactly maxTokens is split, not wrapped whole: the
	// bound is reached, so the splitting path applies and yields one
	// full-size chunk.
	chunks, err := tok.TokenizeAndChunk(context.Background(), strings.Repeat("y", 10))
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, 10, chunks[0].Len())
}

func TestTokenizeAndChunk_BoundNeverExceeded(t *testing.T) {
	tok := NewWithLimit(NewByteEncoder(), 8)

	chunks, err := tok.TokenizeAndChunk(context.Background(), strings.Repeat("z", 100))
	require.NoError(t, err)

	for i, c := range chunks {
		assert.LessOrEqual(t, c.Len(), 8, "chunk %d", i)
		require.NoError(t, c.Validate())
	}
}

func TestTokenizeAndChunk_EmptyText(t *testing.T) {
	tok := New(NewByteEncoder())

	_, err := tok.TokenizeAndChunk(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestDefaultBound(t *testing.T) {
	tok := New(NewByteEncoder())
	assert.Equal(t, types.MaxTokens, tok.MaxTokens())
}

func TestRemoteEncoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/encode":
			var req struct {
				Text string `json:"text"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			tokens := make([]int, len(req.Text))
			for i := range req.Text {
				tokens[i] = int(req.Text[i]) + 1000
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"tokens": tokens})
		case "/decode":
			var req struct {
				Tokens []int `json:"tokens"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			buf := make([]byte, len(req.Tokens))
			for i, tok := range req.Tokens {
				buf[i] = byte(tok - 1000)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"text": string(buf)})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	enc := NewRemoteEncoder(srv.URL)
	ctx := context.Background()

	tokens, err := enc.Encode(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(t, []int{1097, 1098}, tokens)

	text, err := enc.Decode(ctx, tokens)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}

func TestRemoteEncoder_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	enc := NewRemoteEncoder(srv.URL)

	_, err := enc.Encode(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoderFailed)
	assert.Equal(t, 1, calls)
}
