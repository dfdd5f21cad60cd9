package tokenizer

import (
	"context"
	"errors"

	"testretriever/pkg/types"
)

// Common errors
var (
	ErrEmptyText     = errors.New("text cannot be empty")
	ErrEncoderFailed = errors.New("encoder failed")
)

// Encoder is the external tokenizer collaborator. The subword algorithm
// behind it is opaque; the pipeline only requires that Encode be
// deterministic for a fixed input.
type Encoder interface {
	// Encode turns text into an ordered sequence of token ids
	Encode(ctx context.Context, text string) ([]int, error)

	// Decode turns token ids back into text
	Decode(ctx context.Context, tokens []int) (string, error)
}

// ChunkedTokenizer wraps an Encoder and splits oversized token sequences
// into bounded chunks while preserving order and unit identity.
type ChunkedTokenizer struct {
	encoder   Encoder
	maxTokens int
}

// New creates a ChunkedTokenizer with the default MaxTokens bound
func New(encoder Encoder) *ChunkedTokenizer {
	return &ChunkedTokenizer{
		encoder:   encoder,
		maxTokens: types.MaxTokens,
	}
}

// NewWithLimit creates a ChunkedTokenizer with an explicit bound, used by
// tests that exercise the splitting path without multi-thousand-token inputs
func NewWithLimit(encoder Encoder, maxTokens int) *ChunkedTokenizer {
	if maxTokens <= 0 {
		maxTokens = types.MaxTokens
	}
	return &ChunkedTokenizer{
		encoder:   encoder,
		maxTokens: maxTokens,
	}
}

// TokenizeAndChunk encodes the full unit text once and wraps the result in
// ordered chunks. Sequences shorter than the bound become a single chunk;
// longer sequences are split into consecutive, non-overlapping chunks of
// exactly maxTokens tokens each, the final chunk possibly shorter. The
// bound exists because the embedding collaborator has a fixed maximum
// context length.
func (t *ChunkedTokenizer) TokenizeAndChunk(ctx context.Context, unitText string) ([]types.TokenChunk, error) {
	if unitText == "" {
		return nil, ErrEmptyText
	}

	tokens, err := t.encoder.Encode(ctx, unitText)
	if err != nil {
		return nil, err
	}

	if len(tokens) < t.maxTokens {
		return []types.TokenChunk{{Tokens: tokens}}, nil
	}

	chunks := make([]types.TokenChunk, 0, (len(tokens)+t.maxTokens-1)/t.maxTokens)
	for start := 0; start < len(tokens); start += t.maxTokens {
		end := start + t.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, types.TokenChunk{Tokens: tokens[start:end]})
	}

	return chunks, nil
}

// Decode rejoins a unit's chunks in order and decodes them through the
// wrapped encoder
func (t *ChunkedTokenizer) Decode(ctx context.Context, chunks []types.TokenChunk) (string, error) {
	return t.encoder.Decode(ctx, types.JoinChunks(chunks))
}

// MaxTokens returns the chunk bound in effect
func (t *ChunkedTokenizer) MaxTokens() int {
	return t.maxTokens
}
