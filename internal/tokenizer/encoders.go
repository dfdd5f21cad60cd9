package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ByteEncoder is a deterministic byte-level encoder used when no tokenizer
// service is configured. One token per input byte keeps Encode/Decode an
// exact round trip, which is what the pipeline and its tests rely on.
type ByteEncoder struct{}

// NewByteEncoder creates a byte-level encoder
func NewByteEncoder() *ByteEncoder {
	return &ByteEncoder{}
}

func (e *ByteEncoder) Encode(_ context.Context, text string) ([]int, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	tokens := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		tokens[i] = int(text[i])
	}
	return tokens, nil
}

func (e *ByteEncoder) Decode(_ context.Context, tokens []int) (string, error) {
	buf := make([]byte, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || tok > 255 {
			return "", fmt.Errorf("%w: token %d out of byte range", ErrEncoderFailed, tok)
		}
		buf[i] = byte(tok)
	}
	return string(buf), nil
}

// RemoteEncoder calls an external tokenizer service over HTTP. The service
// owns the subword vocabulary; this client only moves text and token ids.
type RemoteEncoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteEncoder creates an encoder backed by the tokenizer service at
// baseURL, which must expose POST /encode and POST /decode
func NewRemoteEncoder(baseURL string) *RemoteEncoder {
	return &RemoteEncoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *RemoteEncoder) Encode(ctx context.Context, text string) ([]int, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	var result struct {
		Tokens []int `json:"tokens"`
	}
	if err := e.post(ctx, "/encode", map[string]any{"text": text}, &result); err != nil {
		return nil, err
	}
	return result.Tokens, nil
}

func (e *RemoteEncoder) Decode(ctx context.Context, tokens []int) (string, error) {
	var result struct {
		Text string `json:"text"`
	}
	if err := e.post(ctx, "/decode", map[string]any{"tokens": tokens}, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// post sends one JSON request with exponential backoff on transient failures
func (e *RemoteEncoder) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			err := fmt.Errorf("%w: %s returned %d: %s", ErrEncoderFailed, path, resp.StatusCode, respBody)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(2*time.Minute)), ctx)
	return backoff.Retry(op, policy)
}
