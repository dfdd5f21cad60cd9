// Package tokenizer wraps an external tokenizer behind the Encoder
// interface and splits oversized token sequences into bounded chunks.
//
// A code unit's text is encoded exactly once. Sequences below
// types.MaxTokens become a single chunk; longer sequences are split into
// consecutive, non-overlapping chunks of exactly MaxTokens ids (the final
// chunk may be shorter), preserving token order end to end:
//
//	t := tokenizer.New(tokenizer.NewByteEncoder())
//	chunks, err := t.TokenizeAndChunk(ctx, unit.Source)
//
// Two encoders ship with the package: RemoteEncoder, a client for an HTTP
// tokenizer service, and ByteEncoder, a deterministic byte-level fallback
// for hermetic runs and tests. The subword algorithm itself is an external
// concern.
package tokenizer
