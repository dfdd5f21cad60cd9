// Package embedder generates one fixed-dimension vector per token chunk
// through the opaque embedding-model collaborator.
//
// The Embedder interface is deliberately small: Embed(tokens) -> vector,
// deterministic for a fixed input. HTTPProvider talks to a model service
// with exponential-backoff retry; LocalProvider derives vectors from a hash
// of the token sequence so the pipeline runs hermetically in tests. Both
// share an LRU cache keyed by a hash of the token ids.
//
//	emb, err := embedder.NewFromEnv()
//	vector, err := emb.Embed(ctx, chunk.Tokens)
//
// PoolSum reduces a unit's per-chunk vectors to the single vector that
// represents the whole unit in the index.
package embedder
