package types

import "errors"

// MaxTokens is the maximum number of token ids per chunk. It matches the
// fixed context length of the embedding collaborator, so any unit whose
// token sequence reaches this bound is split before embedding.
const MaxTokens = 8292

// TokenChunk is a bounded, ordered slice of token ids belonging to exactly
// one code unit. Chunk order equals original token order and must be
// preserved end to end.
type TokenChunk struct {
	Tokens []int `json:"tokens"`
}

// Len returns the number of tokens in the chunk
func (c TokenChunk) Len() int {
	return len(c.Tokens)
}

// Validate checks the chunk against the token bound
func (c TokenChunk) Validate() error {
	if len(c.Tokens) == 0 {
		return errors.New("token chunk cannot be empty")
	}
	if len(c.Tokens) > MaxTokens {
		return errors.New("token chunk exceeds maximum token count")
	}
	return nil
}

// UnitTokens maps a unit key "{file_path}:{qualified_name}" to the ordered
// token chunks for that unit. This is the cacheable per-file result: a cache
// entry is either absent or holds the complete mapping for the file.
type UnitTokens map[string][]TokenChunk

// Merge copies every entry of other into m, overwriting on key collision.
// Keys include the file path, so collisions across files do not happen in
// practice; last write wins is stated for completeness.
func (m UnitTokens) Merge(other UnitTokens) {
	for key, chunks := range other {
		m[key] = chunks
	}
}

// TotalTokens returns the summed token count across all chunks of all units
func (m UnitTokens) TotalTokens() int {
	total := 0
	for _, chunks := range m {
		for _, c := range chunks {
			total += c.Len()
		}
	}
	return total
}

// JoinChunks rejoins a unit's chunks into one token sequence in chunk order,
// reversing the MaxTokens split for decoding.
func JoinChunks(chunks []TokenChunk) []int {
	n := 0
	for _, c := range chunks {
		n += c.Len()
	}

	joined := make([]int, 0, n)
	for _, c := range chunks {
		joined = append(joined, c.Tokens...)
	}
	return joined
}
