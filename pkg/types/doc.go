// Package types provides shared type definitions for the test retrieval
// pipeline.
//
// This package defines the domain aggregates passed between the extractor,
// tokenizer, cache, index builder, shard store, and scorer.
//
// # Core Types
//
// CodeUnit represents a named function or method extracted from a source
// file, with its line range and exact source slice:
//
//	unit := &types.CodeUnit{
//	    FilePath:      "test/test_ops.py",
//	    QualifiedName: "TestOps.test_add",
//	    BeginLine:     14,
//	    EndLine:       29,
//	    Source:        body,
//	}
//
// TokenChunk is a bounded slice of token ids. A unit whose token sequence
// reaches MaxTokens is represented as multiple ordered chunks; rejoining the
// chunks in order reproduces the original token sequence:
//
//	tokens := types.JoinChunks(chunks)
//
// IndexShard pairs a block of unit vectors with the parallel list of unit
// keys. The i-th vector always belongs to the i-th name, and every
// transformation of a shard must move both sequences together.
//
// # Scope Filtering
//
// LineRange expresses the inclusive line intervals of a scope filter. A unit
// is in scope when its own interval overlaps at least one range; an empty
// filter keeps everything:
//
//	types.InScope(15, 25, []types.LineRange{{Begin: 10, End: 20}}) // true
package types
