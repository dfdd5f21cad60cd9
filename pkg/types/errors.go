package types

import (
	"errors"
	"fmt"
)

// Domain errors shared across the pipeline
var (
	// ErrConfiguration covers invalid command-surface configuration, such
	// as a relative repository root. Fatal before any processing starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrShardMismatch indicates unequal counts of vector and mapping
	// files in a load directory. Fatal for the load operation.
	ErrShardMismatch = errors.New("shard file mismatch")

	// ErrDimensionMismatch indicates a query vector whose dimension does
	// not match the loaded index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyIndex indicates a load directory with no shard files.
	ErrEmptyIndex = errors.New("index is empty")
)

// ParseError represents a malformed source file. It fails that file only;
// sibling files keep processing.
type ParseError struct {
	File    string
	Message string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.File, e.Message)
}

// NewParseError creates a ParseError naming the offending file
func NewParseError(file, message string) *ParseError {
	return &ParseError{File: file, Message: message}
}
