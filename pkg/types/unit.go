package types

import (
	"errors"
	"fmt"
	"strings"
)

// CodeUnit represents a named function or method extracted from a source file
type CodeUnit struct {
	// Identification
	FilePath      string
	QualifiedName string // "function" for top-level, "Class.method" for methods

	// Location (1-based, inclusive)
	BeginLine int
	EndLine   int

	// Content
	Source string // exact source slice for the node
}

// Key returns the unit key "{file_path}:{qualified_name}" used throughout
// the index and the cache
func (u *CodeUnit) Key() string {
	return u.FilePath + ":" + u.QualifiedName
}

// IsMethod returns true if the unit is a class method
func (u *CodeUnit) IsMethod() bool {
	return strings.Contains(u.QualifiedName, ".")
}

// Validate performs comprehensive validation of the code unit
func (u *CodeUnit) Validate() error {
	if u.QualifiedName == "" {
		return errors.New("qualified name is required")
	}

	if u.BeginLine <= 0 || u.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if u.BeginLine > u.EndLine {
		return errors.New("begin line must be before or equal to end line")
	}

	if u.Source == "" {
		return errors.New("source text cannot be empty")
	}

	return nil
}

// SplitKey splits a unit key back into its file path and qualified name.
// The qualified name never contains a colon, so the last separator wins
// (file paths on some platforms may contain one).
func SplitKey(key string) (filePath, qualifiedName string) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// LineRange is an inclusive range of source lines used for scope filtering
type LineRange struct {
	Begin int
	End   int
}

// Overlaps reports whether the range shares at least one line with the
// interval [beginLine, endLine]
func (r LineRange) Overlaps(beginLine, endLine int) bool {
	return endLine >= r.Begin && beginLine <= r.End
}

// InScope reports whether a unit spanning [beginLine, endLine] overlaps any
// range in the filter. An empty filter places everything in scope.
func InScope(beginLine, endLine int, filter []LineRange) bool {
	if len(filter) == 0 {
		return true
	}

	for _, r := range filter {
		if r.Overlaps(beginLine, endLine) {
			return true
		}
	}

	return false
}

// Validate checks that a line range is well formed
func (r LineRange) Validate() error {
	if r.Begin <= 0 || r.End <= 0 {
		return errors.New("line numbers must be positive")
	}
	if r.Begin > r.End {
		return fmt.Errorf("invalid line range (%d,%d): begin after end", r.Begin, r.End)
	}
	return nil
}
