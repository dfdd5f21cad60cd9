// Package extractor parses Python source files with tree-sitter and
// extracts named code units for the indexing pipeline.
//
// Each unit is a top-level function ("name") or a direct class method
// ("Class.name") with its 1-based inclusive line range and the exact source
// slice of the definition. An optional scope filter of inclusive line ranges
// restricts which units are returned: a unit is kept when its interval
// overlaps at least one range.
//
// # Basic Usage
//
//	e := extractor.New(nil)
//	units, err := e.ExtractFile("test/test_ops.py", nil)
//	if err != nil {
//	    var perr *types.ParseError
//	    if errors.As(err, &perr) {
//	        // malformed file, skip it
//	    }
//	}
//
// A syntactically invalid file fails the whole extraction; extraction never
// returns partial results for a file.
package extractor
