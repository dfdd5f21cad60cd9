package types

import "fmt"

// IndexShard holds one independently produced slice of the embedding index:
// a dense block of unit vectors and the parallel list of unit keys. The i-th
// vector always corresponds to the i-th name; every transformation (sort,
// filter, concatenate) must move both sequences together.
type IndexShard struct {
	Vectors [][]float32
	Names   []string
}

// Len returns the number of rows in the shard
func (s *IndexShard) Len() int {
	return len(s.Names)
}

// Append adds one (vector, name) row, keeping the sequences aligned
func (s *IndexShard) Append(vector []float32, name string) {
	s.Vectors = append(s.Vectors, vector)
	s.Names = append(s.Names, name)
}

// Concat appends all rows of other to s in order
func (s *IndexShard) Concat(other IndexShard) {
	s.Vectors = append(s.Vectors, other.Vectors...)
	s.Names = append(s.Names, other.Names...)
}

// Dimension returns the vector dimension of the shard, or 0 when empty
func (s *IndexShard) Dimension() int {
	if len(s.Vectors) == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

// Validate checks the positional-correspondence invariant
func (s *IndexShard) Validate() error {
	if len(s.Vectors) != len(s.Names) {
		return fmt.Errorf("shard row mismatch: %d vectors, %d names", len(s.Vectors), len(s.Names))
	}

	dim := s.Dimension()
	for i, v := range s.Vectors {
		if len(v) != dim {
			return fmt.Errorf("shard row %d (%s): dimension %d, want %d", i, s.Names[i], len(v), dim)
		}
	}

	return nil
}
