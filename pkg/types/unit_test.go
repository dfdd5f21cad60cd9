package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInScope_OverlapRule(t *testing.T) {
	filter := []LineRange{{Begin: 10, End: 20}}

	tests := []struct {
		name  string
		begin int
		end   int
		want  bool
	}{
		{"entirely before", 5, 9, false},
		{"partial overlap", 15, 25, true},
		{"far before", 1, 3, false},
		{"contained", 12, 18, true},
		{"contains filter", 1, 100, true},
		{"touches begin", 1, 10, true},
		{"touches end", 20, 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InScope(tt.begin, tt.end, filter))
		})
	}
}

func TestInScope_EmptyFilter(t *testing.T) {
	assert.True(t, InScope(1, 1, nil))
	assert.True(t, InScope(500, 900, []LineRange{}))
}

func TestInScope_MultipleRanges(t *testing.T) {
	filter := []LineRange{{Begin: 10, End: 20}, {Begin: 50, End: 60}}

	assert.True(t, InScope(55, 58, filter))
	assert.False(t, InScope(30, 40, filter))
}

func TestCodeUnit_Key(t *testing.T) {
	unit := &CodeUnit{
		FilePath:      "test/test_ops.py",
		QualifiedName: "TestOps.test_add",
	}

	assert.Equal(t, "test/test_ops.py:TestOps.test_add", unit.Key())

	file, name := SplitKey(unit.Key())
	assert.Equal(t, "test/test_ops.py", file)
	assert.Equal(t, "TestOps.test_add", name)
}

func TestCodeUnit_Validate(t *testing.T) {
	unit := &CodeUnit{
		FilePath:      "a.py",
		QualifiedName: "foo",
		BeginLine:     3,
		EndLine:       8,
		Source:        "def foo():\n    pass",
	}
	require.NoError(t, unit.Validate())

	bad := *unit
	bad.BeginLine = 9
	assert.Error(t, bad.Validate())
}

func TestJoinChunks_PreservesOrder(t *testing.T) {
	chunks := []TokenChunk{
		{Tokens: []int{1, 2, 3}},
		{Tokens: []int{4, 5}},
		{Tokens: []int{6}},
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, JoinChunks(chunks))
}

func TestUnitTokens_Merge(t *testing.T) {
	a := UnitTokens{"f.py:foo": {{Tokens: []int{1}}}}
	b := UnitTokens{
		"f.py:foo": {{Tokens: []int{9}}},
		"g.py:bar": {{Tokens: []int{2, 3}}},
	}

	a.Merge(b)

	require.Len(t, a, 2)
	// Last write wins on key collision.
	assert.Equal(t, []int{9}, a["f.py:foo"][0].Tokens)
	assert.Equal(t, 3, a.TotalTokens())
}

func TestIndexShard_ConcatKeepsPairing(t *testing.T) {
	s1 := IndexShard{
		Vectors: [][]float32{{1, 0}, {0, 1}},
		Names:   []string{"t1", "t2"},
	}
	s2 := IndexShard{
		Vectors: [][]float32{{1, 1}},
		Names:   []string{"t3"},
	}

	s1.Concat(s2)

	require.NoError(t, s1.Validate())
	assert.Equal(t, []string{"t1", "t2", "t3"}, s1.Names)
	assert.Equal(t, []float32{1, 1}, s1.Vectors[2])
}
