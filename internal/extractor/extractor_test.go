package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testretriever/pkg/types"
)

const sampleSource = `import unittest


def helper(x):
    return x + 1


def test_foo():
    assert helper(1) == 2


class TestOps(unittest.TestCase):
    def setUp(self):
        self.value = 3

    def test_bar(self):
        self.assertEqual(helper(self.value), 4)
`

func TestExtract_FunctionsAndMethods(t *testing.T) {
	e := New(nil)

	units, err := e.Extract("test_sample.py", []byte(sampleSource), nil)
	require.NoError(t, err)

	require.Len(t, units, 4)
	assert.Contains(t, units, "helper")
	assert.Contains(t, units, "test_foo")
	assert.Contains(t, units, "TestOps.setUp")
	assert.Contains(t, units, "TestOps.test_bar")

	helper := units["helper"]
	assert.Equal(t, "test_sample.py", helper.FilePath)
	assert.Equal(t, 4, helper.BeginLine)
	assert.Equal(t, 5, helper.EndLine)
	assert.Equal(t, "def helper(x):\n    return x + 1", helper.Source)
}

func TestExtract_SourceRoundTrip(t *testing.T) {
	e := New(nil)

	units, err := e.Extract("test_sample.py", []byte(sampleSource), nil)
	require.NoError(t, err)

	// Re-slicing the file by the returned line range reproduces the unit's
	// exact text for top-level functions.
	lines := splitLines(sampleSource)
	for _, name := range []string{"helper", "test_foo"} {
		unit := units[name]
		joined := joinLines(lines[unit.BeginLine-1 : unit.EndLine])
		assert.Equal(t, unit.Source, joined, "unit %s", name)
	}
}

func TestExtract_ScopeFilter(t *testing.T) {
	e := New(nil)

	// Only lines 8-9 (test_foo) are in scope.
	units, err := e.Extract("test_sample.py", []byte(sampleSource),
		[]types.LineRange{{Begin: 8, End: 9}})
	require.NoError(t, err)

	require.Len(t, units, 1)
	assert.Contains(t, units, "test_foo")
}

func TestExtract_ScopeFilterOverlap(t *testing.T) {
	e := New(nil)

	// A range overlapping only the tail of TestOps.test_bar still includes it.
	units, err := e.Extract("test_sample.py", []byte(sampleSource),
		[]types.LineRange{{Begin: 17, End: 40}})
	require.NoError(t, err)

	require.Len(t, units, 1)
	assert.Contains(t, units, "TestOps.test_bar")
}

func TestExtract_DecoratedDefinitions(t *testing.T) {
	source := `import functools


@functools.cache
def test_cached():
    return 1


class Suite:
    @property
    def test_prop(self):
        return 2
`
	e := New(nil)

	units, err := e.Extract("test_dec.py", []byte(source), nil)
	require.NoError(t, err)

	require.Contains(t, units, "test_cached")
	require.Contains(t, units, "Suite.test_prop")

	// The source slice starts at the def keyword, not the decorator.
	assert.Equal(t, 5, units["test_cached"].BeginLine)
	assert.True(t, len(units["test_cached"].Source) > 0)
	assert.Equal(t, byte('d'), units["test_cached"].Source[0])
}

func TestExtract_DuplicateNameLaterWins(t *testing.T) {
	source := `def test_dup():
    return 1


def test_dup():
    return 2
`
	e := New(nil)

	units, err := e.Extract("test_dup.py", []byte(source), nil)
	require.NoError(t, err)

	require.Len(t, units, 1)
	// The later definition overwrites the earlier one.
	assert.Equal(t, 5, units["test_dup"].BeginLine)
	assert.Contains(t, units["test_dup"].Source, "return 2")
}

func TestExtract_InvalidSyntax(t *testing.T) {
	e := New(nil)

	units, err := e.Extract("broken.py", []byte("def test_broken(:\n    pass\n"), nil)

	require.Error(t, err)
	assert.Nil(t, units)

	var perr *types.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "broken.py", perr.File)
}

func TestExtract_NestedClassesNotDescended(t *testing.T) {
	source := `class Outer:
    class Inner:
        def test_inner(self):
            pass

    def test_outer(self):
        pass
`
	e := New(nil)

	units, err := e.Extract("test_nested.py", []byte(source), nil)
	require.NoError(t, err)

	assert.Contains(t, units, "Outer.test_outer")
	assert.NotContains(t, units, "Inner.test_inner")
	assert.NotContains(t, units, "Outer.Inner.test_inner")
}

func TestExtractFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test_file.py")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0644))

	e := New(nil)
	units, err := e.ExtractFile(path, nil)

	require.NoError(t, err)
	assert.Len(t, units, 4)
	assert.Equal(t, path, units["helper"].FilePath)
}

func TestExtractFile_Missing(t *testing.T) {
	e := New(nil)

	_, err := e.ExtractFile(filepath.Join(t.TempDir(), "absent.py"), nil)
	assert.Error(t, err)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
