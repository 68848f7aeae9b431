package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dfsqlc/internal/codegen"
)

func TestRunCases(t *testing.T) {
	files, err := filepath.Glob("testdata/cases/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		c, err := LoadCase(file)
		require.NoError(t, err, file)

		t.Run(c.Name, func(t *testing.T) {
			result, err := Run(c)
			require.NoError(t, err)
			assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
		})
	}
}

func TestRunRecordsCompileError(t *testing.T) {
	c := &Case{
		Name:    "star",
		Query:   "SELECT * FROM 'ta.csv'",
		Sources: filterSources,
	}

	result, err := Run(c)
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.Nil(t, result.Query)
	assert.Empty(t, result.Code)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 1)
}

func TestRunUnknownSource(t *testing.T) {
	c := &Case{
		Name:    "missing",
		Query:   "SELECT a FROM 'nowhere.csv'",
		Sources: filterSources,
		Expect:  Expect{Error: "SCHEMA_RESOLUTION"},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
}

func TestRunWithOptions(t *testing.T) {
	opts := codegen.DefaultOptions()
	opts.Precision = 4

	c := &Case{
		Name:    "precision",
		Query:   "SELECT cc FROM 'ta.csv'",
		Sources: filterSources,
		Expect:  Expect{Contains: []string{"io_format::csv, 4, false"}},
	}

	result, err := RunWithOptions(c, opts)
	require.NoError(t, err)
	assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
}

func TestRunWithInvalidOptions(t *testing.T) {
	opts := codegen.DefaultOptions()
	opts.Precision = -1

	_, err := RunWithOptions(&Case{Name: "x", Query: "SELECT a FROM t.csv"}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codegen options")
}
