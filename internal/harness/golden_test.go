package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenFilterExample(t *testing.T) {
	c, err := LoadCase("testdata/cases/filter_example.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
}

func TestGoldenErrorSnapshot(t *testing.T) {
	c, err := LoadCase("testdata/cases/unknown_column.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
}

func TestSnapshotError(t *testing.T) {
	result, err := Run(&Case{Name: "star", Query: "SELECT * FROM 'ta.csv'", Sources: filterSources})
	require.NoError(t, err)

	data, err := Snapshot(result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"code":"UNSUPPORTED_CONSTRUCT","message":"UNSUPPORTED_CONSTRUCT: SELECT * is not supported; list the columns (stage=select, node=\"*\")","stage":"select"}`+"\n",
		string(data))
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("cases", "golden", "join.golden"),
		GoldenPath(filepath.Join("cases", "join.yaml")))
}

func TestUpdateAndCompareGolden(t *testing.T) {
	result := compiled(t, "SELECT cc FROM 'ta.csv' WHERE cb = 1")
	path := filepath.Join(t.TempDir(), "golden", "case.golden")

	require.NoError(t, UpdateGolden(path, result))

	same, err := CompareGolden(path, result)
	require.NoError(t, err)
	assert.True(t, same)

	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))
	same, err = CompareGolden(path, result)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestCompareGoldenMissingFile(t *testing.T) {
	_, err := CompareGolden(filepath.Join(t.TempDir(), "absent.golden"), NewResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read golden file")
}
