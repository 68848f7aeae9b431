package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommandWritesProgram(t *testing.T) {
	dir := queryDir(t)

	stdout, stderr, err := execute(t, "compile", filepath.Join(dir, "filter.sql"))
	require.NoError(t, err)
	assert.Empty(t, stderr)

	want, err := os.ReadFile("../codegen/testdata/golden/filter.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), stdout)
}

func TestCompileCommandOutputFile(t *testing.T) {
	dir := queryDir(t)
	out := filepath.Join(dir, "filter.cpp")

	stdout, stderr, err := execute(t, "compile", filepath.Join(dir, "filter.sql"), "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "✓ Compiled")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `df_main.read("ta.csv", io_format::csv2);`)
}

func TestCompileCommandJSON(t *testing.T) {
	dir := queryDir(t)

	stdout, _, err := execute(t, "--format", "json", "compile", filepath.Join(dir, "join.sql"))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Contains(t, resp.Data.Code, "hmdf::join_policy::left_join")
}

func TestCompileCommandCompileError(t *testing.T) {
	dir := queryDir(t)

	stdout, stderr, err := execute(t, "compile", filepath.Join(dir, "unknown.sql"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	// No partial output on failure
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "SCHEMA_RESOLUTION")
	assert.Contains(t, stderr, "column: zz")
}

func TestCompileCommandErrorLeavesNoOutputFile(t *testing.T) {
	dir := queryDir(t)
	out := filepath.Join(dir, "star.cpp")

	_, stderr, err := execute(t, "compile", filepath.Join(dir, "star.sql"), "-o", out)
	require.Error(t, err)
	assert.Contains(t, stderr, "UNSUPPORTED_CONSTRUCT")
	assert.NoFileExists(t, out)
}

func TestCompileCommandUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sql")

	stdout, stderr, err := execute(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, path)
}

func TestCompileCommandConfig(t *testing.T) {
	dir := queryDir(t)
	cfgPath := filepath.Join(dir, "dfsqlc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("codegen:\n  precision: 9\n  max_records: 100\n"), 0o644))

	stdout, _, err := execute(t, "--config", cfgPath, "compile", filepath.Join(dir, "filter.sql"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "io_format::csv, 9, false, 100);")
}

func TestCompileCommandMissingConfig(t *testing.T) {
	dir := queryDir(t)

	_, stderr, err := execute(t, "--config", filepath.Join(dir, "absent.yaml"), "compile", filepath.Join(dir, "filter.sql"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "E004")
}
