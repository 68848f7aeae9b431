package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dfsqlc/internal/ir"
)

func TestSchemaCommandText(t *testing.T) {
	dir := queryDir(t)
	source := filepath.Join(dir, "ta.csv")

	stdout, _, err := execute(t, "schema", source)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Source: "+source)
	assert.Contains(t, stdout, "INDEX")
	assert.Contains(t, stdout, "double")
	assert.Contains(t, stdout, "cc")
}

func TestSchemaCommandJSON(t *testing.T) {
	dir := queryDir(t)

	stdout, _, err := execute(t, "--format", "json", "schema", filepath.Join(dir, "tb.csv"))
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   SchemaResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)

	want := ir.NewSchema("string", ir.Column{Name: "ca", Type: "double"}, ir.Column{Name: "cd", Type: "int"})
	assert.Equal(t, want.IndexType, resp.Data.Schema.IndexType)
	assert.Equal(t, want.Columns(), resp.Data.Schema.Columns())
	assert.Equal(t, ir.SchemaFingerprint(want), resp.Data.Fingerprint)
}

func TestSchemaCommandMissingSource(t *testing.T) {
	_, _, err := execute(t, "schema", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, ir.IsSchemaResolution(err))
}
