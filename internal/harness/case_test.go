package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCase(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCase(t *testing.T) {
	c, err := LoadCase("testdata/cases/filter_example.yaml")
	require.NoError(t, err)

	assert.Equal(t, "filter_example", c.Name)
	assert.Equal(t, "SELECT cc FROM 'ta.csv' WHERE cb = 1 AND ca = 2", c.Query)
	assert.Equal(t, "INDEX:1:<string>,ca:1:<double>,cb:1:<double>,cc:1:<long>", c.Sources["ta.csv"])
	assert.Equal(t, []string{"cc"}, c.Expect.Outputs)
	assert.Equal(t, []string{"cb", "ca"}, c.Expect.FilterColumns)
}

func TestLoadCaseDefaultsNameToStem(t *testing.T) {
	path := writeCase(t, "stem_name.yaml", "query: SELECT a FROM t.csv\n")

	c, err := LoadCase(path)
	require.NoError(t, err)
	assert.Equal(t, "stem_name", c.Name)
}

func TestLoadCaseRejectsUnknownFields(t *testing.T) {
	path := writeCase(t, "typo.yaml", "query: SELECT a FROM t.csv\nexpects:\n  outputs: [a]\n")

	_, err := LoadCase(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadCaseMissingFile(t *testing.T) {
	_, err := LoadCase(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read case file")
}

func TestLoadCaseValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing query",
			content: "name: x\n",
			wantErr: "query is required",
		},
		{
			name:    "empty header",
			content: "query: SELECT a FROM t.csv\nsources:\n  t.csv: \"  \"\n",
			wantErr: "sources[t.csv]: header is required",
		},
		{
			name:    "unknown error code",
			content: "query: SELECT a FROM t.csv\nexpect:\n  error: NOPE\n",
			wantErr: `unknown error code "NOPE"`,
		},
		{
			name:    "error with success expectations",
			content: "query: SELECT a FROM t.csv\nexpect:\n  error: PARSE_ERROR\n  outputs: [a]\n",
			wantErr: "error cases cannot carry success expectations",
		},
		{
			name:    "stage without error",
			content: "query: SELECT a FROM t.csv\nexpect:\n  stage: select\n",
			wantErr: "column and stage require error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCase(t, "case.yaml", tt.content)
			_, err := LoadCase(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid case")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
