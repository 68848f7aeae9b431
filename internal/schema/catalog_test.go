package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
sources: {
	"ta.csv": {
		index: "ulong"
		columns: {
			ca: "double"
			cb: "double"
			cc: "long"
		}
	}
	"tb.csv": {
		columns: {id: "int"}
	}
}
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog), "catalog.cue")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	decl, ok := c.Lookup("ta.csv")
	require.True(t, ok)
	assert.Equal(t, "ulong", decl.Index)
	assert.Equal(t, []string{"ca", "cb", "cc"}, decl.Order, "declaration order is kept")
	assert.Equal(t, "long", decl.Columns["cc"])

	decl, ok = c.Lookup("tb.csv")
	require.True(t, ok)
	assert.Empty(t, decl.Index)
	assert.Equal(t, "int", decl.Columns["id"])

	_, ok = c.Lookup("missing.csv")
	assert.False(t, ok)
}

func TestParseCatalogEmpty(t *testing.T) {
	c, err := ParseCatalog([]byte(`other: 1`), "catalog.cue")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	_, ok := c.Lookup("ta.csv")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `sources: {`, "expected"},
		{"non-string type", `sources: "ta.csv": columns: ca: 1`, "sources.ta.csv.columns.ca"},
		{"non-string index", `sources: "ta.csv": index: 3`, "sources.ta.csv.index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.src), "catalog.cue")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
}
