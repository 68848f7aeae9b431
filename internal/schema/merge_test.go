package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dfsqlc/internal/ir"
)

func TestMerge(t *testing.T) {
	primary := ir.NewSchema("ulong",
		ir.Column{Name: "id", Type: "int"},
		ir.Column{Name: "ca", Type: "double"},
	)
	joined := ir.NewSchema("string",
		ir.Column{Name: "id", Type: "long"},
		ir.Column{Name: "cb", Type: "double"},
	)

	merged := Merge(primary, joined)

	assert.Equal(t, "ulong", merged.IndexType, "primary source owns the index")
	assert.Equal(t, []ir.Column{
		{Name: "id", Type: "long"}, // later source overwrites, position kept
		{Name: "ca", Type: "double"},
		{Name: "cb", Type: "double"},
	}, merged.Columns())

	typ, _ := primary.Lookup("id")
	assert.Equal(t, "int", typ, "inputs are not modified")
}

func TestMergeEmpty(t *testing.T) {
	merged := Merge()
	assert.Equal(t, 0, merged.Len())
	assert.Empty(t, merged.IndexType)
}

func TestExtendAliases(t *testing.T) {
	s := ir.NewSchema("string",
		ir.Column{Name: "ca", Type: "double"},
		ir.Column{Name: "cc", Type: "long"},
	)
	selection := []ir.SelectItem{
		ir.Unnamed{Column: "cc"},
		ir.Aliased{Expr: "ca", Alias: "x"},
	}

	require.NoError(t, ExtendAliases(&s, selection))

	typ, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "double", typ, "alias takes the type of its column")
}

func TestExtendAliasesUnknownColumn(t *testing.T) {
	s := ir.NewSchema("string", ir.Column{Name: "ca", Type: "double"})

	err := ExtendAliases(&s, []ir.SelectItem{ir.Aliased{Expr: "nope", Alias: "x"}})
	require.Error(t, err)
	assert.True(t, ir.IsSchemaResolution(err))
	assert.Contains(t, err.Error(), "column=nope")
}

func TestOutput(t *testing.T) {
	q := &ir.Query{
		Selection: []ir.SelectItem{
			ir.Aliased{Expr: "ca", Alias: "x"},
			ir.Unnamed{Column: "cc"},
		},
		Schema: ir.NewSchema("ulong",
			ir.Column{Name: "ca", Type: "double"},
			ir.Column{Name: "cc", Type: "long"},
			ir.Column{Name: "x", Type: "double"},
		),
	}

	out, err := Output(q)
	require.NoError(t, err)
	assert.Equal(t, "ulong", out.IndexType)
	assert.Equal(t, []ir.Column{
		{Name: "x", Type: "double"},
		{Name: "cc", Type: "long"},
	}, out.Columns())
}
