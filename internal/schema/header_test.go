package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dfsqlc/internal/ir"
)

func TestParseHeaderLineAnnotated(t *testing.T) {
	s, err := ParseHeaderLine("INDEX:5:<ulong>,ca:5:<double>,cb:5:<double>,cc:5:<long>", "", Declaration{})
	require.NoError(t, err)

	assert.Equal(t, "ulong", s.IndexType)
	assert.Equal(t, []ir.Column{
		{Name: "ca", Type: "double"},
		{Name: "cb", Type: "double"},
		{Name: "cc", Type: "long"},
	}, s.Columns())
	assert.False(t, s.Has(ir.IndexColumn), "INDEX is lifted out of the columns")
}

func TestParseHeaderLineBareEntries(t *testing.T) {
	s, err := ParseHeaderLine("INDEX, name ,ca:5:<double>", "", Declaration{})
	require.NoError(t, err)

	assert.Equal(t, DefaultType, s.IndexType)
	typ, _ := s.Lookup("name")
	assert.Equal(t, "string", typ)
	typ, _ = s.Lookup("ca")
	assert.Equal(t, "double", typ)
}

func TestParseHeaderTypePrecedence(t *testing.T) {
	decl := Declaration{
		Index:   "ulong",
		Columns: map[string]string{"ca": "int", "cb": "float"},
	}

	s, err := ParseHeaderLine("INDEX,ca:3:<double>,cb,cc", "long", decl)
	require.NoError(t, err)

	assert.Equal(t, "ulong", s.IndexType, "catalog index beats default")
	typ, _ := s.Lookup("ca")
	assert.Equal(t, "double", typ, "header annotation beats catalog")
	typ, _ = s.Lookup("cb")
	assert.Equal(t, "float", typ, "catalog beats default")
	typ, _ = s.Lookup("cc")
	assert.Equal(t, "long", typ, "default applies last")
}

func TestParseHeaderWithoutIndex(t *testing.T) {
	s, err := ParseHeaderLine("a,b", "", Declaration{})
	require.NoError(t, err)
	assert.Empty(t, s.IndexType)

	s, err = ParseHeaderLine("a,b", "", Declaration{Index: "uint"})
	require.NoError(t, err)
	assert.Equal(t, "uint", s.IndexType)
}

func TestParseHeaderQualifiedTypes(t *testing.T) {
	s, err := ParseHeaderLine("INDEX:1:<ulong>,s:1:<std::string>", "", Declaration{})
	require.NoError(t, err)

	typ, _ := s.Lookup("s")
	assert.Equal(t, "std::string", typ)
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"empty line", "", "no header"},
		{"empty name", "a,,b", "empty column name"},
		{"empty type", "a:1:<>", "empty type"},
		{"duplicate column", "a,b,a", `duplicate column "a"`},
		{"duplicate index", "INDEX,INDEX:1:<int>", "duplicate INDEX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeaderLine(tt.line, "", Declaration{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
