package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaSetKeepsFirstSeenOrder(t *testing.T) {
	var s Schema
	s.Set("cc", "long")
	s.Set("ca", "double")
	s.Set("cb", "double")
	s.Set("ca", "int") // overwrite keeps position

	assert.Equal(t, []string{"cc", "ca", "cb"}, s.Names())
	assert.Equal(t, 3, s.Len())

	typ, ok := s.Lookup("ca")
	require.True(t, ok)
	assert.Equal(t, "int", typ)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
	assert.False(t, s.Has("missing"))
	assert.True(t, s.Has("cb"))
}

func TestSchemaZeroValueLookup(t *testing.T) {
	var s Schema
	_, ok := s.Lookup("anything")
	assert.False(t, ok)
	assert.Empty(t, s.Columns())
}

func TestSchemaClone(t *testing.T) {
	s := NewSchema("ulong", Column{Name: "a", Type: "double"})
	c := s.Clone()
	c.Set("b", "long")
	c.Set("a", "int")

	typ, _ := s.Lookup("a")
	assert.Equal(t, "double", typ, "clone must not share storage")
	assert.False(t, s.Has("b"))
	assert.Equal(t, "ulong", c.IndexType)
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	s := NewSchema("ulong",
		Column{Name: "z", Type: "string"},
		Column{Name: "a", Type: "double"},
	)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"index":"ulong","columns":[{"name":"z","type":"string"},{"name":"a","type":"double"}]}`, string(data))

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Columns(), back.Columns())
	assert.Equal(t, "ulong", back.IndexType)
}
