package ir

import "encoding/json"

// Column is one named, typed schema entry.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema maps column names to type tags and carries the row index type.
//
// Type tags use the target library's spelling ("double", "long", "string",
// "ulong"); rendering them as C++ types is the code generator's job.
// Columns keep the order in which they were first set so that everything
// derived from a Schema is reproducible.
//
// Copies of a Schema share storage. Use Clone before mutating a schema
// that is referenced elsewhere.
type Schema struct {
	// IndexType is the type tag of the reserved INDEX column.
	IndexType string

	order []string
	types map[string]string
}

// NewSchema returns an empty schema with the given index type.
func NewSchema(indexType string, columns ...Column) Schema {
	s := Schema{IndexType: indexType}
	for _, c := range columns {
		s.Set(c.Name, c.Type)
	}
	return s
}

// Set adds a column or overwrites the type of an existing one.
// Overwriting keeps the column's original position.
func (s *Schema) Set(name, typ string) {
	if s.types == nil {
		s.types = make(map[string]string)
	}
	if _, ok := s.types[name]; !ok {
		s.order = append(s.order, name)
	}
	s.types[name] = typ
}

// Lookup returns the type tag of a column.
func (s Schema) Lookup(name string) (string, bool) {
	typ, ok := s.types[name]
	return typ, ok
}

// Has reports whether the schema contains a column.
func (s Schema) Has(name string) bool {
	_, ok := s.types[name]
	return ok
}

// Len returns the number of columns, excluding the index.
func (s Schema) Len() int {
	return len(s.order)
}

// Names returns the column names in first-seen order.
func (s Schema) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Columns returns the columns in first-seen order.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.order))
	for i, name := range s.order {
		out[i] = Column{Name: name, Type: s.types[name]}
	}
	return out
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	return NewSchema(s.IndexType, s.Columns()...)
}

type schemaJSON struct {
	Index   string   `json:"index"`
	Columns []Column `json:"columns"`
}

// MarshalJSON renders the schema with its columns in order.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(schemaJSON{Index: s.IndexType, Columns: s.Columns()})
}

// UnmarshalJSON restores a schema rendered by MarshalJSON.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSchema(raw.Index, raw.Columns...)
	return nil
}
