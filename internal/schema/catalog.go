package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Declaration is the catalog entry for one source.
type Declaration struct {
	// Index is the declared index type ("" if undeclared).
	Index string

	// Columns maps column names to declared type tags.
	Columns map[string]string

	// Order lists Columns in declaration order.
	Order []string
}

// Catalog holds declared column types per source, loaded from CUE:
//
//	sources: {
//	  "ta.csv": {
//	    index: "ulong"
//	    columns: {ca: "double", cb: "double", cc: "long"}
//	  }
//	}
//
// A nil *Catalog declares nothing.
type Catalog struct {
	sources map[string]Declaration
}

// CatalogError reports an invalid catalog with its source position.
type CatalogError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCatalog reads and compiles a CUE catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data, path)
}

// ParseCatalog compiles CUE catalog source. filename is used in positions.
func ParseCatalog(data []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &Catalog{sources: make(map[string]Declaration)}

	sourcesVal := v.LookupPath(cue.ParsePath("sources"))
	if !sourcesVal.Exists() {
		return c, nil
	}

	iter, err := sourcesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		source := iter.Selector().Unquoted()
		decl, err := parseDeclaration(iter.Value(), "sources."+source)
		if err != nil {
			return nil, err
		}
		c.sources[source] = decl
	}
	return c, nil
}

func parseDeclaration(v cue.Value, field string) (Declaration, error) {
	decl := Declaration{Columns: make(map[string]string)}

	indexVal := v.LookupPath(cue.ParsePath("index"))
	if indexVal.Exists() {
		index, err := indexVal.String()
		if err != nil {
			return Declaration{}, &CatalogError{Field: field + ".index", Message: "must be a string", Pos: indexVal.Pos()}
		}
		decl.Index = index
	}

	columnsVal := v.LookupPath(cue.ParsePath("columns"))
	if !columnsVal.Exists() {
		return decl, nil
	}

	iter, err := columnsVal.Fields()
	if err != nil {
		return Declaration{}, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		typ, err := iter.Value().String()
		if err != nil || typ == "" {
			return Declaration{}, &CatalogError{
				Field:   field + ".columns." + name,
				Message: "type must be a non-empty string",
				Pos:     iter.Value().Pos(),
			}
		}
		decl.Columns[name] = typ
		decl.Order = append(decl.Order, name)
	}
	return decl, nil
}

// Lookup returns the declaration for a source.
func (c *Catalog) Lookup(source string) (Declaration, bool) {
	if c == nil {
		return Declaration{}, false
	}
	decl, ok := c.sources[source]
	return decl, ok
}

// Len returns the number of declared sources.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sources)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CatalogError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
