package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/dfsqlc/internal/ir"
)

// DefaultType is the type tag of header entries that declare no type.
const DefaultType = "string"

var bracketStripper = strings.NewReplacer("<", "", ">", "")

// ParseHeader builds a schema from the fields of a header record.
//
// Type precedence for each entry is: the entry's own annotation, then the
// declaration in decl, then defaultType. Duplicate column names and
// entries with an empty name or type are errors.
func ParseHeader(fields []string, defaultType string, decl Declaration) (ir.Schema, error) {
	if len(fields) == 0 {
		return ir.Schema{}, fmt.Errorf("empty header")
	}
	if defaultType == "" {
		defaultType = DefaultType
	}

	var s ir.Schema
	for i, field := range fields {
		name, typ, err := parseEntry(field)
		if err != nil {
			return ir.Schema{}, fmt.Errorf("header entry %d: %w", i+1, err)
		}

		if name == ir.IndexColumn {
			if s.IndexType != "" {
				return ir.Schema{}, fmt.Errorf("header entry %d: duplicate %s column", i+1, ir.IndexColumn)
			}
			if typ == "" {
				typ = decl.Index
			}
			if typ == "" {
				typ = defaultType
			}
			s.IndexType = typ
			continue
		}

		if s.Has(name) {
			return ir.Schema{}, fmt.Errorf("header entry %d: duplicate column %q", i+1, name)
		}
		if typ == "" {
			typ = decl.Columns[name]
		}
		if typ == "" {
			typ = defaultType
		}
		s.Set(name, typ)
	}

	if s.IndexType == "" {
		s.IndexType = decl.Index
	}
	return s, nil
}

// ParseHeaderLine parses a single CSV header line.
func ParseHeaderLine(line, defaultType string, decl Declaration) (ir.Schema, error) {
	fields, err := readHeader(strings.NewReader(line))
	if err != nil {
		return ir.Schema{}, err
	}
	return ParseHeader(fields, defaultType, decl)
}

// readHeader reads the first CSV record of r.
func readHeader(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	fields, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("no header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return fields, nil
}

// parseEntry splits one header entry into a name and an optional type tag.
// "name" yields no type; "name:qualifier:<type>" yields type.
func parseEntry(field string) (name, typ string, err error) {
	parts := strings.Split(strings.TrimSpace(field), ":")
	name = strings.TrimSpace(parts[0])
	if name == "" {
		return "", "", fmt.Errorf("empty column name in %q", field)
	}
	if len(parts) < 3 {
		return name, "", nil
	}

	typ = strings.TrimSpace(bracketStripper.Replace(strings.Join(parts[2:], ":")))
	if typ == "" {
		return "", "", fmt.Errorf("empty type in %q", field)
	}
	return name, typ, nil
}
