package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Case defines a conformance case: one query compiled against inline
// source headers, with expectations on the result.
type Case struct {
	// Name uniquely identifies this case. Defaults to the file stem.
	Name string `yaml:"name"`

	// Description explains what this case validates.
	Description string `yaml:"description"`

	// Query is the SQL text to compile.
	Query string `yaml:"query"`

	// Sources maps source identifiers to their CSV header lines.
	Sources map[string]string `yaml:"sources"`

	// DefaultType types header entries without an annotation.
	// Empty means the resolver's default.
	DefaultType string `yaml:"default_type,omitempty"`

	// Expect holds the expectations. Every set field is checked.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected compile outcome.
type Expect struct {
	// Error is the expected error code (e.g., "UNSUPPORTED_CONSTRUCT").
	// When set, compilation must fail with this code and the remaining
	// error fields are checked against the error.
	Error string `yaml:"error,omitempty"`

	// Column is the expected offending column of the error.
	Column string `yaml:"column,omitempty"`

	// Stage is the expected stage of the error.
	Stage string `yaml:"stage,omitempty"`

	// From is the expected primary source.
	From string `yaml:"from,omitempty"`

	// Joins lists the expected join steps as "operator source constraint".
	Joins []string `yaml:"joins,omitempty"`

	// Outputs lists the expected output column names, in order.
	Outputs []string `yaml:"outputs,omitempty"`

	// Filter is the expected rendered predicate.
	Filter string `yaml:"filter,omitempty"`

	// FilterColumns lists the expected predicate parameters, in order.
	FilterColumns []string `yaml:"filter_columns,omitempty"`

	// Types maps column names to their expected type tags in the final
	// schema.
	Types map[string]string `yaml:"types,omitempty"`

	// Contains lists fragments the generated code must contain.
	Contains []string `yaml:"contains,omitempty"`

	// NotContains lists fragments the generated code must not contain.
	NotContains []string `yaml:"not_contains,omitempty"`
}

// LoadCase reads and parses a case YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var c Case
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}

	return &c, nil
}

// validateCase checks that required fields are present and valid.
func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("query is required")
	}
	for source, header := range c.Sources {
		if strings.TrimSpace(header) == "" {
			return fmt.Errorf("sources[%s]: header is required", source)
		}
	}

	e := c.Expect
	if e.Error != "" {
		switch ir.ErrorCode(e.Error) {
		case ir.ErrCodeParse, ir.ErrCodeResolution, ir.ErrCodeSchemaResolution,
			ir.ErrCodeUnsupported, ir.ErrCodeCodeGenInvariant:
		default:
			return fmt.Errorf("expect.error: unknown error code %q", e.Error)
		}
		if e.From != "" || len(e.Joins) > 0 || len(e.Outputs) > 0 || e.Filter != "" ||
			len(e.FilterColumns) > 0 || len(e.Types) > 0 || len(e.Contains) > 0 || len(e.NotContains) > 0 {
			return fmt.Errorf("expect: error cases cannot carry success expectations")
		}
	} else if e.Column != "" || e.Stage != "" {
		return fmt.Errorf("expect: column and stage require error")
	}

	return nil
}
