package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/dfsqlc/internal/codegen"
	"github.com/roach88/dfsqlc/internal/compiler"
	"github.com/roach88/dfsqlc/internal/schema"
)

// Run compiles a case with default code generator options and evaluates
// its expectations.
func Run(c *Case) (*Result, error) {
	return RunWithOptions(c, codegen.DefaultOptions())
}

// RunWithOptions compiles a case and evaluates its expectations.
//
// Sources resolve only from the case's inline headers, so a case never
// touches the file system. A compile error is part of the result, not a
// Run error; the returned error is reserved for cases that cannot be run.
func RunWithOptions(c *Case, opts codegen.Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("codegen options: %w", err)
	}

	resolver := &schema.Headers{
		Lines:       c.Sources,
		DefaultType: c.DefaultType,
	}
	comp := compiler.New(resolver, opts)

	result := NewResult()
	compiled, err := comp.Compile(context.Background(), c.Query)
	if err != nil {
		result.Err = err
	} else {
		result.Query = compiled.Query
		result.Code = compiled.Code
	}

	for _, msg := range EvaluateExpect(result, c.Expect) {
		result.AddError(msg)
	}

	slog.Debug("case evaluated", "case", c.Name, "pass", result.Pass)
	return result, nil
}
