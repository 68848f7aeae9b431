package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/dfsqlc/internal/codegen"
	"github.com/roach88/dfsqlc/internal/ir"
	"github.com/roach88/dfsqlc/internal/parse"
	"github.com/roach88/dfsqlc/internal/schema"
)

// Compiler runs the full pipeline: parse, visit, resolve schemas, validate
// and generate.
type Compiler struct {
	resolver schema.Resolver
	opts     codegen.Options
}

// New returns a Compiler that resolves sources with resolver and
// generates code with opts.
func New(resolver schema.Resolver, opts codegen.Options) *Compiler {
	return &Compiler{resolver: resolver, opts: opts}
}

// Result is one compiled query.
type Result struct {
	Query *ir.Query
	Code  string
}

// Compile translates query text into a C++ program.
// On failure no code is returned.
func (c *Compiler) Compile(ctx context.Context, text string) (*Result, error) {
	q, err := c.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}

	code, err := codegen.Generate(q, c.opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("generated program", "from", q.From, "bytes", len(code))
	return &Result{Query: q, Code: code}, nil
}

// Analyze runs every stage up to code generation and returns the finished
// IR with its merged, alias-extended schema.
func (c *Compiler) Analyze(ctx context.Context, text string) (*ir.Query, error) {
	stmt, err := parse.Parse(text)
	if err != nil {
		return nil, ir.NewParseError(err)
	}

	q, err := Visit(stmt)
	if err != nil {
		return nil, err
	}
	slog.Debug("visited query", "from", q.From, "joins", len(q.Joins), "selection", len(q.Selection))

	sources, err := c.resolveSources(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := Validate(q, sources); err != nil {
		return nil, err
	}
	slog.Debug("resolved query schema", "from", q.From, "columns", q.Schema.Len())
	return q, nil
}

// resolveSources resolves the schema of every source, primary first.
func (c *Compiler) resolveSources(ctx context.Context, q *ir.Query) ([]ir.Schema, error) {
	if c.resolver == nil {
		return nil, ir.NewSourceError(q.From, fmt.Errorf("no schema resolver configured"))
	}

	names := q.Sources()
	schemas := make([]ir.Schema, len(names))
	for i, name := range names {
		s, err := c.resolver.Resolve(ctx, name)
		if err != nil {
			var irErr *ir.Error
			if !errors.As(err, &irErr) {
				err = ir.NewSourceError(name, err)
			}
			return nil, err
		}
		schemas[i] = s
	}
	return schemas, nil
}

// Validate checks a visited query against its source schemas, primary
// first then one per join, and sets q.Schema to the merged schema
// extended with every alias.
//
// Checks run in this order: index presence, join constraints, selection
// columns, filter columns, alias collisions, duplicate outputs, ORDER BY
// columns.
func Validate(q *ir.Query, sources []ir.Schema) error {
	if len(sources) != 1+len(q.Joins) {
		return fmt.Errorf("expected %d source schemas, got %d", 1+len(q.Joins), len(sources))
	}
	if sources[0].IndexType == "" {
		return &ir.Error{
			Code:    ir.ErrCodeSchemaResolution,
			Message: "source has no INDEX column",
			Source:  q.From,
			Stage:   ir.StageSchema,
		}
	}

	// Each join constraint must exist on both sides.
	acc := schema.Merge(sources[0])
	for i, j := range q.Joins {
		if !acc.Has(j.Constraint) {
			return ir.NewUnknownColumnError(ir.StageJoin, j.Constraint)
		}
		right := sources[i+1]
		if !right.Has(j.Constraint) {
			err := ir.NewUnknownColumnError(ir.StageJoin, j.Constraint)
			err.Source = j.Source
			return err
		}
		acc = schema.Merge(acc, right)
	}
	merged := acc

	for _, item := range q.Selection {
		if !merged.Has(item.SourceColumn()) {
			return ir.NewUnknownColumnError(ir.StageSelect, item.SourceColumn())
		}
	}

	if q.Filter != nil {
		// hmdf selects rows through at least one column.
		if len(q.Filter.Columns) == 0 {
			return ir.NewUnsupportedError(ir.StageWhere, q.Filter.Render(), "filter references no column")
		}
		for _, col := range q.Filter.Columns {
			if !merged.Has(col) {
				return ir.NewUnknownColumnError(ir.StageWhere, col)
			}
			if !codegen.ValidParameterName(col) {
				err := ir.NewUnsupportedError(ir.StageWhere, col, "filter column is not a valid predicate parameter name")
				err.Column = col
				return err
			}
		}
	}

	outputs := make(map[string]bool, len(q.Selection))
	for _, item := range q.Selection {
		name := item.OutputName()
		if a, ok := item.(ir.Aliased); ok && a.Alias != a.Expr && merged.Has(a.Alias) {
			err := ir.NewUnsupportedError(ir.StageSelect, a.Expr+" AS "+a.Alias, "alias shadows a source column")
			err.Column = a.Alias
			return err
		}
		if name == ir.IndexColumn {
			err := ir.NewUnsupportedError(ir.StageSelect, name, "INDEX is loaded as the row index and cannot be projected")
			err.Column = name
			return err
		}
		if outputs[name] {
			err := ir.NewUnsupportedError(ir.StageSelect, name, "duplicate output column")
			err.Column = name
			return err
		}
		outputs[name] = true
	}

	extended := merged.Clone()
	if err := schema.ExtendAliases(&extended, q.Selection); err != nil {
		return err
	}

	for _, o := range q.OrderBy {
		if !extended.Has(o.Column) {
			return ir.NewUnknownColumnError(ir.StageOrderBy, o.Column)
		}
		if !outputs[o.Column] {
			err := ir.NewUnsupportedError(ir.StageOrderBy, o.Column, "ORDER BY column must be projected")
			err.Column = o.Column
			return err
		}
	}

	q.Schema = extended
	return nil
}
