package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Generator renders queries with fixed Options.
type Generator struct {
	opts  Options
	types TypeMap
}

// New returns a Generator for opts.
func New(opts Options) *Generator {
	return &Generator{opts: opts, types: NewTypeMap(opts.Types)}
}

// Generate renders q with opts. See Generator.Generate.
func Generate(q *ir.Query, opts Options) (string, error) {
	return New(opts).Generate(q)
}

// Generate renders q as a complete C++ program.
//
// Every column the program touches must have a type in q.Schema; a miss
// aborts with a CODEGEN_INVARIANT error naming the column and the stage,
// and no text is returned.
func (g *Generator) Generate(q *ir.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("cannot generate nil query")
	}
	if err := g.opts.Validate(); err != nil {
		return "", fmt.Errorf("codegen options: %w", err)
	}
	if q.Schema.IndexType == "" {
		return "", ir.NewCodeGenInvariantError(ir.StageLoad, ir.IndexColumn)
	}

	e := &emitter{}
	stages := []func(*emitter, *ir.Query) error{
		g.emitHeader,
		g.emitLoad,
		g.emitJoin,
		g.emitFilter,
		g.emitProject,
		g.emitSort,
		g.emitLimit,
		g.emitWrite,
	}
	for _, stage := range stages {
		if err := stage(e, q); err != nil {
			return "", err
		}
	}
	return e.String(), nil
}

// emitter accumulates lines of source text.
type emitter struct {
	b strings.Builder
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.b, format, args...)
	e.b.WriteByte('\n')
}

// stmt writes one statement inside main.
func (e *emitter) stmt(format string, args ...any) {
	e.b.WriteString("    ")
	e.line(format, args...)
}

func (e *emitter) blank() {
	e.b.WriteByte('\n')
}

func (e *emitter) String() string {
	return e.b.String()
}

// lookup returns the C++ type of a column or a CODEGEN_INVARIANT error.
func (g *Generator) lookup(q *ir.Query, stage, column string) (string, error) {
	tag, ok := q.Schema.Lookup(column)
	if !ok {
		return "", ir.NewCodeGenInvariantError(stage, column)
	}
	return g.types.Render(tag), nil
}

// schemaTypes is the distinct-type list of the merged schema: the index
// type, then every column type in first-seen order.
func (g *Generator) schemaTypes(q *ir.Query) []string {
	tags := []string{q.Schema.IndexType}
	for _, c := range q.Schema.Columns() {
		tags = append(tags, c.Type)
	}
	return g.types.distinct(tags)
}

// projectionTypes is the distinct-type list of the projected columns.
func (g *Generator) projectionTypes(q *ir.Query, stage string) ([]string, error) {
	tags := make([]string, 0, len(q.Selection))
	for _, item := range q.Selection {
		tag, ok := q.Schema.Lookup(item.OutputName())
		if !ok {
			return nil, ir.NewCodeGenInvariantError(stage, item.OutputName())
		}
		tags = append(tags, tag)
	}
	return g.types.distinct(tags), nil
}

func (g *Generator) emitHeader(e *emitter, q *ir.Query) error {
	e.line("// Code generated by dfsqlc %s. DO NOT EDIT.", ir.CompilerVersion)
	e.blank()
	e.line("#include <%s>", g.opts.Include)
	e.blank()
	e.line("#include <iostream>")
	e.line("#include <limits>")
	e.line("#include <string>")
	e.line("#include <utility>")
	e.line("#include <vector>")
	e.blank()
	e.line("using namespace hmdf;")
	e.blank()
	e.line("typedef %s idx_t;", g.types.Render(q.Schema.IndexType))
	e.line("using SqlcDataFrame = StdDataFrame<idx_t>;")
	e.blank()
	e.line("int main(int, char *[]) {")
	return nil
}

// emitLoad reads the primary source, then each joined source in order.
func (g *Generator) emitLoad(e *emitter, q *ir.Query) error {
	e.stmt("SqlcDataFrame df_main;")
	e.stmt("df_main.read(%s, io_format::%s);", strconv.Quote(q.From), g.opts.ReadFormat)
	for i, j := range q.Joins {
		e.stmt("SqlcDataFrame df_join%d;", i)
		e.stmt("df_join%d.read(%s, io_format::%s);", i, strconv.Quote(j.Source), g.opts.ReadFormat)
	}
	e.blank()
	return nil
}

// emitJoin folds the primary source through every join, left to right.
func (g *Generator) emitJoin(e *emitter, q *ir.Query) error {
	if len(q.Joins) == 0 {
		e.stmt("SqlcDataFrame df = df_main;")
		e.blank()
		return nil
	}

	all := strings.Join(g.schemaTypes(q), ", ")
	e.stmt("SqlcDataFrame df = df_main")
	for i, j := range q.Joins {
		if !j.Operator.Valid() {
			return &ir.Error{
				Code:    ir.ErrCodeCodeGenInvariant,
				Message: "join operator has no hmdf join policy",
				Source:  j.Source,
				Stage:   ir.StageJoin,
				Node:    string(j.Operator),
			}
		}
		constraintType, err := g.lookup(q, ir.StageJoin, j.Constraint)
		if err != nil {
			return err
		}
		terminator := ""
		if i == len(q.Joins)-1 {
			terminator = ";"
		}
		e.stmt("    .join_by_column<decltype(df_join%d), %s, %s>(df_join%d, %s, hmdf::join_policy::%s)%s",
			i, constraintType, all, i, strconv.Quote(j.Constraint), j.Operator.Policy(), terminator)
	}
	e.blank()
	return nil
}

// emitFilter emits the WHERE predicate over the filter columns and the
// selection that applies it.
func (g *Generator) emitFilter(e *emitter, q *ir.Query) error {
	if q.Filter == nil {
		e.stmt("auto where_df = df;")
		e.blank()
		return nil
	}

	params := []string{"const idx_t &"}
	selTypes := make([]string, 0, len(q.Filter.Columns))
	selNames := make([]string, 0, len(q.Filter.Columns))
	for _, col := range q.Filter.Columns {
		typ, err := g.lookup(q, ir.StageFilter, col)
		if err != nil {
			return err
		}
		params = append(params, fmt.Sprintf("const %s &%s", typ, col))
		selTypes = append(selTypes, typ)
		selNames = append(selNames, strconv.Quote(col))
	}

	e.stmt("auto where_functor = [](%s) -> bool {", strings.Join(params, ", "))
	e.stmt("    return %s;", q.Filter.Render())
	e.stmt("};")

	typeArgs := append(selTypes, "decltype(where_functor)")
	typeArgs = append(typeArgs, g.schemaTypes(q)...)
	callArgs := append(selNames, "where_functor")
	e.stmt("auto where_df = df.get_data_by_sel<%s>(%s);", strings.Join(typeArgs, ", "), strings.Join(callArgs, ", "))
	e.blank()
	return nil
}

// emitProject extracts each selected column and loads it under its
// effective name into a frame indexed like the filtered one.
func (g *Generator) emitProject(e *emitter, q *ir.Query) error {
	types := make([]string, len(q.Selection))
	for i, item := range q.Selection {
		typ, err := g.lookup(q, ir.StageProject, item.SourceColumn())
		if err != nil {
			return err
		}
		types[i] = typ
	}

	e.stmt("std::vector<idx_t> idx = where_df.get_index();")
	for i, item := range q.Selection {
		e.stmt("std::vector<%s> col_%d = where_df.get_column<%s>(%s);",
			types[i], i, types[i], strconv.Quote(item.SourceColumn()))
	}
	e.stmt("SqlcDataFrame select;")
	e.stmt("select.load_index(std::move(idx));")
	for i, item := range q.Selection {
		e.stmt("select.load_column(%s, std::move(col_%d));", strconv.Quote(item.OutputName()), i)
	}
	e.blank()
	return nil
}

// emitSort sorts the projected frame. Nothing is emitted without ORDER BY.
func (g *Generator) emitSort(e *emitter, q *ir.Query) error {
	if len(q.OrderBy) == 0 {
		return nil
	}

	var typeArgs, callArgs []string
	for _, o := range q.OrderBy {
		typ, err := g.lookup(q, ir.StageSort, o.Column)
		if err != nil {
			return err
		}
		typeArgs = append(typeArgs, typ)
		callArgs = append(callArgs, strconv.Quote(o.Column), "sort_spec::"+o.Direction.SortSpec())
	}
	typeArgs = append(typeArgs, g.schemaTypes(q)...)

	e.stmt("select.sort<%s>(%s);", strings.Join(typeArgs, ", "), strings.Join(callArgs, ", "))
	e.blank()
	return nil
}

// emitLimit keeps the Limit rows with the largest INDEX values
// (get_top_n_data on the index column), or passes the frame through.
// The selection is by index value, not by position after ORDER BY.
func (g *Generator) emitLimit(e *emitter, q *ir.Query) error {
	if !q.HasLimit() {
		e.stmt("auto limited = select;")
		e.blank()
		return nil
	}

	types, err := g.projectionTypes(q, ir.StageLimit)
	if err != nil {
		return err
	}
	typeArgs := append([]string{"idx_t"}, types...)
	e.stmt("auto limited = select.get_top_n_data<%s>(%s, %s);",
		strings.Join(typeArgs, ", "), strconv.Quote(ir.IndexColumn), q.Limit)
	e.blank()
	return nil
}

// emitWrite writes the result as CSV to standard output.
func (g *Generator) emitWrite(e *emitter, q *ir.Query) error {
	types, err := g.projectionTypes(q, ir.StageWrite)
	if err != nil {
		return err
	}

	maxRecords := "std::numeric_limits<long>::max()"
	if g.opts.MaxRecords > 0 {
		maxRecords = strconv.Itoa(g.opts.MaxRecords)
	}

	typeArgs := append([]string{"std::ostream"}, types...)
	e.stmt("limited.write<%s>(std::cout, io_format::csv, %d, false, %s);",
		strings.Join(typeArgs, ", "), g.opts.Precision, maxRecords)
	e.stmt("return 0;")
	e.line("}")
	return nil
}
