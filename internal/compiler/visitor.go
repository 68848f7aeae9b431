package compiler

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/src-d/go-vitess.v1/vt/sqlparser"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Visit walks a parsed statement and returns the raw IR: every clause is
// populated except Schema, which the compiler resolves afterwards.
//
// The walk is total over the supported subset. Every node kind without a
// mapping fails with an UNSUPPORTED_CONSTRUCT error carrying the node's
// SQL text; nothing is skipped silently. Clauses are visited in the order
// selection, FROM, WHERE, ORDER BY, LIMIT.
func Visit(stmt sqlparser.Statement) (*ir.Query, error) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return visitSelect(s)
	case *sqlparser.Union:
		return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(s), "set operations are not supported")
	default:
		return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(stmt), "only SELECT statements are supported")
	}
}

func visitSelect(s *sqlparser.Select) (*ir.Query, error) {
	if s.Distinct != "" {
		return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(s), "DISTINCT is not supported")
	}
	if len(s.GroupBy) > 0 {
		return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(s.GroupBy), "GROUP BY is not supported")
	}
	if s.Having != nil {
		return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(s.Having), "HAVING is not supported")
	}
	if s.Lock != "" {
		return nil, ir.NewUnsupportedError(ir.StageSelect, s.Lock, "locking reads are not supported")
	}

	q := &ir.Query{}
	var err error

	if q.Selection, err = visitSelectExprs(s.SelectExprs); err != nil {
		return nil, err
	}
	if err = visitFrom(q, s.From); err != nil {
		return nil, err
	}
	if s.Where != nil {
		if q.Filter, err = visitWhere(s.Where.Expr); err != nil {
			return nil, err
		}
	}
	if q.OrderBy, err = visitOrderBy(s.OrderBy); err != nil {
		return nil, err
	}
	if s.Limit != nil {
		if q.Limit, err = visitLimit(s.Limit); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// visitSelectExprs resolves each projection item to Unnamed or Aliased.
func visitSelectExprs(exprs sqlparser.SelectExprs) ([]ir.SelectItem, error) {
	items := make([]ir.SelectItem, 0, len(exprs))
	for _, se := range exprs {
		switch e := se.(type) {
		case *sqlparser.AliasedExpr:
			col, ok := e.Expr.(*sqlparser.ColName)
			if !ok {
				return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(e.Expr), "only column references can be projected")
			}
			name, err := columnName(ir.StageSelect, col)
			if err != nil {
				return nil, err
			}
			if e.As.IsEmpty() {
				items = append(items, ir.Unnamed{Column: name})
			} else {
				items = append(items, ir.Aliased{Expr: name, Alias: e.As.String()})
			}
		case *sqlparser.StarExpr:
			return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(e), "SELECT * is not supported; list the columns")
		default:
			return nil, ir.NewUnsupportedError(ir.StageSelect, sqlparser.String(se), "unsupported projection")
		}
	}
	return items, nil
}

// visitFrom resolves the primary source and the join chain.
func visitFrom(q *ir.Query, from sqlparser.TableExprs) error {
	if len(from) != 1 {
		return ir.NewUnsupportedError(ir.StageFrom, sqlparser.String(from), "comma joins are not supported; use JOIN ... USING")
	}

	switch t := from[0].(type) {
	case *sqlparser.AliasedTableExpr:
		source, err := visitTable(ir.StageFrom, t)
		if err != nil {
			return err
		}
		q.From = source
		return nil
	case *sqlparser.JoinTableExpr:
		return visitJoin(q, t)
	default:
		return ir.NewUnsupportedError(ir.StageFrom, sqlparser.String(t), "unsupported table expression")
	}
}

// visitJoin flattens a left-deep join tree. The leftmost table becomes the
// primary source; each right-hand table is appended as one join step, so
// join order matches the query text.
func visitJoin(q *ir.Query, j *sqlparser.JoinTableExpr) error {
	switch left := j.LeftExpr.(type) {
	case *sqlparser.AliasedTableExpr:
		source, err := visitTable(ir.StageFrom, left)
		if err != nil {
			return err
		}
		q.From = source
	case *sqlparser.JoinTableExpr:
		if err := visitJoin(q, left); err != nil {
			return err
		}
	default:
		return ir.NewUnsupportedError(ir.StageJoin, sqlparser.String(left), "parenthesized joins are not supported")
	}

	right, ok := j.RightExpr.(*sqlparser.AliasedTableExpr)
	if !ok {
		return ir.NewUnsupportedError(ir.StageJoin, sqlparser.String(j.RightExpr), "nested joins are not supported")
	}
	source, err := visitTable(ir.StageJoin, right)
	if err != nil {
		return err
	}

	op, err := joinOperator(j)
	if err != nil {
		return err
	}

	constraint, err := joinConstraint(j)
	if err != nil {
		return err
	}

	q.Joins = append(q.Joins, ir.Join{Source: source, Operator: op, Constraint: constraint})
	return nil
}

func joinOperator(j *sqlparser.JoinTableExpr) (ir.JoinOperator, error) {
	switch j.Join {
	case sqlparser.JoinStr:
		return ir.JoinInner, nil
	case sqlparser.LeftJoinStr:
		return ir.JoinLeft, nil
	case sqlparser.RightJoinStr:
		return ir.JoinRight, nil
	default:
		return "", ir.NewUnsupportedError(ir.StageJoin, sqlparser.String(j), "unsupported join kind: "+j.Join)
	}
}

// joinConstraint extracts the single USING column of a join.
func joinConstraint(j *sqlparser.JoinTableExpr) (string, error) {
	if j.Condition.On != nil {
		return "", ir.NewUnsupportedError(ir.StageJoin, sqlparser.String(j.Condition.On), "ON constraints are not supported; use USING (<column>)")
	}
	switch len(j.Condition.Using) {
	case 0:
		return "", ir.NewUnsupportedError(ir.StageJoin, sqlparser.String(j), "join requires a USING (<column>) constraint")
	case 1:
		return j.Condition.Using[0].String(), nil
	default:
		return "", ir.NewUnsupportedError(ir.StageJoin, sqlparser.String(j.Condition.Using), "multi-column join constraints are not supported")
	}
}

// visitTable resolves a table reference to a source identifier.
// An unquoted dotted name (FROM ta.csv) names the source "ta.csv".
func visitTable(stage string, t *sqlparser.AliasedTableExpr) (string, error) {
	if !t.As.IsEmpty() {
		return "", ir.NewUnsupportedError(stage, sqlparser.String(t), "table aliases are not supported")
	}
	if t.Hints != nil {
		return "", ir.NewUnsupportedError(stage, sqlparser.String(t), "index hints are not supported")
	}

	switch e := t.Expr.(type) {
	case sqlparser.TableName:
		if e.Name.IsEmpty() {
			return "", ir.NewResolutionError(stage, sqlparser.String(e), "empty source name")
		}
		if e.Qualifier.IsEmpty() {
			return e.Name.String(), nil
		}
		return e.Qualifier.String() + "." + e.Name.String(), nil
	case *sqlparser.Subquery:
		return "", ir.NewUnsupportedError(stage, sqlparser.String(e), "subqueries are not supported")
	default:
		return "", ir.NewUnsupportedError(stage, sqlparser.String(t), "unsupported source")
	}
}

// columnName resolves an unqualified column reference.
func columnName(stage string, col *sqlparser.ColName) (string, error) {
	if !col.Qualifier.IsEmpty() {
		return "", ir.NewResolutionError(stage, sqlparser.String(col), "qualified column references cannot be resolved; sources have no table names")
	}
	if col.Name.IsEmpty() {
		return "", ir.NewResolutionError(stage, sqlparser.String(col), "empty column name")
	}
	return col.Name.String(), nil
}

// visitWhere flattens a WHERE expression into filter tokens.
func visitWhere(expr sqlparser.Expr) (*ir.Filter, error) {
	f := &filterBuilder{seen: make(map[string]bool)}
	if err := f.flatten(expr); err != nil {
		return nil, err
	}
	return &ir.Filter{Tokens: f.tokens, Columns: f.columns}, nil
}

// filterBuilder accumulates tokens and referenced columns during a
// pre-order walk.
type filterBuilder struct {
	tokens  []string
	columns []string
	seen    map[string]bool
}

var comparisonTokens = map[string]string{
	sqlparser.EqualStr:        "==",
	sqlparser.NotEqualStr:     "!=",
	sqlparser.LessThanStr:     "<",
	sqlparser.GreaterThanStr:  ">",
	sqlparser.LessEqualStr:    "<=",
	sqlparser.GreaterEqualStr: ">=",
}

var arithmeticTokens = map[string]string{
	sqlparser.PlusStr:  "+",
	sqlparser.MinusStr: "-",
	sqlparser.MultStr:  "*",
	sqlparser.DivStr:   "/",
	sqlparser.ModStr:   "%",
}

func (f *filterBuilder) flatten(expr sqlparser.Expr) error {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		return f.binary(e.Left, "&&", e.Right)
	case *sqlparser.OrExpr:
		return f.binary(e.Left, "||", e.Right)
	case *sqlparser.ComparisonExpr:
		tok, ok := comparisonTokens[e.Operator]
		if !ok {
			return ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(e), "unsupported comparison operator: "+e.Operator)
		}
		return f.binary(e.Left, tok, e.Right)
	case *sqlparser.BinaryExpr:
		tok, ok := arithmeticTokens[e.Operator]
		if !ok {
			return ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(e), "unsupported arithmetic operator: "+e.Operator)
		}
		return f.binary(e.Left, tok, e.Right)
	case *sqlparser.NotExpr:
		f.tokens = append(f.tokens, "(", "!")
		if err := f.flatten(e.Expr); err != nil {
			return err
		}
		f.tokens = append(f.tokens, ")")
		return nil
	case *sqlparser.ParenExpr:
		// Grouping is already explicit in the tokens of binary nodes.
		return f.flatten(e.Expr)
	case *sqlparser.ColName:
		name, err := columnName(ir.StageWhere, e)
		if err != nil {
			return err
		}
		if !f.seen[name] {
			f.seen[name] = true
			f.columns = append(f.columns, name)
		}
		f.tokens = append(f.tokens, name)
		return nil
	case *sqlparser.SQLVal:
		tok, err := literalToken(e)
		if err != nil {
			return err
		}
		f.tokens = append(f.tokens, tok)
		return nil
	case *sqlparser.UnaryExpr:
		val, ok := e.Expr.(*sqlparser.SQLVal)
		if !ok || e.Operator != sqlparser.UMinusStr || (val.Type != sqlparser.IntVal && val.Type != sqlparser.FloatVal) {
			return ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(e), "unary operators apply only to numeric literals")
		}
		f.tokens = append(f.tokens, "-"+string(val.Val))
		return nil
	case sqlparser.BoolVal:
		if e {
			f.tokens = append(f.tokens, "true")
		} else {
			f.tokens = append(f.tokens, "false")
		}
		return nil
	case *sqlparser.FuncExpr:
		return ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(e), "function calls are not supported")
	case *sqlparser.Subquery:
		return ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(e), "subqueries are not supported")
	default:
		return ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(expr), "unsupported filter expression")
	}
}

// binary emits "(" left op right ")".
func (f *filterBuilder) binary(left sqlparser.Expr, op string, right sqlparser.Expr) error {
	f.tokens = append(f.tokens, "(")
	if err := f.flatten(left); err != nil {
		return err
	}
	f.tokens = append(f.tokens, op)
	if err := f.flatten(right); err != nil {
		return err
	}
	f.tokens = append(f.tokens, ")")
	return nil
}

// literalToken renders a literal as a C++ token. Numbers are emitted
// verbatim and strings become quoted string literals.
func literalToken(v *sqlparser.SQLVal) (string, error) {
	switch v.Type {
	case sqlparser.IntVal, sqlparser.FloatVal:
		return string(v.Val), nil
	case sqlparser.StrVal:
		return strconv.Quote(string(v.Val)), nil
	default:
		return "", ir.NewUnsupportedError(ir.StageWhere, sqlparser.String(v), "unsupported literal")
	}
}

// visitOrderBy resolves each ORDER BY entry to a column and direction.
func visitOrderBy(orders sqlparser.OrderBy) ([]ir.OrderBy, error) {
	var out []ir.OrderBy
	for _, o := range orders {
		col, ok := o.Expr.(*sqlparser.ColName)
		if !ok {
			return nil, ir.NewUnsupportedError(ir.StageOrderBy, sqlparser.String(o.Expr), "ORDER BY supports column references only")
		}
		name, err := columnName(ir.StageOrderBy, col)
		if err != nil {
			return nil, err
		}

		var dir ir.Direction
		switch o.Direction {
		case sqlparser.AscScr, "":
			dir = ir.Ascending
		case sqlparser.DescScr:
			dir = ir.Descending
		default:
			return nil, ir.NewUnsupportedError(ir.StageOrderBy, sqlparser.String(o), "invalid sort order: "+o.Direction)
		}
		out = append(out, ir.OrderBy{Column: name, Direction: dir})
	}
	return out, nil
}

// visitLimit resolves LIMIT to a non-negative integer literal.
func visitLimit(l *sqlparser.Limit) (string, error) {
	if l.Offset != nil {
		return "", ir.NewUnsupportedError(ir.StageLimit, sqlparser.String(l), "OFFSET is not supported")
	}

	val, ok := l.Rowcount.(*sqlparser.SQLVal)
	if !ok || val.Type != sqlparser.IntVal {
		return "", ir.NewUnsupportedError(ir.StageLimit, sqlparser.String(l), "LIMIT requires an integer literal")
	}

	// cast parses with base prefixes; a leading zero must not mean octal.
	digits := strings.TrimLeft(string(val.Val), "0")
	if digits == "" {
		digits = "0"
	}
	n, err := cast.ToInt64E(digits)
	if err != nil || n < 0 {
		return "", ir.NewUnsupportedError(ir.StageLimit, sqlparser.String(l), "LIMIT requires a non-negative integer")
	}
	return strconv.FormatInt(n, 10), nil
}
