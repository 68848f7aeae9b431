package ir

import (
	"encoding/json"
	"strings"
)

// IndexColumn is the reserved header entry naming the row index.
// Sources declare it like any other column; resolvers lift it into
// Schema.IndexType and generated code refers to it by this name.
const IndexColumn = "INDEX"

// Query is the finished intermediate representation of one SELECT statement.
//
// Semantics:
//
//	SELECT <selection> FROM <from> [JOIN <joins>...]
//	[WHERE <filter>] [ORDER BY <order_by>] [LIMIT <limit>]
//
// Example:
//
//	Query{
//	  From:      "ta.csv",
//	  Selection: []SelectItem{Unnamed{Column: "cc"}},
//	  Filter: &Filter{
//	    Tokens:  []string{"(", "(", "cb", "==", "1", ")", "&&", "(", "ca", "==", "2", ")", ")"},
//	    Columns: []string{"cb", "ca"},
//	  },
//	}
//
// A Query is never mutated once code generation starts.
type Query struct {
	From      string       `json:"from"`
	Joins     []Join       `json:"joins"`
	Selection []SelectItem `json:"selection"`
	Filter    *Filter      `json:"filter,omitempty"` // nil = no WHERE clause
	OrderBy   []OrderBy    `json:"order_by"`
	Limit     string       `json:"limit,omitempty"` // "" = no LIMIT clause
	Schema    Schema       `json:"schema"`
}

// Sources returns every source the query reads: the primary source first,
// then each joined source in join order.
func (q *Query) Sources() []string {
	sources := make([]string, 0, 1+len(q.Joins))
	sources = append(sources, q.From)
	for _, j := range q.Joins {
		sources = append(sources, j.Source)
	}
	return sources
}

// HasLimit reports whether the query carries a LIMIT clause.
func (q *Query) HasLimit() bool {
	return q.Limit != ""
}

// OutputColumns returns the effective names of the projection, in order.
func (q *Query) OutputColumns() []string {
	names := make([]string, len(q.Selection))
	for i, item := range q.Selection {
		names[i] = item.OutputName()
	}
	return names
}

// JoinOperator is the kind of a join step.
type JoinOperator string

const (
	JoinInner JoinOperator = "inner"
	JoinLeft  JoinOperator = "left"
	JoinRight JoinOperator = "right"
)

// Policy returns the hmdf join_policy enumerator for the operator.
func (op JoinOperator) Policy() string {
	return string(op) + "_join"
}

// Valid reports whether op is one of the supported operators.
func (op JoinOperator) Valid() bool {
	switch op {
	case JoinInner, JoinLeft, JoinRight:
		return true
	}
	return false
}

// Join is one JOIN ... USING (<column>) step.
// Only single-column equality constraints are modeled.
type Join struct {
	Source     string       `json:"source"`
	Operator   JoinOperator `json:"operator"`
	Constraint string       `json:"constraint"`
}

// SelectItem is one projection entry.
//
// This is a sealed interface - only Unnamed and Aliased implement it.
// Backends switch exhaustively on the concrete type.
type SelectItem interface {
	selectItem() // Marker method - seals interface to this package

	// SourceColumn is the column the item reads.
	SourceColumn() string

	// OutputName is the name the item is loaded under in the result.
	OutputName() string
}

// Unnamed is a bare column reference.
type Unnamed struct {
	Column string
}

func (Unnamed) selectItem() {}

func (u Unnamed) SourceColumn() string { return u.Column }
func (u Unnamed) OutputName() string   { return u.Column }

// MarshalJSON renders the item with an explicit kind tag.
func (u Unnamed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string `json:"kind"`
		Column string `json:"column"`
	}{"unnamed", u.Column})
}

// Aliased binds Alias to an expression. The expression is limited to a
// bare column reference.
type Aliased struct {
	Expr  string
	Alias string
}

func (Aliased) selectItem() {}

func (a Aliased) SourceColumn() string { return a.Expr }
func (a Aliased) OutputName() string   { return a.Alias }

// MarshalJSON renders the item with an explicit kind tag.
func (a Aliased) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Expr  string `json:"expr"`
		Alias string `json:"alias"`
	}{"aliased", a.Expr, a.Alias})
}

// Filter is a WHERE clause flattened into target-language tokens.
//
// Tokens come from a pre-order walk of the expression tree with an explicit
// "(" and ")" around every binary subexpression. Columns lists the distinct
// column names the tokens reference, in first-seen order; they become the
// parameters of the generated predicate.
type Filter struct {
	Tokens  []string `json:"tokens"`
	Columns []string `json:"columns"`
}

// Render joins the tokens into predicate source text.
// Tokens are separated by one space, except that runs of opening or
// closing parentheses are written without spaces between them:
//
//	(( cb == 1 ) && ( ca == 2 ))
func (f *Filter) Render() string {
	var b strings.Builder
	for i, tok := range f.Tokens {
		if i > 0 {
			prev := f.Tokens[i-1]
			if !(prev == "(" && tok == "(") && !(prev == ")" && tok == ")") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok)
	}
	return b.String()
}

// Direction is the sort direction of an ORDER BY entry.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortSpec returns the hmdf sort_spec enumerator for the direction.
func (d Direction) SortSpec() string {
	if d == Descending {
		return "desce"
	}
	return "ascen"
}

// OrderBy is one ORDER BY entry.
type OrderBy struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}
