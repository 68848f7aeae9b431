package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRender(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{
			name:   "conjunction",
			tokens: []string{"(", "(", "cb", "==", "1", ")", "&&", "(", "ca", "==", "2", ")", ")"},
			want:   "(( cb == 1 ) && ( ca == 2 ))",
		},
		{
			name:   "single comparison",
			tokens: []string{"(", "ca", ">", "2", ")"},
			want:   "( ca > 2 )",
		},
		{
			name:   "nested arithmetic",
			tokens: []string{"(", "(", "(", "ca", "+", "cb", ")", "*", "2", ")", ">=", "10", ")"},
			want:   "((( ca + cb ) * 2 ) >= 10 )",
		},
		{
			name:   "bare boolean",
			tokens: []string{"true"},
			want:   "true",
		},
		{
			name:   "empty",
			tokens: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Filter{Tokens: tt.tokens}
			assert.Equal(t, tt.want, f.Render())
		})
	}
}

func TestSelectItemNames(t *testing.T) {
	items := []SelectItem{
		Unnamed{Column: "cc"},
		Aliased{Expr: "ca", Alias: "x"},
	}

	assert.Equal(t, "cc", items[0].SourceColumn())
	assert.Equal(t, "cc", items[0].OutputName())
	assert.Equal(t, "ca", items[1].SourceColumn())
	assert.Equal(t, "x", items[1].OutputName())

	q := &Query{Selection: items}
	assert.Equal(t, []string{"cc", "x"}, q.OutputColumns())
}

func TestQuerySources(t *testing.T) {
	q := &Query{
		From: "ta.csv",
		Joins: []Join{
			{Source: "tc.csv", Operator: JoinInner, Constraint: "id"},
			{Source: "tb.csv", Operator: JoinRight, Constraint: "id"},
		},
	}
	assert.Equal(t, []string{"ta.csv", "tc.csv", "tb.csv"}, q.Sources())
	assert.False(t, q.HasLimit())

	q.Limit = "3"
	assert.True(t, q.HasLimit())
}

func TestJoinOperatorPolicy(t *testing.T) {
	assert.Equal(t, "inner_join", JoinInner.Policy())
	assert.Equal(t, "left_join", JoinLeft.Policy())
	assert.Equal(t, "right_join", JoinRight.Policy())

	assert.True(t, JoinLeft.Valid())
	assert.False(t, JoinOperator("outer").Valid())
}

func TestDirectionSortSpec(t *testing.T) {
	assert.Equal(t, "ascen", Ascending.SortSpec())
	assert.Equal(t, "desce", Descending.SortSpec())
	assert.Equal(t, "ascen", Direction("").SortSpec(), "unset direction sorts ascending")
}

func TestQueryJSON(t *testing.T) {
	q := &Query{
		From:      "ta.csv",
		Selection: []SelectItem{Unnamed{Column: "cc"}, Aliased{Expr: "ca", Alias: "x"}},
		OrderBy:   []OrderBy{{Column: "cc", Direction: Ascending}},
		Schema:    NewSchema("string", Column{Name: "cc", Type: "long"}),
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"from": "ta.csv",
		"joins": null,
		"selection": [
			{"kind": "unnamed", "column": "cc"},
			{"kind": "aliased", "expr": "ca", "alias": "x"}
		],
		"order_by": [{"column": "cc", "direction": "asc"}],
		"schema": {"index": "string", "columns": [{"name": "cc", "type": "long"}]}
	}`, string(data))
}
