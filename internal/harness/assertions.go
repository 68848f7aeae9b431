package harness

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/dfsqlc/internal/ir"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Field    string // Expectation field for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpect checks every set expectation against a result and
// returns one message per failure, in field order.
func EvaluateExpect(result *Result, expect Expect) []string {
	var errs []error
	if expect.Error != "" {
		errs = assertError(result.Err, expect)
	} else if result.Err != nil {
		errs = []error{&AssertionError{Field: "error", Expected: "success", Actual: result.Err.Error()}}
	} else {
		errs = assertQuery(result, expect)
	}

	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return messages
}

// assertError checks the code, column and stage of a compile error.
func assertError(err error, expect Expect) []error {
	if err == nil {
		return []error{&AssertionError{Field: "error", Expected: expect.Error, Actual: "success"}}
	}

	var irErr *ir.Error
	if !errors.As(err, &irErr) {
		return []error{&AssertionError{Field: "error", Expected: expect.Error, Actual: err.Error()}}
	}

	var errs []error
	if string(irErr.Code) != expect.Error {
		errs = append(errs, &AssertionError{Field: "error", Expected: expect.Error, Actual: string(irErr.Code)})
	}
	if expect.Column != "" && irErr.Column != expect.Column {
		errs = append(errs, &AssertionError{Field: "column", Expected: quoted(expect.Column), Actual: quoted(irErr.Column)})
	}
	if expect.Stage != "" && irErr.Stage != expect.Stage {
		errs = append(errs, &AssertionError{Field: "stage", Expected: quoted(expect.Stage), Actual: quoted(irErr.Stage)})
	}
	return errs
}

// assertQuery checks the finished IR and the generated code.
func assertQuery(result *Result, expect Expect) []error {
	q := result.Query
	var errs []error

	if expect.From != "" && q.From != expect.From {
		errs = append(errs, &AssertionError{Field: "from", Expected: quoted(expect.From), Actual: quoted(q.From)})
	}

	if len(expect.Joins) > 0 {
		joins := make([]string, len(q.Joins))
		for i, j := range q.Joins {
			joins[i] = fmt.Sprintf("%s %s %s", j.Operator, j.Source, j.Constraint)
		}
		if !slices.Equal(joins, expect.Joins) {
			errs = append(errs, &AssertionError{Field: "joins", Expected: fmt.Sprint(expect.Joins), Actual: fmt.Sprint(joins)})
		}
	}

	if len(expect.Outputs) > 0 && !slices.Equal(q.OutputColumns(), expect.Outputs) {
		errs = append(errs, &AssertionError{Field: "outputs", Expected: fmt.Sprint(expect.Outputs), Actual: fmt.Sprint(q.OutputColumns())})
	}

	if expect.Filter != "" || len(expect.FilterColumns) > 0 {
		var rendered string
		var columns []string
		if q.Filter != nil {
			rendered = q.Filter.Render()
			columns = q.Filter.Columns
		}
		if expect.Filter != "" && rendered != expect.Filter {
			errs = append(errs, &AssertionError{Field: "filter", Expected: quoted(expect.Filter), Actual: quoted(rendered)})
		}
		if len(expect.FilterColumns) > 0 && !slices.Equal(columns, expect.FilterColumns) {
			errs = append(errs, &AssertionError{Field: "filter_columns", Expected: fmt.Sprint(expect.FilterColumns), Actual: fmt.Sprint(columns)})
		}
	}

	// Sorted for a stable failure order.
	names := make([]string, 0, len(expect.Types))
	for name := range expect.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := expect.Types[name]
		got, ok := q.Schema.Lookup(name)
		if name == ir.IndexColumn {
			got, ok = q.Schema.IndexType, true
		}
		if !ok {
			got = "<missing>"
		}
		if got != want {
			errs = append(errs, &AssertionError{Field: "types." + name, Expected: quoted(want), Actual: quoted(got)})
		}
	}

	for _, fragment := range expect.Contains {
		if !strings.Contains(result.Code, fragment) {
			errs = append(errs, &AssertionError{Field: "contains", Expected: quoted(fragment), Actual: "not found in generated code"})
		}
	}
	for _, fragment := range expect.NotContains {
		if strings.Contains(result.Code, fragment) {
			errs = append(errs, &AssertionError{Field: "not_contains", Expected: "no " + quoted(fragment), Actual: "found in generated code"})
		}
	}

	return errs
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
