package harness

import "github.com/roach88/dfsqlc/internal/ir"

// Result contains the outcome of running a case.
type Result struct {
	// Pass indicates whether every expectation held.
	Pass bool `json:"pass"`

	// Query is the finished IR. Nil if compilation failed.
	Query *ir.Query `json:"query,omitempty"`

	// Code is the generated program. Empty if compilation failed.
	Code string `json:"code,omitempty"`

	// Err is the compile error, if any.
	Err error `json:"-"`

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
