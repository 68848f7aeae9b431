package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeParse indicates the query text is outside the accepted grammar.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeResolution indicates an identifier could not be resolved to a name.
	ErrCodeResolution ErrorCode = "RESOLUTION_ERROR"

	// ErrCodeSchemaResolution indicates a source header could not be read or
	// a referenced column has no schema entry.
	ErrCodeSchemaResolution ErrorCode = "SCHEMA_RESOLUTION"

	// ErrCodeUnsupported indicates a syntax node outside the supported subset.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_CONSTRUCT"

	// ErrCodeCodeGenInvariant indicates a column reached code generation
	// without a resolved type.
	ErrCodeCodeGenInvariant ErrorCode = "CODEGEN_INVARIANT"
)

// Stages name the clause or emission pass an error was raised in.
const (
	StageParse   = "parse"
	StageSelect  = "select"
	StageFrom    = "from"
	StageJoin    = "join"
	StageWhere   = "where"
	StageOrderBy = "order_by"
	StageLimit   = "limit"
	StageSchema  = "schema"

	StageLoad    = "load"
	StageFilter  = "filter"
	StageProject = "project"
	StageSort    = "sort"
	StageWrite   = "write"
)

// Error is a structured compile error.
//
// Every failure of the compile pipeline is an *Error. Fields other than
// Code and Message are set when known and printed in a fixed order, so
// messages are stable enough to assert on.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Column is the offending column name.
	Column string

	// Source is the offending source identifier.
	Source string

	// Stage is the clause or emission pass (see the Stage constants).
	Stage string

	// Node is the SQL text of the offending syntax node.
	Node string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var details []string
	if e.Column != "" {
		details = append(details, "column="+e.Column)
	}
	if e.Source != "" {
		details = append(details, "source="+e.Source)
	}
	if e.Stage != "" {
		details = append(details, "stage="+e.Stage)
	}
	if e.Node != "" {
		details = append(details, fmt.Sprintf("node=%q", e.Node))
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewParseError wraps a parser failure.
func NewParseError(err error) *Error {
	return &Error{
		Code:    ErrCodeParse,
		Message: "query is not in the accepted grammar",
		Stage:   StageParse,
		Err:     err,
	}
}

// NewResolutionError reports an identifier that cannot be resolved to a name.
func NewResolutionError(stage, node, message string) *Error {
	return &Error{
		Code:    ErrCodeResolution,
		Message: message,
		Stage:   stage,
		Node:    node,
	}
}

// NewUnsupportedError reports a syntax node outside the supported subset.
func NewUnsupportedError(stage, node, message string) *Error {
	return &Error{
		Code:    ErrCodeUnsupported,
		Message: message,
		Stage:   stage,
		Node:    node,
	}
}

// NewSourceError reports a source whose schema cannot be resolved.
func NewSourceError(source string, err error) *Error {
	return &Error{
		Code:    ErrCodeSchemaResolution,
		Message: "cannot resolve source schema",
		Source:  source,
		Stage:   StageSchema,
		Err:     err,
	}
}

// NewUnknownColumnError reports a column reference with no schema entry.
func NewUnknownColumnError(stage, column string) *Error {
	return &Error{
		Code:    ErrCodeSchemaResolution,
		Message: "column not found in schema",
		Column:  column,
		Stage:   stage,
	}
}

// NewCodeGenInvariantError reports a column without a resolved type
// during emission.
func NewCodeGenInvariantError(stage, column string) *Error {
	return &Error{
		Code:    ErrCodeCodeGenInvariant,
		Message: "column has no resolved type",
		Column:  column,
		Stage:   stage,
	}
}

// ErrorCodeOf returns the code of the first *Error in err's chain,
// or "" if there is none.
func ErrorCodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsParseError returns true if the error is a parse error.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	return ErrorCodeOf(err) == ErrCodeParse
}

// IsResolution returns true if the error is an identifier resolution error.
func IsResolution(err error) bool {
	return ErrorCodeOf(err) == ErrCodeResolution
}

// IsSchemaResolution returns true if the error is a schema resolution error.
func IsSchemaResolution(err error) bool {
	return ErrorCodeOf(err) == ErrCodeSchemaResolution
}

// IsUnsupported returns true if the error is an unsupported-construct error.
func IsUnsupported(err error) bool {
	return ErrorCodeOf(err) == ErrCodeUnsupported
}

// IsCodeGenInvariant returns true if the error is a code generation
// invariant violation.
func IsCodeGenInvariant(err error) bool {
	return ErrorCodeOf(err) == ErrCodeCodeGenInvariant
}
