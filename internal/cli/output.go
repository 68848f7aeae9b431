package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Test failure (cases failed, golden mismatch)
	ExitCommandError = 2 // Command error (unreadable file, compile error, bad config)
)

// Error codes for failures that are not compile errors.
// Compile errors carry their ir.ErrorCode instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input file unreadable
	ErrCodeWriteFailed = "E003" // Output file write error
	ErrCodeConfig      = "E004" // Configuration or catalog error
	ErrCodeCycle       = "E005" // Build dependency cycle
	ErrCodeCache       = "E006" // Build cache error
)

// ExitError carries the process exit code for a failed command. main
// returns Code; any other error exits 2 after printing usage.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// IsExitError reports whether err's chain holds an ExitError, meaning the
// command already reported the failure.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// GetExitCode returns the code of the first ExitError in err's chain,
// or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a CLIResponse.
// Results go to Writer; diagnostics go to ErrWriter, or Writer when it is nil.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// newFormatter returns a formatter writing to the command's streams.
func newFormatter(opts *RootOptions, w, errW io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    w,
		ErrWriter: errW,
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the envelope of every --format json response. Status is
// "ok" with Data, or "error" with Error.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is an ir.ErrorCode or one of the E00x codes, with optional
// ErrorDetails or command-specific fields.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorDetails locates a compile error in the query.
type ErrorDetails struct {
	Column string `json:"column,omitempty"`
	Source string `json:"source,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Node   string `json:"node,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "%s Error [%s]: %s\n", failMark(), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %+v\n", details)
	}
	return nil
}

// CompileError outputs a compiler failure and returns the command error.
// ir.Error values report their own code and location; anything else is
// reported as a generic error.
func (f *OutputFormatter) CompileError(err error) error {
	var irErr *ir.Error
	if !errors.As(err, &irErr) {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	details := ErrorDetails{
		Column: irErr.Column,
		Source: irErr.Source,
		Stage:  irErr.Stage,
		Node:   irErr.Node,
	}
	message := irErr.Message
	if irErr.Err != nil {
		message = fmt.Sprintf("%s: %v", message, irErr.Err)
	}

	if f.Format == "json" {
		_ = f.Error(string(irErr.Code), message, details)
	} else {
		fmt.Fprintf(f.Writer, "%s %s: %s\n", failMark(), irErr.Code, message)
		if details.Stage != "" {
			fmt.Fprintf(f.Writer, "  stage:  %s\n", details.Stage)
		}
		if details.Column != "" {
			fmt.Fprintf(f.Writer, "  column: %s\n", details.Column)
		}
		if details.Source != "" {
			fmt.Fprintf(f.Writer, "  source: %s\n", details.Source)
		}
		if details.Node != "" {
			fmt.Fprintf(f.Writer, "  node:   %s\n", details.Node)
		}
	}
	return WrapExitError(ExitCommandError, "compilation failed", err)
}

// VerboseLog writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns the diagnostic writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// okMark and failMark are the status marks of text output. Color is
// dropped automatically when stdout is not a terminal.
func okMark() string {
	return color.New(color.FgGreen).Sprint("✓")
}

func failMark() string {
	return color.New(color.FgRed).Sprint("✗")
}
