package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dfsqlc/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Query       string `json:"query"`
	Output      string `json:"output,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Code        string `json:"code"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.sql>",
		Short: "Compile a query to a C++ program",
		Long: `Compile one SQL query to C++ source for the hmdf DataFrame library.

The program is written to standard output, or to the file named by
--output. Nothing is written when compilation fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// In text mode stdout carries the program, so errors go to stderr.
	errFormatter := formatter
	if opts.Format != "json" {
		errFormatter = newFormatter(opts.RootOptions, cmd.ErrOrStderr(), cmd.ErrOrStderr())
	}

	in, err := loadQuery(errFormatter, opts.RootOptions, path)
	if err != nil {
		return err
	}

	result, err := in.Compiler.Compile(cmd.Context(), in.Text)
	if err != nil {
		return errFormatter.CompileError(err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Code), 0o644); err != nil {
			_ = errFormatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if opts.Format == "json" {
		fingerprint, err := ir.Fingerprint(result.Query, in.Config.CodegenOptions().Canonical())
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "fingerprinting query", err)
		}
		return formatter.Success(CompilationResult{
			Query:       path,
			Output:      opts.Output,
			Fingerprint: fingerprint,
			Code:        result.Code,
		})
	}

	if opts.Output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Compiled %s to %s\n", okMark(), path, opts.Output)
		return nil
	}
	_, err = io.WriteString(cmd.OutOrStdout(), result.Code)
	return err
}
