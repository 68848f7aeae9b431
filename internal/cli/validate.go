package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Query   string   `json:"query"`
	Valid   bool     `json:"valid"`
	Outputs []string `json:"outputs"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query.sql>",
		Short: "Check a query compiles without writing code",
		Long: `Run every compiler stage on a query, including code generation,
and report the outcome without writing the program.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	in, err := loadQuery(formatter, opts, path)
	if err != nil {
		return err
	}

	result, err := in.Compiler.Compile(cmd.Context(), in.Text)
	if err != nil {
		return formatter.CompileError(err)
	}

	outputs := result.Query.OutputColumns()
	if opts.Format == "json" {
		return formatter.Success(ValidationResult{
			Query:   path,
			Valid:   true,
			Outputs: outputs,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s %s is valid (%d output column(s))\n", okMark(), path, len(outputs))
	return nil
}
