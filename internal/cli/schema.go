package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dfsqlc/internal/ir"
)

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Source      string    `json:"source"`
	Fingerprint string    `json:"fingerprint"`
	Schema      ir.Schema `json:"schema"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <source>",
		Short: "Show the resolved schema of a source",
		Long: `Resolve a source the way queries do, from its CSV header and the
configured catalog, and print the index type and typed columns.

Relative sources resolve against schema.base_dir, or the working
directory when it is not set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSchema(opts *RootOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadConfig(formatter, opts)
	if err != nil {
		return err
	}
	resolver, err := cfg.Resolver(".")
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building schema resolver", err)
	}

	s, err := resolver.Resolve(cmd.Context(), source)
	if err != nil {
		return formatter.CompileError(err)
	}

	if opts.Format == "json" {
		return formatter.Success(SchemaResult{
			Source:      source,
			Fingerprint: ir.SchemaFingerprint(s),
			Schema:      s,
		})
	}

	fmt.Fprintf(formatter.Writer, "Source: %s\n\n", source)
	table := newTable(formatter.Writer, "Column", "Type")
	index := s.IndexType
	if index == "" {
		index = "(none)"
	}
	table.Append([]string{ir.IndexColumn, index})
	for _, c := range s.Columns() {
		table.Append([]string{c.Name, c.Type})
	}
	table.Render()
	return nil
}
