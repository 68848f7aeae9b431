package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/dfsqlc/internal/ir"
)

// ExplainResult is the JSON payload of the explain command.
type ExplainResult struct {
	Query       string    `json:"query"`
	Fingerprint string    `json:"fingerprint"`
	IR          *ir.Query `json:"ir"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <query.sql>",
		Short: "Show the intermediate representation of a query",
		Long: `Parse, visit and resolve a query and print its intermediate
representation: sources and join steps, the projection with resolved
types, the filter predicate, ordering and limit.

Examples:
  dfsqlc explain report.sql
  dfsqlc explain report.sql --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	in, err := loadQuery(formatter, opts, path)
	if err != nil {
		return err
	}

	q, err := in.Compiler.Analyze(cmd.Context(), in.Text)
	if err != nil {
		return formatter.CompileError(err)
	}

	fingerprint, err := ir.Fingerprint(q, in.Config.CodegenOptions().Canonical())
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "fingerprinting query", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ExplainResult{
			Query:       path,
			Fingerprint: fingerprint,
			IR:          q,
		})
	}

	writeExplain(formatter.Writer, path, fingerprint, q)
	return nil
}

// writeExplain renders the IR as text tables.
func writeExplain(w io.Writer, path, fingerprint string, q *ir.Query) {
	fmt.Fprintf(w, "Query: %s\n", path)
	fmt.Fprintf(w, "Fingerprint: %s\n\n", fingerprint)

	fmt.Fprintln(w, "Sources:")
	sources := newTable(w, "Step", "Source", "Join", "Using")
	sources.Append([]string{"0", q.From, "from", ""})
	for i, j := range q.Joins {
		sources.Append([]string{fmt.Sprint(i + 1), j.Source, string(j.Operator), j.Constraint})
	}
	sources.Render()
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Projection:")
	projection := newTable(w, "Output", "Column", "Type")
	for _, item := range q.Selection {
		typ, _ := q.Schema.Lookup(item.OutputName())
		projection.Append([]string{item.OutputName(), item.SourceColumn(), typ})
	}
	projection.Render()
	fmt.Fprintln(w)

	filter := "none"
	if q.Filter != nil {
		filter = fmt.Sprintf("%s  [%s]", q.Filter.Render(), strings.Join(q.Filter.Columns, ", "))
	}
	fmt.Fprintf(w, "Filter: %s\n", filter)

	order := "none"
	if len(q.OrderBy) > 0 {
		keys := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			keys[i] = fmt.Sprintf("%s %s", o.Column, o.Direction)
		}
		order = strings.Join(keys, ", ")
	}
	fmt.Fprintf(w, "Order: %s\n", order)

	limit := "none"
	if q.HasLimit() {
		limit = q.Limit
	}
	fmt.Fprintf(w, "Limit: %s\n", limit)
}

// newTable returns a borderless table with the given header.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}
