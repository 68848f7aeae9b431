package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/dfsqlc/internal/build"
	"github.com/roach88/dfsqlc/internal/ir"
	"github.com/roach88/dfsqlc/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Force bool // regenerate every artifact
}

// BuildResult is the JSON payload of a successful build.
type BuildResult struct {
	Dir      string                 `json:"dir"`
	RunID    string                 `json:"run_id"`
	Status   string                 `json:"run_status"`
	Order    []string               `json:"order"`
	Compiled int                    `json:"compiled"`
	Skipped  int                    `json:"skipped"`
	Results  []build.ArtifactReport `json:"artifacts"`

	// Previous is the last run recorded for Dir before this one.
	Previous *store.Build `json:"previous,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Compile every query in a directory",
		Long: `Compile every .sql file in a directory to a .cpp program, in
dependency order.

A query that reads <name>.csv depends on the query in <name>.sql and is
compiled after it, against its output schema. Unchanged queries are
skipped using the build cache (build.cache, default .dfsqlc.db).

Exit codes:
  0 - All queries compiled or up to date
  2 - Command error (cycle, compile error, unreadable directory)

Examples:
  dfsqlc build ./queries
  dfsqlc build ./queries --force`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "regenerate every artifact")

	return cmd
}

func runBuild(opts *BuildOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadConfig(formatter, opts.RootOptions)
	if err != nil {
		return err
	}

	plan, err := build.NewPlan(dir)
	if err != nil {
		return outputBuildError(formatter, err)
	}
	formatter.VerboseLog("Build order: %v", plan.Names())

	resolver, err := cfg.Resolver(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building schema resolver", err)
	}

	cachePath := cfg.Build.Cache
	if !filepath.IsAbs(cachePath) {
		cachePath = filepath.Join(dir, cachePath)
	}
	cache, err := store.Open(cachePath)
	if err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening build cache", err)
	}
	defer cache.Close()

	var previous *store.Build
	if prev, ok, err := cache.LatestBuild(cmd.Context(), plan.Dir); err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading build cache", err)
	} else if ok {
		previous = &prev
		formatter.VerboseLog("Previous build: %s (%s)", prev.ID, prev.Status)
	}

	builder := &build.Builder{
		Resolver: resolver,
		Options:  cfg.CodegenOptions(),
		OutDir:   cfg.Path(cfg.Build.OutDir),
		Cache:    cache,
		Force:    opts.Force,
	}

	report, err := builder.Run(cmd.Context(), plan)
	if err != nil {
		if report != nil && opts.Format != "json" {
			writeArtifacts(formatter, report)
		}
		return outputBuildError(formatter, err)
	}

	compiled, skipped := report.Counts()
	if opts.Format == "json" {
		run, err := cache.ReadBuild(cmd.Context(), report.RunID)
		if err != nil {
			_ = formatter.Error(ErrCodeCache, err.Error(), nil)
			return WrapExitError(ExitCommandError, "reading build cache", err)
		}
		return formatter.Success(BuildResult{
			Dir:      dir,
			RunID:    report.RunID,
			Status:   run.Status,
			Order:    plan.Names(),
			Compiled: compiled,
			Skipped:  skipped,
			Results:  report.Artifacts,
			Previous: previous,
		})
	}

	writeArtifacts(formatter, report)
	fmt.Fprintf(formatter.Writer, "\n%s Built %d query(ies): %d compiled, %d up to date\n",
		okMark(), len(report.Artifacts), compiled, skipped)
	formatter.VerboseLog("Run ID: %s", report.RunID)
	return nil
}

// writeArtifacts lists the artifacts a run produced or skipped.
func writeArtifacts(f *OutputFormatter, report *build.Report) {
	for _, a := range report.Artifacts {
		fmt.Fprintf(f.Writer, "%s %s → %s (%s)\n", okMark(), a.Name, a.Output, a.Status)
	}
}

// outputBuildError reports a planning or build failure.
func outputBuildError(f *OutputFormatter, err error) error {
	var cycle *build.CycleError
	if errors.As(err, &cycle) {
		_ = f.Error(ErrCodeCycle, cycle.Error(), map[string]any{"path": cycle.Path})
		return WrapExitError(ExitCommandError, "build failed", err)
	}
	var irErr *ir.Error
	if errors.As(err, &irErr) {
		fmt.Fprintf(f.GetErrWriter(), "%v\n", err)
		return f.CompileError(err)
	}
	_ = f.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "build failed", err)
}
