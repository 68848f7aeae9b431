package cli

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dfsqlc/internal/codegen"
	"github.com/roach88/dfsqlc/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // case filter (glob pattern)
}

// CaseResult holds the result of a single case.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases-dir>",
		Short: "Run conformance cases",
		Long: `Run YAML conformance cases against the compiler.

Each case compiles one query against inline source headers and checks
expectations on the IR, the generated code or the error. A case with a
golden file (golden/<case>.golden next to it) is also compared byte for
byte against the generated program or error snapshot.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid paths, etc.)

Examples:
  dfsqlc test ./cases
  dfsqlc test ./cases --filter "join_*"
  dfsqlc test ./cases --update
  dfsqlc test ./cases --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, casesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if info, err := os.Stat(casesDir); err != nil || !info.IsDir() {
		message := fmt.Sprintf("cases directory not found: %s", casesDir)
		_ = formatter.Error(ErrCodeReadFailed, message, nil)
		return NewExitError(ExitCommandError, message)
	}

	cfg, err := loadConfig(formatter, opts.RootOptions)
	if err != nil {
		return err
	}

	caseFiles, err := findCaseFiles(casesDir, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find cases", err)
	}

	result := TestResult{Cases: []CaseResult{}, Total: len(caseFiles)}
	if len(caseFiles) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No cases found.")
		return nil
	}

	codegenOpts := cfg.CodegenOptions()
	for _, caseFile := range caseFiles {
		cr := runCase(caseFile, codegenOpts, opts, cmd)
		result.Cases = append(result.Cases, cr)
		if cr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findCaseFiles returns the .yaml and .yml files under dir in lexical
// order, keeping only those whose stem matches filter when it is set.
func findCaseFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			stem := strings.TrimSuffix(d.Name(), ext)
			if ok, _ := filepath.Match(filter, stem); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runCase executes a single case and returns the result.
func runCase(caseFile string, codegenOpts codegen.Options, opts *TestOptions, cmd *cobra.Command) CaseResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) CaseResult {
		if text {
			fmt.Fprintf(w, "%s %s\n", failMark(), name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return CaseResult{Name: name, Pass: false, Errors: errs}
	}
	pass := func(name, note string) CaseResult {
		if text {
			fmt.Fprintf(w, "%s %s%s\n", okMark(), name, note)
		}
		return CaseResult{Name: name, Pass: true}
	}

	c, err := harness.LoadCase(caseFile)
	if err != nil {
		return fail(filepath.Base(caseFile), fmt.Sprintf("failed to load case: %v", err))
	}

	result, err := harness.RunWithOptions(c, codegenOpts)
	if err != nil {
		return fail(c.Name, fmt.Sprintf("execution failed: %v", err))
	}

	goldenPath := harness.GoldenPath(caseFile)

	// Handle golden file update
	if opts.Update {
		if err := harness.UpdateGolden(goldenPath, result); err != nil {
			return fail(c.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if !result.Pass {
			return fail(c.Name, result.Errors...)
		}
		return pass(c.Name, " (golden updated)")
	}

	// No golden file - use assertion-based validation only
	if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
		if !result.Pass {
			return fail(c.Name, result.Errors...)
		}
		return pass(c.Name, "")
	}

	match, err := harness.CompareGolden(goldenPath, result)
	if err != nil {
		return fail(c.Name, fmt.Sprintf("golden comparison failed: %v", err))
	}
	if !match {
		return fail(c.Name, append(result.Errors, "output does not match golden file (run with --update to regenerate)")...)
	}

	// Both assertions and golden match
	if !result.Pass {
		return fail(c.Name, result.Errors...)
	}
	return pass(c.Name, "")
}

// outputTestJSON writes the run as a CLIResponse. Failed cases make the
// response an error with exit code 1.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	var failed error
	if result.Failed > 0 {
		message := fmt.Sprintf("%d case(s) failed", result.Failed)
		response.Status = "error"
		response.Error = &CLIError{Code: "E_TEST_FAILED", Message: message}
		failed = NewExitError(ExitFailure, message)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	return failed
}

func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}
	fmt.Fprintf(w, "%s All cases passed\n", okMark())
	return nil
}
