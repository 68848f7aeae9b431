package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Snapshot returns the golden form of a result: the generated program for
// a successful compile, or the canonical JSON of the error otherwise.
func Snapshot(result *Result) ([]byte, error) {
	if result.Err == nil {
		return []byte(result.Code), nil
	}

	snap := map[string]any{"message": result.Err.Error()}
	var irErr *ir.Error
	if errors.As(result.Err, &irErr) {
		snap["code"] = string(irErr.Code)
		if irErr.Column != "" {
			snap["column"] = irErr.Column
		}
		if irErr.Source != "" {
			snap["source"] = irErr.Source
		}
		if irErr.Stage != "" {
			snap["stage"] = irErr.Stage
		}
	}
	data, err := ir.MarshalCanonical(snap)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a case and compares its snapshot against a golden
// file stored in testdata/golden/{c.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the case cannot be run or snapshotted.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, c *Case) (*Result, error) {
	t.Helper()

	result, err := Run(c)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, c.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}

// GoldenPath returns the golden file for a case file: golden/<stem>.golden
// next to the case.
func GoldenPath(caseFile string) string {
	dir := filepath.Dir(caseFile)
	base := filepath.Base(caseFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes the result's snapshot as the golden file.
func UpdateGolden(path string, result *Result) error {
	data, err := Snapshot(result)
	if err != nil {
		return fmt.Errorf("failed to snapshot result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the result's snapshot matches the golden
// file byte for byte.
func CompareGolden(path string, result *Result) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	data, err := Snapshot(result)
	if err != nil {
		return false, fmt.Errorf("failed to snapshot result: %w", err)
	}
	return string(golden) == string(data), nil
}
