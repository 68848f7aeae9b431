package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/dfsqlc/internal/codegen"
	"github.com/roach88/dfsqlc/internal/compiler"
	"github.com/roach88/dfsqlc/internal/ir"
	"github.com/roach88/dfsqlc/internal/schema"
	"github.com/roach88/dfsqlc/internal/store"
)

// OutputExt is the extension of generated sources.
const OutputExt = ".cpp"

// Artifact statuses.
const (
	StatusCompiled = "compiled"
	StatusSkipped  = "skipped"
)

// Builder compiles every query of a Plan in order.
type Builder struct {
	// Resolver resolves sources that are not outputs of the build.
	Resolver schema.Resolver

	// Options are the code generator options.
	Options codegen.Options

	// OutDir receives <name>.cpp files; empty means the plan directory.
	OutDir string

	// Cache, if set, skips queries whose artifacts are unchanged.
	Cache *store.Store

	// Force regenerates every artifact regardless of the cache.
	Force bool
}

// Report describes one build run.
type Report struct {
	RunID     string           `json:"run_id"`
	Artifacts []ArtifactReport `json:"artifacts"`
}

// ArtifactReport is the outcome for one query.
type ArtifactReport struct {
	Name        string `json:"name"`
	Output      string `json:"output"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
}

// Counts returns the number of compiled and skipped artifacts.
func (r *Report) Counts() (compiled, skipped int) {
	for _, a := range r.Artifacts {
		if a.Status == StatusSkipped {
			skipped++
		} else {
			compiled++
		}
	}
	return compiled, skipped
}

// Run compiles the plan's queries in order.
//
// The output schema of each compiled query is registered as the schema of
// its OutputSource, so downstream queries resolve before the CSV exists.
// The run stops at the first failing query; its error names the query file.
func (b *Builder) Run(ctx context.Context, p *Plan) (*Report, error) {
	if err := b.Options.Validate(); err != nil {
		return nil, fmt.Errorf("codegen options: %w", err)
	}

	outDir := b.OutDir
	if outDir == "" {
		outDir = p.Dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	report := &Report{RunID: uuid.Must(uuid.NewV7()).String(), Artifacts: []ArtifactReport{}}
	if b.Cache != nil {
		if err := b.Cache.BeginBuild(ctx, report.RunID, p.Dir); err != nil {
			return nil, err
		}
	}
	slog.Debug("build started", "run_id", report.RunID, "dir", p.Dir, "queries", len(p.Queries))

	runErr := b.run(ctx, p, outDir, report)

	if b.Cache != nil {
		compiled, skipped := report.Counts()
		if err := b.Cache.FinishBuild(ctx, report.RunID, compiled, skipped, runErr); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func (b *Builder) run(ctx context.Context, p *Plan, outDir string, report *Report) error {
	overlay := schema.NewOverlay(b.Resolver)
	c := compiler.New(overlay, b.Options)
	options := b.Options.Canonical()

	for _, query := range p.Queries {
		if err := ctx.Err(); err != nil {
			return err
		}

		q, err := c.Analyze(ctx, query.Text)
		if err != nil {
			return fmt.Errorf("%s: %w", query.Path, err)
		}

		out, err := schema.Output(q)
		if err != nil {
			return fmt.Errorf("%s: %w", query.Path, err)
		}
		overlay.Register(OutputSource(query.Name), out)

		fingerprint, err := ir.Fingerprint(q, options)
		if err != nil {
			return fmt.Errorf("%s: %w", query.Path, err)
		}

		target := filepath.Join(outDir, query.Name+OutputExt)
		entry := ArtifactReport{Name: query.Name, Output: target, Fingerprint: fingerprint}

		fresh, err := b.upToDate(ctx, p.Dir, query.Name, fingerprint, target)
		if err != nil {
			return err
		}
		if fresh {
			slog.Debug("artifact unchanged, skipping", "query", query.Name)
			entry.Status = StatusSkipped
			report.Artifacts = append(report.Artifacts, entry)
			continue
		}

		code, err := codegen.Generate(q, b.Options)
		if err != nil {
			return fmt.Errorf("%s: %w", query.Path, err)
		}
		if err := writeFile(target, code); err != nil {
			return err
		}

		if b.Cache != nil {
			err := b.Cache.PutArtifact(ctx, store.Artifact{
				Dir:         p.Dir,
				Name:        query.Name,
				Fingerprint: fingerprint,
				Output:      target,
				BuildID:     report.RunID,
			})
			if err != nil {
				return err
			}
		}

		slog.Debug("artifact generated", "query", query.Name, "output", target)
		entry.Status = StatusCompiled
		report.Artifacts = append(report.Artifacts, entry)
	}
	return nil
}

// upToDate reports whether the cached artifact for a query matches
// fingerprint and its output file still exists at target.
func (b *Builder) upToDate(ctx context.Context, dir, name, fingerprint, target string) (bool, error) {
	if b.Cache == nil || b.Force {
		return false, nil
	}

	cached, ok, err := b.Cache.Artifact(ctx, dir, name)
	if err != nil || !ok {
		return false, err
	}
	if cached.Fingerprint != fingerprint || cached.Output != target {
		return false, nil
	}

	_, err = os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", target, err)
	}
	return true, nil
}

// writeFile atomically replaces path with data via a temporary file in
// the same directory.
func writeFile(path, data string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
