package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Build statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Build is one recorded build run.
type Build struct {
	ID              string `json:"id"`
	Dir             string `json:"dir"`
	Status          string `json:"status"`
	Compiled        int    `json:"compiled"`
	Skipped         int    `json:"skipped"`
	Error           string `json:"error,omitempty"`
	CompilerVersion string `json:"compiler_version"`
	IRVersion       string `json:"ir_version"`
}

// Artifact is the last generated source for one query.
type Artifact struct {
	Dir         string
	Name        string
	Fingerprint string
	Output      string
	BuildID     string
}

// BeginBuild records the start of a build run over dir.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) BeginBuild(ctx context.Context, id, dir string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (id, dir, status, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, dir, StatusRunning, ir.CompilerVersion, ir.IRVersion)
	if err != nil {
		return fmt.Errorf("begin build: %w", err)
	}
	return nil
}

// FinishBuild records the outcome of a build run. A non-nil runErr marks
// the build failed and stores its message.
func (s *Store) FinishBuild(ctx context.Context, id string, compiled, skipped int, runErr error) error {
	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE builds SET status = ?, compiled = ?, skipped = ?, error = ?
		WHERE id = ?
	`, status, compiled, skipped, message, id)
	if err != nil {
		return fmt.Errorf("finish build: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish build: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish build: unknown build %q", id)
	}
	return nil
}

// ReadBuild returns a recorded build run.
// Returns sql.ErrNoRows (wrapped) if the build does not exist.
func (s *Store) ReadBuild(ctx context.Context, id string) (Build, error) {
	var b Build
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dir, status, compiled, skipped, error, compiler_version, ir_version
		FROM builds WHERE id = ?
	`, id).Scan(&b.ID, &b.Dir, &b.Status, &b.Compiled, &b.Skipped, &b.Error, &b.CompilerVersion, &b.IRVersion)
	if err != nil {
		return Build{}, fmt.Errorf("read build %s: %w", id, err)
	}
	return b, nil
}

// LatestBuild returns the most recently started build over dir.
// The second result is false if dir has never been built.
func (s *Store) LatestBuild(ctx context.Context, dir string) (Build, bool, error) {
	var b Build
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dir, status, compiled, skipped, error, compiler_version, ir_version
		FROM builds WHERE dir = ?
		ORDER BY seq DESC
		LIMIT 1
	`, dir).Scan(&b.ID, &b.Dir, &b.Status, &b.Compiled, &b.Skipped, &b.Error, &b.CompilerVersion, &b.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, fmt.Errorf("latest build: %w", err)
	}
	return b, true, nil
}

// Artifact returns the cached artifact for a query.
// The second result is false if the query has no artifact.
func (s *Store) Artifact(ctx context.Context, dir, name string) (Artifact, bool, error) {
	a := Artifact{Dir: dir, Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, output, build_id
		FROM artifacts WHERE dir = ? AND name = ?
	`, dir, name).Scan(&a.Fingerprint, &a.Output, &a.BuildID)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return a, true, nil
}

// PutArtifact records or replaces the artifact for a query.
// The referenced build must exist (foreign key constraint).
func (s *Store) PutArtifact(ctx context.Context, a Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (dir, name, fingerprint, output, build_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(dir, name) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			output = excluded.output,
			build_id = excluded.build_id
	`, a.Dir, a.Name, a.Fingerprint, a.Output, a.BuildID)
	if err != nil {
		return fmt.Errorf("write artifact %s: %w", a.Name, err)
	}
	return nil
}

// Artifacts returns every cached artifact for dir, ordered by name.
// Returns an empty slice (not nil) if there are none.
func (s *Store) Artifacts(ctx context.Context, dir string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dir, name, fingerprint, output, build_id
		FROM artifacts WHERE dir = ?
		ORDER BY name COLLATE BINARY ASC
	`, dir)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []Artifact{}
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Dir, &a.Name, &a.Fingerprint, &a.Output, &a.BuildID); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}
