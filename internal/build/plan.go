package build

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/dfsqlc/internal/compiler"
	"github.com/roach88/dfsqlc/internal/ir"
	"github.com/roach88/dfsqlc/internal/parse"
)

// QueryExt is the extension of query files.
const QueryExt = ".sql"

// OutputSource returns the source identifier a query's result is read
// back as by other queries in the same build.
func OutputSource(name string) string {
	return name + ".csv"
}

// Query is one query file in a build.
type Query struct {
	// Name is the file name without QueryExt.
	Name string

	// Path is the query file.
	Path string

	// Text is the query text.
	Text string

	// Deps are the queries whose output this query reads, by name.
	Deps []string
}

// Plan is an ordered set of queries: every query follows its Deps.
type Plan struct {
	Dir     string
	Queries []Query
}

// NewPlan reads every query file in dir and orders them by dependency.
//
// A query depends on another when it reads that query's OutputSource.
// Queries that depend on each other form a cycle, reported as a
// *CycleError.
func NewPlan(dir string) (*Plan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading query directory: %w", err)
	}

	queries := make(map[string]*Query)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != QueryExt {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading query: %w", err)
		}
		name := strings.TrimSuffix(e.Name(), QueryExt)
		queries[name] = &Query{Name: name, Path: path, Text: string(data)}
	}

	// Map output sources back to the queries producing them.
	producers := make(map[string]string, len(queries))
	for name := range queries {
		producers[OutputSource(name)] = name
	}

	graph := make(dependencyGraph, len(queries))
	for name, q := range queries {
		sources, err := querySources(q.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Path, err)
		}
		deps := []string{}
		for _, src := range sources {
			if dep, ok := producers[src]; ok && !slices.Contains(deps, dep) {
				deps = append(deps, dep)
			}
		}
		slices.Sort(deps)
		q.Deps = deps
		graph[name] = deps
	}

	order, err := graph.order()
	if err != nil {
		return nil, err
	}

	p := &Plan{Dir: dir, Queries: make([]Query, 0, len(order))}
	for _, name := range order {
		p.Queries = append(p.Queries, *queries[name])
	}
	slog.Debug("planned build", "dir", dir, "queries", len(p.Queries))
	return p, nil
}

// querySources returns the sources a query reads, without resolving them.
func querySources(text string) ([]string, error) {
	stmt, err := parse.Parse(text)
	if err != nil {
		return nil, ir.NewParseError(err)
	}
	q, err := compiler.Visit(stmt)
	if err != nil {
		return nil, err
	}
	return q.Sources(), nil
}

// Names returns the query names in build order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Queries))
	for i, q := range p.Queries {
		names[i] = q.Name
	}
	return names
}
