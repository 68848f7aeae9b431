package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/roach88/dfsqlc/internal/ir"
)

// Resolver resolves a source identifier to its schema.
//
// Failures are *ir.Error values with code SCHEMA_RESOLUTION naming the
// source. Returned schemas belong to the caller.
type Resolver interface {
	Resolve(ctx context.Context, source string) (ir.Schema, error)
}

// FileResolver reads schemas from CSV headers on disk.
//
// Relative source identifiers are resolved against BaseDir. A source that
// does not exist on disk but is declared in Catalog with at least one
// column resolves to the declared columns.
type FileResolver struct {
	BaseDir     string
	DefaultType string
	Catalog     *Catalog
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(ctx context.Context, source string) (ir.Schema, error) {
	if err := ctx.Err(); err != nil {
		return ir.Schema{}, ir.NewSourceError(source, err)
	}

	decl, declared := r.Catalog.Lookup(source)

	path := source
	if !filepath.IsAbs(path) && r.BaseDir != "" {
		path = filepath.Join(r.BaseDir, path)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && declared && len(decl.Order) > 0 {
		slog.Debug("source not on disk, using catalog declaration", "source", source)
		return fromDeclaration(decl, r.DefaultType), nil
	}
	if err != nil {
		return ir.Schema{}, ir.NewSourceError(source, err)
	}
	defer f.Close()

	fields, err := readHeader(f)
	if err != nil {
		return ir.Schema{}, ir.NewSourceError(source, fmt.Errorf("%s: %w", path, err))
	}

	s, err := ParseHeader(fields, r.DefaultType, decl)
	if err != nil {
		return ir.Schema{}, ir.NewSourceError(source, fmt.Errorf("%s: %w", path, err))
	}

	slog.Debug("resolved source schema", "source", source, "columns", s.Len(), "index", s.IndexType)
	return s, nil
}

func fromDeclaration(decl Declaration, defaultType string) ir.Schema {
	if defaultType == "" {
		defaultType = DefaultType
	}
	index := decl.Index
	if index == "" {
		index = defaultType
	}
	s := ir.NewSchema(index)
	for _, name := range decl.Order {
		s.Set(name, decl.Columns[name])
	}
	return s
}

// Headers resolves sources from inline header lines, keyed by source.
type Headers struct {
	Lines       map[string]string
	DefaultType string
	Catalog     *Catalog
}

// Resolve implements Resolver.
func (h *Headers) Resolve(ctx context.Context, source string) (ir.Schema, error) {
	line, ok := h.Lines[source]
	if !ok {
		return ir.Schema{}, ir.NewSourceError(source, fmt.Errorf("no header for source"))
	}
	decl, _ := h.Catalog.Lookup(source)
	s, err := ParseHeaderLine(line, h.DefaultType, decl)
	if err != nil {
		return ir.Schema{}, ir.NewSourceError(source, err)
	}
	return s, nil
}

// Overlay serves registered schemas ahead of a fallback Resolver.
// Builds register the output schema of each compiled query so that
// downstream queries resolve before the output file exists.
type Overlay struct {
	mu      sync.RWMutex
	schemas map[string]ir.Schema
	next    Resolver
}

// NewOverlay returns an Overlay in front of next. next may be nil.
func NewOverlay(next Resolver) *Overlay {
	return &Overlay{schemas: make(map[string]ir.Schema), next: next}
}

// Register makes source resolve to s.
func (o *Overlay) Register(source string, s ir.Schema) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.schemas[source] = s.Clone()
}

// Resolve implements Resolver.
func (o *Overlay) Resolve(ctx context.Context, source string) (ir.Schema, error) {
	o.mu.RLock()
	s, ok := o.schemas[source]
	o.mu.RUnlock()
	if ok {
		return s.Clone(), nil
	}
	if o.next == nil {
		return ir.Schema{}, ir.NewSourceError(source, fmt.Errorf("unknown source"))
	}
	return o.next.Resolve(ctx, source)
}

// DefaultCacheSize is the number of schemas a Cache holds by default.
const DefaultCacheSize = 128

// Cache memoizes another Resolver in a fixed-size LRU.
// Failed resolutions are not cached.
type Cache struct {
	next  Resolver
	cache *lru.Cache
}

// NewCache returns a Cache of the given size in front of next.
// A size of zero or less selects DefaultCacheSize.
func NewCache(next Resolver, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating schema cache: %w", err)
	}
	return &Cache{next: next, cache: c}, nil
}

// Resolve implements Resolver.
func (c *Cache) Resolve(ctx context.Context, source string) (ir.Schema, error) {
	if v, ok := c.cache.Get(source); ok {
		slog.Debug("schema cache hit", "source", source)
		return v.(ir.Schema).Clone(), nil
	}

	s, err := c.next.Resolve(ctx, source)
	if err != nil {
		return ir.Schema{}, err
	}
	c.cache.Add(source, s.Clone())
	return s, nil
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached schema.
func (c *Cache) Purge() {
	c.cache.Purge()
}
