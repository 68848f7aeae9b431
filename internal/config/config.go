// Package config loads the dfsqlc.yaml configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dfsqlc/internal/codegen"
	"github.com/roach88/dfsqlc/internal/schema"
)

// DefaultFile is the configuration file looked up in the working
// directory when no path is given.
const DefaultFile = "dfsqlc.yaml"

// DefaultCacheFile is the build cache database, relative to the query
// directory.
const DefaultCacheFile = ".dfsqlc.db"

// Config is the decoded configuration file.
type Config struct {
	Schema  Schema  `yaml:"schema"`
	Codegen Codegen `yaml:"codegen"`
	Build   Build   `yaml:"build"`

	// dir is the directory of the file the config was read from.
	// Relative paths in the file are resolved against it.
	dir string
}

// Schema configures source resolution.
type Schema struct {
	// DefaultType is the type of header entries without an annotation
	// or a catalog declaration.
	DefaultType string `yaml:"default_type"`

	// Catalog is a CUE file declaring source column types.
	Catalog string `yaml:"catalog,omitempty"`

	// CacheSize is the number of resolved schemas kept in memory.
	CacheSize int `yaml:"cache_size"`

	// BaseDir is the directory relative source identifiers resolve in.
	BaseDir string `yaml:"base_dir,omitempty"`
}

// Codegen configures the emitted program.
type Codegen struct {
	Include    string            `yaml:"include"`
	ReadFormat string            `yaml:"read_format"`
	Precision  int               `yaml:"precision"`
	MaxRecords int               `yaml:"max_records"`
	Types      map[string]string `yaml:"types,omitempty"`
}

// Build configures multi-query builds.
type Build struct {
	// OutDir receives generated sources; empty means the query directory.
	OutDir string `yaml:"out_dir,omitempty"`

	// Cache is the SQLite build cache; relative paths are under the query
	// directory.
	Cache string `yaml:"cache"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	opts := codegen.DefaultOptions()
	return &Config{
		Schema: Schema{
			DefaultType: schema.DefaultType,
			CacheSize:   schema.DefaultCacheSize,
		},
		Codegen: Codegen{
			Include:    opts.Include,
			ReadFormat: opts.ReadFormat,
			Precision:  opts.Precision,
			MaxRecords: opts.MaxRecords,
		},
		Build: Build{Cache: DefaultCacheFile},
	}
}

// Load reads the configuration file at path.
//
// An empty path loads DefaultFile when it exists and the defaults
// otherwise. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes configuration YAML over the defaults.
// Unknown fields are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Schema.DefaultType == "" {
		return fmt.Errorf("schema.default_type must not be empty")
	}
	if c.Schema.CacheSize < 0 {
		return fmt.Errorf("schema.cache_size must not be negative, got %d", c.Schema.CacheSize)
	}
	if err := c.CodegenOptions().Validate(); err != nil {
		return fmt.Errorf("codegen: %w", err)
	}
	if c.Build.Cache == "" {
		return fmt.Errorf("build.cache must not be empty")
	}
	return nil
}

// CodegenOptions returns the code generator options.
func (c *Config) CodegenOptions() codegen.Options {
	return codegen.Options{
		Include:    c.Codegen.Include,
		ReadFormat: c.Codegen.ReadFormat,
		Precision:  c.Codegen.Precision,
		MaxRecords: c.Codegen.MaxRecords,
		Types:      c.Codegen.Types,
	}
}

// Path resolves a path from the config file against the file's directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Resolver builds the schema resolver the configuration describes:
// a file resolver with the optional catalog, behind an LRU cache.
// baseDir is used when schema.base_dir is not set.
func (c *Config) Resolver(baseDir string) (*schema.Cache, error) {
	var catalog *schema.Catalog
	if c.Schema.Catalog != "" {
		var err error
		catalog, err = schema.LoadCatalog(c.Path(c.Schema.Catalog))
		if err != nil {
			return nil, err
		}
	}

	if c.Schema.BaseDir != "" {
		baseDir = c.Path(c.Schema.BaseDir)
	}

	files := &schema.FileResolver{
		BaseDir:     baseDir,
		DefaultType: c.Schema.DefaultType,
		Catalog:     catalog,
	}
	return schema.NewCache(files, c.Schema.CacheSize)
}
