package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/dfsqlc/internal/compiler"
	"github.com/roach88/dfsqlc/internal/config"
)

// queryInput is a query file ready to compile.
type queryInput struct {
	Path     string
	Text     string
	Config   *config.Config
	Compiler *compiler.Compiler
}

// loadConfig loads the configuration named by --config, reporting
// failures through the formatter.
func loadConfig(f *OutputFormatter, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	return cfg, nil
}

// loadQuery reads a query file and builds a compiler for it. Relative
// source identifiers resolve against the query file's directory unless
// the config sets schema.base_dir.
func loadQuery(f *OutputFormatter, opts *RootOptions, path string) (*queryInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		_ = f.Error(ErrCodeReadFailed, fmt.Sprintf("reading query file %s: %v", path, err), nil)
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("reading query file %s", path), err)
	}

	cfg, err := loadConfig(f, opts)
	if err != nil {
		return nil, err
	}

	resolver, err := cfg.Resolver(filepath.Dir(path))
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "building schema resolver", err)
	}

	slog.Debug("loaded query", "path", path, "bytes", len(data))
	f.VerboseLog("Compiling %s", path)

	return &queryInput{
		Path:     path,
		Text:     string(data),
		Config:   cfg,
		Compiler: compiler.New(resolver, cfg.CodegenOptions()),
	}, nil
}
