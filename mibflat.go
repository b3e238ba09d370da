// Package mibflat parses SNMP MIB files into flat, denormalized rows. It
// drives an external schema compiler to produce per-module symbol artifacts,
// loads them through a shared cross-module index, enriches the extracted
// records in ordered passes, and flattens them into rows, with optional
// persistent per-file result caching.
package mibflat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/golangsnmp/mibflat/compiler"
	"github.com/golangsnmp/mibflat/internal/compile"
	"github.com/golangsnmp/mibflat/internal/extract"
	"github.com/golangsnmp/mibflat/internal/resultcache"
	"github.com/golangsnmp/mibflat/internal/symbols"
	"github.com/golangsnmp/mibflat/mib"
)

// LevelTrace is the most verbose log level, below slog.LevelDebug. Per-item
// iteration detail logs here.
const LevelTrace = slog.Level(-8)

// Service is the parsing pipeline. It is safe for concurrent use; symbol
// state accumulated across calls is shared through an internal index.
type Service struct {
	cfg    Config
	logger *slog.Logger

	comp    compiler.Compiler
	cache   *compile.Cache
	loader  symbols.Loader
	index   *symbols.Index
	results *resultcache.Cache

	closers []io.Closer
	closed  atomic.Bool
}

// Option adjusts a Service at construction time.
type Option func(*Service)

// WithLogger sets the structured logger. Without it logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCompiler replaces the configured external compiler.
func WithCompiler(c compiler.Compiler) Option {
	return func(s *Service) { s.comp = c }
}

// WithForceRecompile ignores existing artifacts on every parse.
func WithForceRecompile() Option {
	return func(s *Service) { s.cfg.ForceRecompile = true }
}

// WithWorkers bounds concurrent compilations in ParseDir.
func WithWorkers(n int) Option {
	return func(s *Service) { s.cfg.Workers = n }
}

// New builds a Service from the configuration. The artifact directory is
// created if absent.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.cfg.Workers <= 0 {
		s.cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if err := os.MkdirAll(s.cfg.ArtifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	if s.comp == nil {
		switch s.cfg.Compiler.Kind {
		case "wasm":
			wc, err := compiler.NewWasmCompiler(context.Background(), s.cfg.Compiler.Path, s.cfg.ArtifactDir)
			if err != nil {
				return nil, err
			}
			s.comp = wc
			s.closers = append(s.closers, wc)
		default:
			s.comp = &compiler.ExecCompiler{
				Binary:      s.cfg.Compiler.Path,
				ArtifactDir: s.cfg.ArtifactDir,
				Logger:      s.logger,
			}
		}
	}

	s.cache = compile.NewCache(s.cfg.ArtifactDir, s.comp, s.logger)
	s.loader = &symbols.DirLoader{ArtifactDir: s.cfg.ArtifactDir}
	s.index = symbols.NewIndex(s.loader, func(mod *symbols.Module) []*mib.Object {
		return extract.Batch(mod, "")
	}, s.logger)

	if s.cfg.Cache.Enabled {
		rc, err := resultcache.Open(s.cfg.Cache.Path, s.cfg.Cache.TTL.Duration, s.cfg.Cache.MaxBytes, s.logger)
		if err != nil {
			return nil, err
		}
		s.results = rc
		s.closers = append(s.closers, rc)
	}

	if s.cfg.CleanupOnStartup {
		if n := s.cache.CleanupInvalid(); n > 0 {
			s.logger.Info("invalid artifacts removed", slog.Int("count", n))
		}
		if s.results != nil {
			if n := s.results.Sweep(); n > 0 {
				s.logger.Info("expired cache entries removed", slog.Int("count", n))
			}
		}
	}

	return s, nil
}

// Close releases the result cache and any compiler runtime. The Service must
// not be used afterwards.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// searchDirsFor returns the configured search directories plus the file's own
// directory, which is always consulted first.
func (s *Service) searchDirsFor(path string) []string {
	dir := filepath.Dir(path)
	out := make([]string, 0, len(s.cfg.SearchDirs)+1)
	out = append(out, dir)
	for _, d := range s.cfg.SearchDirs {
		if d != dir {
			out = append(out, d)
		}
	}
	return out
}
