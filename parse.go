package mibflat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/golangsnmp/mibflat/internal/deps"
	"github.com/golangsnmp/mibflat/internal/enrich"
	"github.com/golangsnmp/mibflat/internal/extract"
	"github.com/golangsnmp/mibflat/internal/observability"
	"github.com/golangsnmp/mibflat/internal/resultcache"
	"github.com/golangsnmp/mibflat/internal/tabular"
	"github.com/golangsnmp/mibflat/mib"
)

// FileResult is one file's flattened output.
type FileResult struct {
	Module string
	Path   string
	Rows   []mib.Row

	// FromCache marks a result served from the persistent result cache
	// without recompilation.
	FromCache bool
}

// BatchResult summarizes a ParseDir run. Per-file failures are collected;
// they never abort the batch.
type BatchResult struct {
	// ID tags the run in logs and downstream records.
	ID uuid.UUID

	Files     []*FileResult
	Processed int
	Failed    int
	Errors    []*FileError

	// Warnings lists files that were skipped or produced zero rows.
	Warnings []string

	// MissingDependencies are modules the compiler could not locate while
	// building this batch, sorted.
	MissingDependencies []string

	Elapsed time.Duration
}

// ParseFile parses one MIB file into rows. The persistent result cache is
// consulted first; on a hit no compilation or extraction runs. On a miss the
// file's dependencies are compiled in import order, the module itself is
// compiled, and the extracted records are enriched and flattened.
func (s *Service) ParseFile(ctx context.Context, path string) (*FileResult, error) {
	return s.parseFile(ctx, path, s.cfg.ForceRecompile)
}

// parseFile is ParseFile with an explicit force flag. ParseDir passes false:
// its ordered compile pass has already honored force, and forcing again here
// would compile every module a second time.
func (s *Service) parseFile(ctx context.Context, path string, force bool) (*FileResult, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	defer func() {
		observability.ParseDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	identity, idErr := resultcache.IdentityOf(path)
	if idErr == nil && s.results != nil {
		if entry := s.results.Get(identity); entry != nil {
			if s.logger.Enabled(ctx, slog.LevelDebug) {
				s.logger.LogAttrs(ctx, slog.LevelDebug, "result cache hit",
					slog.String("path", path), slog.Int("rows", len(entry.Rows)))
			}
			return &FileResult{Module: entry.Module, Path: path, Rows: entry.Rows, FromCache: true}, nil
		}
	}

	content, err := readMIBFile(path)
	if err != nil {
		return nil, newFileError(path, err)
	}

	moduleName := deps.ModuleName(content)
	if moduleName == "" {
		moduleName = deps.ModuleNameFromPath(path)
	}
	searchDirs := s.searchDirsFor(path)

	// Dependencies get a compile attempt before the module itself. A failed
	// dependency is not fatal: the compiler is invoked with ignore-errors
	// and may still emit a usable artifact for the dependent. Compiled
	// dependencies are registered in the index so cross-module lookups can
	// see their objects.
	for _, imp := range deps.GraphImports(content) {
		if _, err := s.cache.EnsureCompiled(ctx, imp, searchDirs, false); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if s.logger.Enabled(ctx, slog.LevelDebug) {
				s.logger.LogAttrs(ctx, slog.LevelDebug, "dependency compile failed",
					slog.String("module", imp), slog.String("error", err.Error()))
			}
			continue
		}
		s.index.ModuleSymbols(imp)
	}

	if _, err := s.cache.EnsureCompiled(ctx, moduleName, searchDirs, force); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newFileError(path, fmt.Errorf("%w: %v", ErrCompileFailed, err))
	}

	mod, ok := s.index.ModuleSymbols(moduleName)
	if !ok {
		return nil, newFileError(path, fmt.Errorf("%w: artifact for %s unreadable", ErrExtraction, moduleName))
	}

	objs := extract.Batch(mod, path)
	pipeline := enrich.New(s.index, func(module string) ([]byte, string, error) {
		return findModuleSource(searchDirs, module)
	}, s.logger)
	pipeline.Run(ctx, objs, mod, content)

	rows := tabular.BuildRows(objs)
	if len(rows) == 0 {
		s.logger.Warn("file produced no rows", slog.String("path", path), slog.String("module", moduleName))
	}

	if s.results != nil && idErr == nil {
		if err := s.results.Put(identity, &resultcache.Entry{Module: moduleName, Rows: rows}); err != nil {
			s.logger.Warn("result cache store failed",
				slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	return &FileResult{Module: moduleName, Path: path, Rows: rows}, nil
}

// ParseDir parses every MIB file directly under dir. Modules are compiled
// concurrently in dependency order with a bounded worker pool, then each
// file is extracted sequentially. Returns the partial batch together with
// ctx.Err() when cancelled mid-run.
func (s *Service) ParseDir(ctx context.Context, dir string) (*BatchResult, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	batch := &BatchResult{ID: uuid.New()}

	paths, err := listMIBFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}

	graph := deps.NewGraph()
	var parseable []string
	for _, path := range paths {
		content, err := readMIBFile(path)
		if err != nil {
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		name := deps.ModuleName(content)
		if name == "" {
			name = deps.ModuleNameFromPath(path)
		}
		parseable = append(parseable, path)
		graph.Add(name, deps.GraphImports(content))
	}

	order, cyclic := graph.CompileOrder()
	if len(cyclic) > 0 {
		s.logger.Warn("import cycle detected, ordering best-effort",
			slog.Any("modules", cyclic))
	}

	s.compileAll(ctx, order, graph, dir)
	if err := ctx.Err(); err != nil {
		batch.Elapsed = time.Since(start)
		return batch, err
	}

	for _, path := range parseable {
		if err := ctx.Err(); err != nil {
			batch.Elapsed = time.Since(start)
			return batch, err
		}

		res, err := s.parseFile(ctx, path, false)
		if err != nil {
			batch.Failed++
			var fe *FileError
			if !errors.As(err, &fe) {
				fe = newFileError(path, err)
			}
			batch.Errors = append(batch.Errors, fe)
			s.logger.Error("file failed",
				slog.String("batch", batch.ID.String()),
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}

		batch.Processed++
		batch.Files = append(batch.Files, res)
		if len(res.Rows) == 0 {
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("%s: no rows", path))
		}
	}

	batch.MissingDependencies = s.cache.DrainMissing()
	batch.Elapsed = time.Since(start)

	s.logger.Info("batch complete",
		slog.String("batch", batch.ID.String()),
		slog.Int("processed", batch.Processed),
		slog.Int("failed", batch.Failed),
		slog.Int("missing_deps", len(batch.MissingDependencies)),
		slog.Duration("elapsed", batch.Elapsed))

	return batch, nil
}

// compileAll compiles the ordered module set with a bounded pool. A module
// waits for every dependency that precedes it in the order, so dependencies
// always have a compile outcome first; edges inside a cycle are not waited
// on. Compile failures are left for the per-file pass to surface.
func (s *Service) compileAll(ctx context.Context, order []string, graph *deps.Graph, dir string) {
	pos := make(map[string]int, len(order))
	for i, mod := range order {
		pos[mod] = i
	}
	done := make(map[string]chan struct{}, len(order))
	for _, mod := range order {
		done[mod] = make(chan struct{})
	}

	searchDirs := append([]string{dir}, s.cfg.SearchDirs...)
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	for _, mod := range order {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer close(done[name])

			for _, dep := range graph.Dependencies(name) {
				ch, ok := done[dep]
				if !ok || pos[dep] >= pos[name] {
					continue
				}
				select {
				case <-ch:
				case <-ctx.Done():
					return
				}
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if _, err := s.cache.EnsureCompiled(ctx, name, searchDirs, s.cfg.ForceRecompile); err != nil {
				if s.logger.Enabled(ctx, slog.LevelDebug) {
					s.logger.LogAttrs(ctx, slog.LevelDebug, "module compile failed",
						slog.String("module", name), slog.String("error", err.Error()))
				}
			}
		}(mod)
	}
	wg.Wait()
}
