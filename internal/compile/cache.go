// Package compile wraps the external schema compiler behind a thread-safe
// per-module compilation cache. It guarantees at-most-one external
// compilation per module name across concurrent callers and validates every
// artifact before handing it out.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/golangsnmp/mibflat/compiler"
	"github.com/golangsnmp/mibflat/internal/observability"
)

// ErrCompileFailed is returned when the external compiler could not produce
// a valid artifact for a module. It is non-fatal per module: the caller
// decides whether to skip the file.
var ErrCompileFailed = errors.New("module compilation failed")

// Cache serializes external compilations per module name. Concurrent callers
// for the same module wait on a single in-flight compile instead of racing;
// callers for different modules proceed independently.
type Cache struct {
	artifactDir string
	compiler    compiler.Compiler
	logger      *slog.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
	missing  map[string]struct{}
}

// NewCache returns a cache writing artifacts under artifactDir.
func NewCache(artifactDir string, c compiler.Compiler, logger *slog.Logger) *Cache {
	return &Cache{
		artifactDir: artifactDir,
		compiler:    c,
		logger:      logger,
		inflight:    make(map[string]chan struct{}),
		missing:     make(map[string]struct{}),
	}
}

// EnsureCompiled returns a valid artifact for the module, invoking the
// external compiler at most once per module across concurrent callers.
// searchPaths are handed through to the compiler. With force set an existing
// artifact is ignored and the module is recompiled.
func (c *Cache) EnsureCompiled(ctx context.Context, module string, searchPaths []string, force bool) (Artifact, error) {
	// Fast path: no lock needed to probe an existing artifact.
	if !force {
		if a := Validate(c.artifactDir, module); a.Valid {
			return a, nil
		}
	}

	for {
		c.mu.Lock()

		// Another caller may have finished while we were waiting.
		if !force {
			if a := Validate(c.artifactDir, module); a.Valid {
				c.mu.Unlock()
				return a, nil
			}
		}

		wait, inProgress := c.inflight[module]
		if !inProgress {
			done := make(chan struct{})
			c.inflight[module] = done
			c.mu.Unlock()

			a, err := c.compileOnce(ctx, module, searchPaths)

			c.mu.Lock()
			delete(c.inflight, module)
			c.mu.Unlock()
			close(done)

			return a, err
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return Artifact{Module: module}, ctx.Err()
		case <-wait:
		}

		// The in-flight compile finished; loop to validate its result. A
		// force caller stops forcing here: the fresh compile just observed
		// is the recompilation it asked for.
		force = false
		if a := Validate(c.artifactDir, module); a.Valid {
			return a, nil
		}
		return Artifact{Module: module}, fmt.Errorf("%w: %s", ErrCompileFailed, module)
	}
}

// compileOnce invokes the external compiler and validates the output,
// deleting and retrying once on a corrupt artifact.
func (c *Cache) compileOnce(ctx context.Context, module string, searchPaths []string) (Artifact, error) {
	for attempt := 0; attempt < 2; attempt++ {
		observability.CompileInvocationsTotal.Inc()
		if c.logEnabled(slog.LevelDebug) {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "compiling module",
				slog.String("module", module), slog.Int("attempt", attempt+1))
		}

		statuses, err := c.compiler.Compile(ctx, module, searchPaths, true)
		if err != nil {
			observability.CompileFailuresTotal.Inc()
			c.discardArtifact(module)
			return Artifact{Module: module}, fmt.Errorf("%w: %s: %v", ErrCompileFailed, module, err)
		}
		c.recordMissing(module, statuses)

		if st, ok := statuses[module]; ok && st != compiler.StatusCompiled {
			observability.CompileFailuresTotal.Inc()
			c.discardArtifact(module)
			return Artifact{Module: module}, fmt.Errorf("%w: %s: compiler reported %s", ErrCompileFailed, module, st)
		}

		a := Validate(c.artifactDir, module)
		if a.Valid {
			return a, nil
		}

		// Corrupt output: delete and retry once, then give up.
		c.discardArtifact(module)
		if c.logEnabled(slog.LevelWarn) {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "corrupt artifact discarded",
				slog.String("module", module), slog.Int64("size", a.Size))
		}
	}

	observability.CompileFailuresTotal.Inc()
	return Artifact{Module: module}, fmt.Errorf("%w: %s: artifact failed validation", ErrCompileFailed, module)
}

func (c *Cache) discardArtifact(module string) {
	_ = os.Remove(compiler.ArtifactPath(c.artifactDir, module))
}

func (c *Cache) recordMissing(requested string, statuses map[string]compiler.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for mod, st := range statuses {
		if st == compiler.StatusMissing && mod != requested {
			c.missing[mod] = struct{}{}
		}
	}
}

// DrainMissing returns the dependency modules the compiler reported missing
// since the last drain, sorted, and clears the set. Called once per batch.
func (c *Cache) DrainMissing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.missing) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.missing))
	for mod := range c.missing {
		out = append(out, mod)
	}
	c.missing = make(map[string]struct{})
	sort.Strings(out)
	return out
}

// CleanupInvalid removes artifacts that fail validation. Called at startup
// when the cleanup flag is set.
func (c *Cache) CleanupInvalid() int {
	entries, err := os.ReadDir(c.artifactDir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) < len(".json") || name[len(name)-len(".json"):] != ".json" {
			continue
		}
		module := name[:len(name)-len(".json")]
		if a := Validate(c.artifactDir, module); !a.Valid {
			c.discardArtifact(module)
			removed++
		}
	}
	return removed
}

func (c *Cache) logEnabled(level slog.Level) bool {
	return c.logger != nil && c.logger.Enabled(context.Background(), level)
}
