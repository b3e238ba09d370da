package compile

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangsnmp/mibflat/compiler"
)

// validArtifact is large enough and carries the structural markers.
func validArtifact(module string) []byte {
	return []byte(fmt.Sprintf(`{"module": %q, "symbols": {"testObject": {"class": "objecttype", "oid": [1, 3, 6, 1]}}}`, module))
}

// fakeCompiler writes artifacts directly and counts invocations.
type fakeCompiler struct {
	dir   string
	calls atomic.Int64

	mu       sync.Mutex
	statuses map[string]compiler.Status
	payload  func(module string) []byte
}

func newFakeCompiler(dir string) *fakeCompiler {
	return &fakeCompiler{dir: dir, payload: validArtifact}
}

func (f *fakeCompiler) Compile(_ context.Context, module string, _ []string, _ bool) (map[string]compiler.Status, error) {
	f.calls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]compiler.Status{module: compiler.StatusCompiled}
	for mod, st := range f.statuses {
		out[mod] = st
	}
	if st, ok := f.statuses[module]; ok && st != compiler.StatusCompiled {
		return out, nil
	}
	if err := os.WriteFile(compiler.ArtifactPath(f.dir, module), f.payload(module), 0o644); err != nil {
		return nil, err
	}
	return out, nil
}

func TestEnsureCompiledProducesArtifact(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	cache := NewCache(dir, fake, nil)

	a, err := cache.EnsureCompiled(context.Background(), "IF-MIB", nil, false)
	require.NoError(t, err)
	assert.True(t, a.Valid)
	assert.Equal(t, "IF-MIB", a.Module)
	assert.Equal(t, int64(1), fake.calls.Load())
}

func TestEnsureCompiledReusesArtifact(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	cache := NewCache(dir, fake, nil)

	_, err := cache.EnsureCompiled(context.Background(), "IF-MIB", nil, false)
	require.NoError(t, err)
	_, err = cache.EnsureCompiled(context.Background(), "IF-MIB", nil, false)
	require.NoError(t, err)

	assert.Equal(t, int64(1), fake.calls.Load(), "second call must hit the existing artifact")
}

func TestEnsureCompiledForceRecompiles(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	cache := NewCache(dir, fake, nil)

	_, err := cache.EnsureCompiled(context.Background(), "IF-MIB", nil, false)
	require.NoError(t, err)
	_, err = cache.EnsureCompiled(context.Background(), "IF-MIB", nil, true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), fake.calls.Load())
}

func TestEnsureCompiledConcurrentSingleInvocation(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	cache := NewCache(dir, fake, nil)

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.EnsureCompiled(context.Background(), "ENTITY-MIB", nil, false)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), fake.calls.Load(),
		"concurrent callers for one module must share a single compile")
}

func TestEnsureCompiledDistinctModulesIndependent(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	cache := NewCache(dir, fake, nil)

	var wg sync.WaitGroup
	for _, mod := range []string{"A-MIB", "B-MIB", "C-MIB"} {
		wg.Add(1)
		go func(mod string) {
			defer wg.Done()
			_, err := cache.EnsureCompiled(context.Background(), mod, nil, false)
			assert.NoError(t, err)
		}(mod)
	}
	wg.Wait()

	assert.Equal(t, int64(3), fake.calls.Load())
}

func TestEnsureCompiledRetriesCorruptOutput(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	cache := NewCache(dir, fake, nil)

	// First attempt emits truncated garbage, second a proper artifact.
	first := true
	fake.payload = func(module string) []byte {
		if first {
			first = false
			return []byte("{}")
		}
		return validArtifact(module)
	}

	a, err := cache.EnsureCompiled(context.Background(), "FLAKY-MIB", nil, false)
	require.NoError(t, err)
	assert.True(t, a.Valid)
	assert.Equal(t, int64(2), fake.calls.Load())
}

func TestEnsureCompiledPersistentCorruptionFails(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	fake.payload = func(string) []byte { return []byte("not json at all") }
	cache := NewCache(dir, fake, nil)

	_, err := cache.EnsureCompiled(context.Background(), "BROKEN-MIB", nil, false)
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.Equal(t, int64(2), fake.calls.Load(), "one retry, then give up")

	// The corrupt artifact must not be left behind.
	_, statErr := os.Stat(compiler.ArtifactPath(dir, "BROKEN-MIB"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureCompiledReportedFailure(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	fake.statuses = map[string]compiler.Status{"BAD-MIB": compiler.StatusFailed}
	cache := NewCache(dir, fake, nil)

	_, err := cache.EnsureCompiled(context.Background(), "BAD-MIB", nil, false)
	require.ErrorIs(t, err, ErrCompileFailed)
}

func TestDrainMissing(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeCompiler(dir)
	fake.statuses = map[string]compiler.Status{
		"ZZZ-MIB": compiler.StatusMissing,
		"AAA-MIB": compiler.StatusMissing,
	}
	cache := NewCache(dir, fake, nil)

	_, err := cache.EnsureCompiled(context.Background(), "TOP-MIB", nil, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA-MIB", "ZZZ-MIB"}, cache.DrainMissing(), "sorted")
	assert.Nil(t, cache.DrainMissing(), "drained set is cleared")
}

func TestCleanupInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(compiler.ArtifactPath(dir, "GOOD-MIB"), validArtifact("GOOD-MIB"), 0o644))
	require.NoError(t, os.WriteFile(compiler.ArtifactPath(dir, "TRUNCATED-MIB"), []byte("{"), 0o644))

	cache := NewCache(dir, newFakeCompiler(dir), nil)
	assert.Equal(t, 1, cache.CleanupInvalid())

	assert.True(t, Validate(dir, "GOOD-MIB").Valid)
	_, err := os.Stat(compiler.ArtifactPath(dir, "TRUNCATED-MIB"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	assert.False(t, Validate(dir, "ABSENT-MIB").Valid)

	require.NoError(t, os.WriteFile(compiler.ArtifactPath(dir, "SMALL-MIB"), []byte(`{"module":"x"}`), 0o644))
	assert.False(t, Validate(dir, "SMALL-MIB").Valid, "below the minimum size")

	require.NoError(t, os.WriteFile(compiler.ArtifactPath(dir, "OK-MIB"), validArtifact("OK-MIB"), 0o644))
	a := Validate(dir, "OK-MIB")
	assert.True(t, a.Valid)
	assert.Greater(t, a.Size, int64(0))
}
