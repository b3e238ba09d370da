package compiler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/golangsnmp/mibflat/internal/deps"
)

// Error codes reported by the WASM compiler.
const (
	wasmOK            = 0
	wasmInvalidInput  = 1
	wasmParseError    = 2
	wasmResolveError  = 3
	wasmInternalError = 4
)

// sourceExtensions are tried in order when locating a module file.
var sourceExtensions = []string{"", ".mib", ".smi", ".txt", ".my"}

// WasmCompiler runs a schema compiler compiled to WebAssembly. The host
// locates MIB source on disk, stages it into the guest, and writes the
// resulting artifact JSON under the artifact directory.
//
// A WasmCompiler instance holds a single guest; a mutex serializes calls.
type WasmCompiler struct {
	artifactDir string

	mu      sync.Mutex
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module

	fnAlloc   api.Function
	fnDealloc api.Function
	fnLoad    api.Function
	fnCompile api.Function
	fnResult  api.Function
	fnError   api.Function
	fnReset   api.Function
}

// NewWasmCompiler instantiates the compiler guest from a wasm binary on disk.
// The context bounds the guest's lifetime; call Close when done.
func NewWasmCompiler(ctx context.Context, wasmPath, artifactDir string) (*WasmCompiler, error) {
	wasmBytes, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("reading compiler wasm: %w", err)
	}

	runtime := wazero.NewRuntime(ctx)
	module, err := runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating compiler wasm: %w", err)
	}

	w := &WasmCompiler{
		artifactDir: artifactDir,
		ctx:         ctx,
		runtime:     runtime,
		module:      module,
		fnAlloc:     module.ExportedFunction("mibc_alloc"),
		fnDealloc:   module.ExportedFunction("mibc_dealloc"),
		fnLoad:      module.ExportedFunction("mibc_load"),
		fnCompile:   module.ExportedFunction("mibc_compile"),
		fnResult:    module.ExportedFunction("mibc_result"),
		fnError:     module.ExportedFunction("mibc_error"),
		fnReset:     module.ExportedFunction("mibc_reset"),
	}

	var missing []string
	for _, exp := range []struct {
		name string
		fn   api.Function
	}{
		{"mibc_alloc", w.fnAlloc},
		{"mibc_dealloc", w.fnDealloc},
		{"mibc_load", w.fnLoad},
		{"mibc_compile", w.fnCompile},
		{"mibc_result", w.fnResult},
		{"mibc_error", w.fnError},
		{"mibc_reset", w.fnReset},
	} {
		if exp.fn == nil {
			missing = append(missing, exp.name)
		}
	}
	if len(missing) > 0 {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("compiler wasm missing exports: %v", missing)
	}

	return w, nil
}

// Close releases the guest runtime.
func (w *WasmCompiler) Close() error {
	return w.runtime.Close(w.ctx)
}

// Compile stages the module's source plus every import it can locate, runs
// the guest compiler, and writes the artifact. Imports whose source cannot
// be found are reported as missing; the guest still compiles best-effort
// when ignoreErrors is set.
func (w *WasmCompiler) Compile(ctx context.Context, module string, searchPaths []string, ignoreErrors bool) (map[string]Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	statuses := make(map[string]Status)

	src, _, err := findSource(searchPaths, module)
	if err != nil {
		statuses[module] = StatusMissing
		return statuses, nil
	}

	if _, err := w.fnReset.Call(w.ctx); err != nil {
		return nil, fmt.Errorf("resetting guest: %w", err)
	}

	if err := w.stage(src); err != nil {
		statuses[module] = StatusFailed
		return statuses, nil
	}

	for _, imp := range deps.GraphImports(src) {
		depSrc, _, err := findSource(searchPaths, imp)
		if err != nil {
			statuses[imp] = StatusMissing
			continue
		}
		if err := w.stage(depSrc); err != nil {
			statuses[imp] = StatusFailed
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	results, err := w.fnCompile.Call(w.ctx, boolArg(ignoreErrors))
	if err != nil {
		return nil, fmt.Errorf("compile call failed: %w", err)
	}
	if code := uint32(results[0]); code != wasmOK {
		statuses[module] = StatusFailed
		return statuses, fmt.Errorf("compiler error (code %d): %s", code, w.lastError())
	}

	artifact, err := w.readResult()
	if err != nil {
		return nil, err
	}
	path := ArtifactPath(w.artifactDir, module)
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		return nil, fmt.Errorf("writing artifact: %w", err)
	}

	statuses[module] = StatusCompiled
	return statuses, nil
}

// stage copies one MIB source into guest memory and hands it to the staging
// area.
func (w *WasmCompiler) stage(source []byte) error {
	if len(source) == 0 {
		return nil
	}

	results, err := w.fnAlloc.Call(w.ctx, uint64(len(source)))
	if err != nil {
		return fmt.Errorf("alloc failed: %w", err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return errors.New("guest allocation failed")
	}
	defer func() { _, _ = w.fnDealloc.Call(w.ctx, uint64(ptr), uint64(len(source))) }()

	if !w.module.Memory().Write(ptr, source) {
		return errors.New("guest memory write failed")
	}

	results, err = w.fnLoad.Call(w.ctx, uint64(ptr), uint64(len(source)))
	if err != nil {
		return fmt.Errorf("load call failed: %w", err)
	}
	if code := uint32(results[0]); code != wasmOK {
		return fmt.Errorf("stage error (code %d): %s", code, w.lastError())
	}
	return nil
}

// readResult reads the length-prefixed artifact produced by the last
// compile, copying it out of guest memory before it can be invalidated.
func (w *WasmCompiler) readResult() ([]byte, error) {
	results, err := w.fnResult.Call(w.ctx)
	if err != nil {
		return nil, fmt.Errorf("result call failed: %w", err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return nil, errors.New("no artifact available")
	}

	lenBytes, ok := w.module.Memory().Read(ptr, 4)
	if !ok {
		return nil, errors.New("reading artifact length failed")
	}
	size := binary.LittleEndian.Uint32(lenBytes)

	data, ok := w.module.Memory().Read(ptr+4, size)
	if !ok {
		return nil, errors.New("reading artifact data failed")
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (w *WasmCompiler) lastError() string {
	results, err := w.fnError.Call(w.ctx)
	if err != nil || results[0] == 0 {
		return "unknown error"
	}
	ptr := uint32(results[0])

	lenBytes, ok := w.module.Memory().Read(ptr, 4)
	if !ok {
		return "unknown error"
	}
	size := binary.LittleEndian.Uint32(lenBytes)

	msg, ok := w.module.Memory().Read(ptr+4, size)
	if !ok {
		return "unknown error"
	}
	return string(msg)
}

func boolArg(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// findSource locates a module's source file in the search directories,
// trying the usual extensions in order.
func findSource(searchPaths []string, module string) ([]byte, string, error) {
	for _, dir := range searchPaths {
		for _, ext := range sourceExtensions {
			path := filepath.Join(dir, module+ext)
			content, err := os.ReadFile(path)
			if err == nil {
				return content, path, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, path, err
			}
		}
	}
	return nil, "", fs.ErrNotExist
}
