package symbols

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/golangsnmp/mibflat/internal/observability"
	"github.com/golangsnmp/mibflat/mib"
)

// maxNegativeEntries bounds the negative memo maps. Exceeding the bound
// drops every negative entry; positives are kept.
const maxNegativeEntries = 4096

// Materializer converts a loaded module's symbols into object records.
// Injected by the owner to keep record construction out of this package.
type Materializer func(mod *Module) []*mib.Object

// Index is the shared cross-module symbol table. One Index is constructed
// per run and passed explicitly to every worker; there is no package-level
// instance. A single mutex guards all state; MIB sets are modest, so
// correctness wins over lock granularity.
type Index struct {
	loader      Loader
	materialize Materializer
	logger      *slog.Logger

	mu            sync.Mutex
	modules       map[string]*Module // nil value = load failed (negative)
	allObjects    map[string]*mib.Object
	byOID         map[string]*mib.Object
	moduleObjects map[string][]*mib.Object

	tcMemo     map[string]*mib.TextualConvention // nil value = negative
	detailMemo map[string]*mib.ObjectDetail      // nil value = negative

	hits   uint64
	misses uint64
}

// Stats is a point-in-time snapshot of index cache effectiveness.
type Stats struct {
	Hits          uint64
	Misses        uint64
	LoadedModules int
	Objects       int
}

// NewIndex returns an empty index backed by the given loader.
func NewIndex(loader Loader, materialize Materializer, logger *slog.Logger) *Index {
	return &Index{
		loader:        loader,
		materialize:   materialize,
		logger:        logger,
		modules:       make(map[string]*Module),
		allObjects:    make(map[string]*mib.Object),
		byOID:         make(map[string]*mib.Object),
		moduleObjects: make(map[string][]*mib.Object),
		tcMemo:        make(map[string]*mib.TextualConvention),
		detailMemo:    make(map[string]*mib.ObjectDetail),
	}
}

// ModuleSymbols loads and memoizes a module's symbol table. A failed load is
// memoized too: the module is not retried until the index is discarded.
func (x *Index) ModuleSymbols(name string) (*Module, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.moduleSymbolsLocked(name)
}

func (x *Index) moduleSymbolsLocked(name string) (*Module, bool) {
	if mod, ok := x.modules[name]; ok {
		x.hit()
		return mod, mod != nil
	}
	x.miss()

	mod, err := x.loader.LoadModule(name)
	if err != nil {
		if x.logger != nil && x.logger.Enabled(context.Background(), slog.LevelDebug) {
			x.logger.LogAttrs(context.Background(), slog.LevelDebug, "module load failed",
				slog.String("module", name), slog.String("error", err.Error()))
		}
		x.modules[name] = nil
		return nil, false
	}

	x.modules[name] = mod
	x.registerLocked(mod)
	return mod, true
}

// registerLocked materializes a freshly loaded module's objects into the
// cross-module lookup maps. First registration wins on name collisions.
func (x *Index) registerLocked(mod *Module) {
	if x.materialize == nil {
		return
	}
	objs := x.materialize(mod)
	x.moduleObjects[mod.Name] = objs
	for _, obj := range objs {
		if _, exists := x.allObjects[obj.Name]; !exists {
			x.allObjects[obj.Name] = obj
		}
		if obj.OID != "" {
			if _, exists := x.byOID[obj.OID]; !exists {
				x.byOID[obj.OID] = obj
			}
		}
	}
}

// ModuleObjects returns the materialized records of a module, loading it on
// first access. The returned slice is shared; callers must treat records
// from foreign modules as read-only.
func (x *Index) ModuleObjects(name string) []*mib.Object {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.moduleSymbolsLocked(name); !ok {
		return nil
	}
	return x.moduleObjects[name]
}

// ObjectByName looks an object up across every loaded module.
func (x *Index) ObjectByName(name string) (*mib.Object, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	obj, ok := x.allObjects[name]
	if ok {
		x.hit()
	} else {
		x.miss()
	}
	return obj, ok
}

// ObjectByOID looks an object up by its dotted OID.
func (x *Index) ObjectByOID(oid string) (*mib.Object, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	obj, ok := x.byOID[oid]
	if ok {
		x.hit()
	} else {
		x.miss()
	}
	return obj, ok
}

// LoadedModules returns the names of successfully loaded modules, sorted.
func (x *Index) LoadedModules() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	names := make([]string, 0, len(x.modules))
	for name, mod := range x.modules {
		if mod != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// TCMemo returns the memoized TC resolution for a syntax name. The second
// result distinguishes "memoized as unresolvable" (nil, true) from "never
// looked up" (nil, false).
func (x *Index) TCMemo(name string) (*mib.TextualConvention, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	tc, ok := x.tcMemo[name]
	if ok {
		x.hit()
	} else {
		x.miss()
	}
	return tc, ok
}

// PutTCMemo records a TC resolution outcome; nil memoizes "not found".
func (x *Index) PutTCMemo(name string, tc *mib.TextualConvention) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if tc == nil {
		boundNegatives(x.tcMemo)
	}
	x.tcMemo[name] = tc
}

// DetailMemo returns the memoized external-object detail for a name.
func (x *Index) DetailMemo(name string) (*mib.ObjectDetail, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	d, ok := x.detailMemo[name]
	if ok {
		x.hit()
	} else {
		x.miss()
	}
	return d, ok
}

// PutDetailMemo records an external-object lookup outcome; nil memoizes
// "not found".
func (x *Index) PutDetailMemo(name string, d *mib.ObjectDetail) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if d == nil {
		boundNegatives(x.detailMemo)
	}
	x.detailMemo[name] = d
}

// boundNegatives drops all negative entries from a memo map once the
// negative count exceeds the bound, so "not found" caching cannot grow
// without limit in a long-lived index.
func boundNegatives[V any](memo map[string]*V) {
	negatives := 0
	for _, v := range memo {
		if v == nil {
			negatives++
		}
	}
	if negatives < maxNegativeEntries {
		return
	}
	for k, v := range memo {
		if v == nil {
			delete(memo, k)
		}
	}
}

// Stats returns hit/miss counters and current sizes.
func (x *Index) Stats() Stats {
	x.mu.Lock()
	defer x.mu.Unlock()
	loaded := 0
	for _, mod := range x.modules {
		if mod != nil {
			loaded++
		}
	}
	return Stats{
		Hits:          x.hits,
		Misses:        x.misses,
		LoadedModules: loaded,
		Objects:       len(x.allObjects),
	}
}

func (x *Index) hit() {
	x.hits++
	observability.SymbolIndexHitsTotal.Inc()
}

func (x *Index) miss() {
	x.misses++
	observability.SymbolIndexMissesTotal.Inc()
}
