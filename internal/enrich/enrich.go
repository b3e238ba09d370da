// Package enrich runs the ordered semantic-resolution passes over one
// file's extracted records: description backfill, module metadata, parent
// resolution, textual-convention chains, and notification object resolution.
// Each pass is a single scan over the batch; records are filled in place.
package enrich

import (
	"context"
	"log/slog"

	"github.com/golangsnmp/mibflat/internal/symbols"
	"github.com/golangsnmp/mibflat/mib"
)

// levelTrace is the per-item iteration log level, below Debug.
const levelTrace = slog.Level(-8)

// SourceFinder resolves a module name to its raw source text, for the
// passes that scan source directly. Returns the text and the path it was
// read from.
type SourceFinder func(module string) ([]byte, string, error)

// Pipeline owns the per-run state shared by the passes: the cross-module
// symbol index and a memo of loaded module sources. A Pipeline is used by
// one parse invocation at a time.
type Pipeline struct {
	index  *symbols.Index
	finder SourceFinder
	logger *slog.Logger

	sources map[string][]byte // module -> raw source, nil = lookup failed
}

// New returns a pipeline over the given shared index.
func New(index *symbols.Index, finder SourceFinder, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		index:   index,
		finder:  finder,
		logger:  logger,
		sources: make(map[string][]byte),
	}
}

// Run enriches one file's batch in pass order. mod is the loaded artifact
// the batch came from, src its raw source text. Resolution failures leave
// fields unresolved; they never abort the batch.
func (p *Pipeline) Run(ctx context.Context, objs []*mib.Object, mod *symbols.Module, src []byte) {
	if len(objs) == 0 {
		return
	}
	p.sources[mod.Name] = src

	p.backfillDescriptions(ctx, objs, src)
	p.stampModuleMeta(objs, mod, src)
	p.resolveParents(objs)
	p.resolveTypeChains(ctx, objs, mod)
	p.resolveNotificationObjects(ctx, objs)
}

// moduleSource loads and memoizes a module's raw source text. A failed
// lookup is memoized as nil and not retried.
func (p *Pipeline) moduleSource(module string) []byte {
	if src, ok := p.sources[module]; ok {
		return src
	}
	var src []byte
	if p.finder != nil {
		if content, _, err := p.finder(module); err == nil {
			src = content
		}
	}
	p.sources[module] = src
	return src
}

func (p *Pipeline) logEnabled(level slog.Level) bool {
	return p.logger != nil && p.logger.Enabled(context.Background(), level)
}
