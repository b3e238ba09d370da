package enrich

import (
	"regexp"

	"github.com/golangsnmp/mibflat/internal/deps"
	"github.com/golangsnmp/mibflat/internal/symbols"
	"github.com/golangsnmp/mibflat/mib"
)

var lastUpdatedRe = regexp.MustCompile(`LAST-UPDATED\s*"([^"]*)"`)

// stampModuleMeta extracts the module revision and import list once and
// stamps them onto every record of the batch.
func (p *Pipeline) stampModuleMeta(objs []*mib.Object, mod *symbols.Module, src []byte) {
	revision := mod.Revision
	if revision == "" {
		if m := lastUpdatedRe.FindSubmatch(src); m != nil {
			revision = string(m[1])
		}
	}

	imports := mod.Imports
	if len(imports) == 0 {
		imports = deps.ExtractImports(src)
	}

	for _, obj := range objs {
		obj.ModuleRevision = revision
		obj.ModuleImports = imports
	}
}
