package symbols

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golangsnmp/mibflat/compiler"
)

// Loader resolves a module name to its compiled symbol table.
type Loader interface {
	LoadModule(name string) (*Module, error)
}

// DirLoader reads JSON artifacts from the compilation artifact directory.
type DirLoader struct {
	ArtifactDir string
}

// LoadModule decodes the module's artifact. The caller is expected to have
// ensured compilation first; a missing artifact is an error here.
func (l *DirLoader) LoadModule(name string) (*Module, error) {
	path := compiler.ArtifactPath(l.ArtifactDir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact for %s: %w", name, err)
	}

	var doc artifactDoc
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decoding artifact for %s: %w", name, err)
	}
	if doc.Module == "" {
		doc.Module = name
	}

	mod := &Module{
		Name:     doc.Module,
		Revision: doc.Revision,
		Imports:  doc.Imports,
		Symbols:  make(map[string]Symbol, len(doc.Symbols)),
	}
	for symName, symDoc := range doc.Symbols {
		mod.Symbols[symName] = newSymbol(symName, symDoc)
	}
	return mod, nil
}
