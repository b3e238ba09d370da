// Package compiler defines the external schema compiler collaborator: a
// process or WASM guest that turns MIB source into a JSON symbol artifact
// at a deterministic location under an artifact directory.
package compiler

import (
	"context"
	"path/filepath"
)

// Status is the per-module outcome reported by a compiler invocation.
type Status int

const (
	// StatusCompiled means an artifact was produced.
	StatusCompiled Status = iota
	// StatusMissing means the module's source could not be located.
	StatusMissing
	// StatusFailed means compilation was attempted and failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompiled:
		return "compiled"
	case StatusMissing:
		return "missing"
	default:
		return "failed"
	}
}

// Compiler is the external schema compiler collaborator. Compile builds the
// named module, searching searchPaths for source, and reports an outcome for
// the module itself plus any dependency modules it discovered to be missing.
// With ignoreErrors set the compiler emits a best-effort artifact even when
// the source has recoverable errors.
type Compiler interface {
	Compile(ctx context.Context, module string, searchPaths []string, ignoreErrors bool) (map[string]Status, error)
}

// ArtifactPath returns the deterministic artifact location for a module.
func ArtifactPath(artifactDir, module string) string {
	return filepath.Join(artifactDir, module+".json")
}
