package compile

import (
	"bytes"
	"os"
	"time"

	"github.com/golangsnmp/mibflat/compiler"
)

// Artifact describes a validated compiler output for one module.
type Artifact struct {
	Module  string
	Path    string
	Valid   bool
	Size    int64
	ModTime time.Time
}

const (
	// minArtifactSize rejects truncated or empty compiler output.
	minArtifactSize = 64

	// maxValidateBytes caps how much of an artifact the structural check
	// reads. Larger files fall back to size-only validation.
	maxValidateBytes = 4 << 20
)

var (
	markerModule  = []byte(`"module"`)
	markerSymbols = []byte(`"symbols"`)
)

// Validate checks the artifact at path: it must exist, meet the minimum
// size, and contain the structural markers every compiler artifact carries.
// When the file is too large for the structural scan, size alone decides.
func Validate(artifactDir, module string) Artifact {
	path := compiler.ArtifactPath(artifactDir, module)
	a := Artifact{Module: module, Path: path}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return a
	}
	a.Size = info.Size()
	a.ModTime = info.ModTime()

	if a.Size < minArtifactSize {
		return a
	}
	if a.Size > maxValidateBytes {
		a.Valid = true
		return a
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return a
	}
	a.Valid = bytes.Contains(content, markerModule) && bytes.Contains(content, markerSymbols)
	return a
}
