// Package deps extracts per-module import lists from MIB source text and
// orders modules so that dependencies are compiled before dependents.
package deps

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

// stubModules are the foundational SMI modules every compiler ships
// pre-built; they never need to be located or compiled from source.
var stubModules = map[string]bool{
	"SNMPv2-SMI":            true,
	"SNMPv2-TC":             true,
	"SNMPv2-CONF":           true,
	"SNMPv2-MIB":            true,
	"RFC1155-SMI":           true,
	"RFC1065-SMI":           true,
	"RFC1158-MIB":           true,
	"RFC-1212":              true,
	"RFC-1215":              true,
	"RFC1213-MIB":           true,
	"IANAifType-MIB":        true,
	"INET-ADDRESS-MIB":      true,
	"TRANSPORT-ADDRESS-MIB": true,
}

// IsStubModule reports whether name is in the foundational stub set.
func IsStubModule(name string) bool { return stubModules[name] }

var (
	importsClauseRe = regexp.MustCompile(`(?s)IMPORTS(.*?);`)
	fromModuleRe    = regexp.MustCompile(`FROM\s+([A-Za-z][A-Za-z0-9-]*)`)
)

// ExtractImports returns every module named in a FROM clause of the source's
// IMPORTS section, in first-seen order, duplicates removed.
func ExtractImports(src []byte) []string {
	clause := importsClauseRe.FindSubmatch(src)
	if clause == nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, m := range fromModuleRe.FindAllSubmatch(clause[1], -1) {
		name := string(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// GraphImports is ExtractImports with the stub set excluded. These are the
// dependencies that must actually be located and compiled.
func GraphImports(src []byte) []string {
	var out []string
	for _, name := range ExtractImports(src) {
		if !stubModules[name] {
			out = append(out, name)
		}
	}
	return out
}

var moduleNameRe = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9-]*)\s+DEFINITIONS\s*(?:::=|\w)`)

// ModuleName returns the module name declared in the DEFINITIONS header,
// or "" if none is found.
func ModuleName(src []byte) string {
	if m := moduleNameRe.FindSubmatch(src); m != nil {
		return string(m[1])
	}
	return ""
}

// ModuleNameFromPath derives a module name from a file path by stripping
// the extension, the usual convention for MIB distribution trees.
func ModuleNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	sigDefinitions = []byte("DEFINITIONS")
	sigAssign      = []byte("::=")
)

const (
	binaryCheckSize = 1024
	maxProbeSize    = 128 * 1024
)

// LooksLikeMIB reports whether content plausibly is MIB source: no binary
// bytes in the head and both the DEFINITIONS keyword and an assignment
// within the probe window.
func LooksLikeMIB(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	checkLen := min(binaryCheckSize, len(content))
	if bytes.IndexByte(content[:checkLen], 0) >= 0 {
		return false
	}

	probe := content[:min(maxProbeSize, len(content))]
	return bytes.Contains(probe, sigDefinitions) && bytes.Contains(probe, sigAssign)
}
