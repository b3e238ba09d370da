package mibflat

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golangsnmp/mibflat/internal/deps"
)

// sourceExtensions are tried in order when resolving a module name to a file.
var sourceExtensions = []string{"", ".mib", ".smi", ".txt", ".my"}

// findModuleSource locates a module's source text in the search directories.
func findModuleSource(searchDirs []string, module string) ([]byte, string, error) {
	for _, dir := range searchDirs {
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

// listMIBFiles returns the plausible MIB files directly under dir, sorted by
// name. Directories and files with unrelated extensions are skipped; files
// without an extension are kept, the common layout for vendor MIB trees.
func listMIBFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case "", ".mib", ".smi", ".txt", ".my":
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// readMIBFile reads a file and verifies it plausibly contains MIB source.
func readMIBFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if !deps.LooksLikeMIB(content) {
		return nil, ErrNotMIB
	}
	return content, nil
}
