package mibflat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindModuleSource(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(second, "IF-MIB.mib"), []byte("if-mib source"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "CISCO-SMI"), []byte("bare name source"), 0o644))

	content, path, err := findModuleSource([]string{first, second}, "IF-MIB")
	require.NoError(t, err)
	assert.Equal(t, "if-mib source", string(content))
	assert.Equal(t, filepath.Join(second, "IF-MIB.mib"), path)

	content, _, err = findModuleSource([]string{first, second}, "CISCO-SMI")
	require.NoError(t, err)
	assert.Equal(t, "bare name source", string(content))

	_, _, err = findModuleSource([]string{first, second}, "NOWHERE-MIB")
	require.Error(t, err)
}

func TestListMIBFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"B-MIB.mib", "A-MIB", "c.txt", "ignore.json", ".hidden"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	files, err := listMIBFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "A-MIB"),
		filepath.Join(dir, "B-MIB.mib"),
		filepath.Join(dir, "c.txt"),
	}, files)
}
