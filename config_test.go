package mibflat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mibflat.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
artifact_dir = "/var/lib/mibflat/artifacts"
search_dirs = ["/usr/share/mibs", "/opt/vendor/mibs"]
force_recompile = true
cleanup_on_startup = true
workers = 4

[compiler]
kind = "wasm"
path = "/usr/lib/mibflat/mibc.wasm"

[cache]
enabled = true
path = "/var/lib/mibflat/results.db"
ttl = "72h"
max_bytes = 104857600
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/mibflat/artifacts", cfg.ArtifactDir)
	assert.Equal(t, []string{"/usr/share/mibs", "/opt/vendor/mibs"}, cfg.SearchDirs)
	assert.True(t, cfg.ForceRecompile)
	assert.True(t, cfg.CleanupOnStartup)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "wasm", cfg.Compiler.Kind)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 72*time.Hour, cfg.Cache.TTL.Duration)
	assert.Equal(t, int64(104857600), cfg.Cache.MaxBytes)
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.toml")
	require.NoError(t, os.WriteFile(path, []byte(`search_dirs = ["/mibs"]`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ".mibflat/artifacts", cfg.ArtifactDir, "defaults survive a partial file")
	assert.Equal(t, "exec", cfg.Compiler.Kind)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadConfigRejectsUnknownCompiler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[compiler]
kind = "carrier-pigeon"
path = "/bin/coo"
`), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
