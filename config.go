package mibflat

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Config controls a Service. The zero value is not usable; start from
// DefaultConfig or LoadConfig.
type Config struct {
	// ArtifactDir is where compiled JSON symbol artifacts live.
	ArtifactDir string `toml:"artifact_dir"`

	// SearchDirs are the directories scanned for MIB source when compiling
	// dependencies. The directory of the file being parsed is always
	// searched as well.
	SearchDirs []string `toml:"search_dirs"`

	// ForceRecompile ignores existing artifacts and recompiles every module.
	ForceRecompile bool `toml:"force_recompile"`

	// CleanupOnStartup sweeps invalid artifacts and expired cache entries
	// when the Service is constructed.
	CleanupOnStartup bool `toml:"cleanup_on_startup"`

	// Workers bounds concurrent compilations in ParseDir. Zero means
	// GOMAXPROCS.
	Workers int `toml:"workers"`

	Compiler CompilerConfig `toml:"compiler"`
	Cache    CacheConfig    `toml:"cache"`
}

// CompilerConfig selects and locates the external schema compiler.
type CompilerConfig struct {
	// Kind is "exec" for an external binary or "wasm" for a WebAssembly
	// guest.
	Kind string `toml:"kind"`

	// Path is the compiler binary or wasm blob.
	Path string `toml:"path"`
}

// CacheConfig controls the per-file result cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	// TTL expires entries by age. Zero disables expiry.
	TTL duration `toml:"ttl"`

	// MaxBytes bounds total stored payload. Zero disables the budget.
	MaxBytes int64 `toml:"max_bytes"`
}

// duration lets TOML carry values like "72h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns the baseline configuration: exec compiler named
// "mibdump" on PATH, artifacts under .mibflat, result cache disabled.
func DefaultConfig() Config {
	return Config{
		ArtifactDir: ".mibflat/artifacts",
		Workers:     runtime.GOMAXPROCS(0),
		Compiler: CompilerConfig{
			Kind: "exec",
			Path: "mibdump",
		},
		Cache: CacheConfig{
			Path: ".mibflat/results.db",
		},
	}
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.ArtifactDir == "" {
		return fmt.Errorf("artifact_dir must be set")
	}
	switch c.Compiler.Kind {
	case "exec", "wasm":
	default:
		return fmt.Errorf("unknown compiler kind %q", c.Compiler.Kind)
	}
	if c.Compiler.Path == "" {
		return fmt.Errorf("compiler path must be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return nil
}
