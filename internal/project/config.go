package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"cxxsema/internal/dialect"
)

// ConfigName is the file looked up by FindConfig.
const ConfigName = "cxxsema.toml"

var (
	// ErrNoConfig is returned when no cxxsema.toml exists between the start
	// directory and the filesystem root.
	ErrNoConfig = errors.New("no " + ConfigName + " found")
	// ErrInvalidConfig wraps every validation failure of a loaded file.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the decoded cxxsema.toml, with defaults for absent keys.
type Config struct {
	// Path is the file the config came from; empty for defaults.
	Path string `toml:"-"`

	Analysis AnalysisConfig `toml:"analysis"`
	Driver   DriverConfig   `toml:"driver"`
}

type AnalysisConfig struct {
	Dialect               string `toml:"dialect"`
	MaxDiagnostics        int    `toml:"max_diagnostics"`
	MaxInstantiationDepth int    `toml:"max_instantiation_depth"`
	MaxNesting            int    `toml:"max_nesting"`
}

type DriverConfig struct {
	Jobs       int      `toml:"jobs"` // 0 = GOMAXPROCS
	DiskCache  bool     `toml:"disk_cache"`
	Extensions []string `toml:"extensions"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			Dialect:               "auto",
			MaxDiagnostics:        100,
			MaxInstantiationDepth: 1024,
			MaxNesting:            4096,
		},
		Driver: DriverConfig{
			Extensions: []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp"},
		},
	}
}

// FindConfig walks up from startDir to locate cxxsema.toml. startDir may
// also name a file, in which case the search starts in its directory.
func FindConfig(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNoConfig
}

// LoadConfig decodes path over Default and validates the result. Unknown
// keys are rejected so that typos do not pass silently.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalidConfig, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads the config governing startDir. Without a file
// it returns Default together with ErrNoConfig.
func Discover(startDir string) (Config, error) {
	path, err := FindConfig(startDir)
	if err != nil {
		return Default(), err
	}
	return LoadConfig(path)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := dialect.Parse(c.Analysis.Dialect); err != nil {
		return fmt.Errorf("%w: [analysis] %w", ErrInvalidConfig, err)
	}
	switch {
	case c.Analysis.MaxDiagnostics < 0:
		return fmt.Errorf("%w: [analysis] max_diagnostics must not be negative", ErrInvalidConfig)
	case c.Analysis.MaxInstantiationDepth < 0:
		return fmt.Errorf("%w: [analysis] max_instantiation_depth must not be negative", ErrInvalidConfig)
	case c.Analysis.MaxNesting < 0:
		return fmt.Errorf("%w: [analysis] max_nesting must not be negative", ErrInvalidConfig)
	case c.Driver.Jobs < 0:
		return fmt.Errorf("%w: [driver] jobs must not be negative", ErrInvalidConfig)
	}
	for _, ext := range c.Driver.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: [driver] extension %q must start with a dot", ErrInvalidConfig, ext)
		}
	}
	return nil
}

// DialectKind returns the configured dialect; Unknown means auto.
func (c Config) DialectKind() dialect.Kind {
	k, err := dialect.Parse(c.Analysis.Dialect)
	if err != nil {
		return dialect.Unknown
	}
	return k
}

// Accepts reports whether a directory walk should pick up path.
func (c Config) Accepts(path string) bool {
	return slices.Contains(c.Driver.Extensions, filepath.Ext(path))
}
