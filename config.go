package extsigner

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agiangrant/extsigner/internal/ffi"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

// DefaultLibraryName is the logical name the native crate is published
// under.
const DefaultLibraryName = "rust_crypto_lib_base"

// DefaultConfigFile is read by LoadConfig when no path is given.
const DefaultConfigFile = "extsigner.toml"

// Environment overrides applied by Config.ApplyEnv.
const (
	EnvLibPath  = "EXTSIGNER_LIB_PATH"
	EnvBaseDir  = "EXTSIGNER_BASE_DIR"
	EnvLogLevel = "EXTSIGNER_LOG_LEVEL"
)

// Config represents the extsigner.toml configuration file
type Config struct {
	Library LibraryConfig `toml:"library"`
	Build   BuildConfig   `toml:"build"`
	Log     LogConfig     `toml:"log"`
}

// LibraryConfig selects the native module to load.
type LibraryConfig struct {
	// Logical library name, without prefix or extension
	Name string `toml:"name"`
	// Directory searched for the flat and runtimes/ layouts.
	// Empty means the directory of the executable.
	BaseDir string `toml:"base_dir"`
	// Exact file to load; bypasses resolution when set
	Path string `toml:"path"`
}

type BuildConfig struct {
	// Rust crate producing the cdylib
	CrateDir string `toml:"crate_dir"`
	// Directory that receives the runtimes/ tree
	OutputDir string `toml:"output_dir"`
	Release   bool   `toml:"release"`
	// Runtime identifiers to build, e.g. "linux-x64"
	Targets []string `toml:"targets"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Library: LibraryConfig{
			Name: DefaultLibraryName,
		},
		Build: BuildConfig{
			CrateDir:  ".",
			OutputDir: "dist",
			Release:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads the configuration from path, or from extsigner.toml
// when path is empty. A missing file yields the default configuration.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if config.Library.Name == "" {
		config.Library.Name = DefaultLibraryName
	}
	return config, nil
}

// SaveConfig writes config to path.
func SaveConfig(path string, config Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from EXTSIGNER_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLibPath); v != "" {
		c.Library.Path = v
	}
	if v := os.Getenv(EnvBaseDir); v != "" {
		c.Library.BaseDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Library.Path == "" {
		if c.Library.Name == "" {
			return errors.New("library.name is required")
		}
		if strings.ContainsAny(c.Library.Name, `/\`) {
			return fmt.Errorf("library.name %q must not contain a path", c.Library.Name)
		}
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format %q: want console or json", c.Log.Format)
	}
	for _, rid := range c.Build.Targets {
		if _, err := ffi.ParseRID(rid); err != nil {
			return fmt.Errorf("build.targets: %w", err)
		}
	}
	return nil
}
