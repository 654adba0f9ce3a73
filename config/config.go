// Package config loads the YAML configuration shared by the command-line
// tools: where the verifier module lives, how to run it, how to log and
// where proof fixtures come from.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/verifier"
)

// Defaults
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultFixturesDir  = "fixtures"
	DefaultFetchTimeout = 15 * time.Second
	maxMemoryLimitPages = 65536
)

// Config is the root of the configuration file.
type Config struct {
	Module   ModuleConfig   `yaml:"module"`
	Log      LogConfig      `yaml:"log"`
	Fixtures FixturesConfig `yaml:"fixtures"`
}

// ModuleConfig locates and tunes the verifier module.
type ModuleConfig struct {
	Path                string `yaml:"path"`
	CompilationCacheDir string `yaml:"compilation_cache_dir"`
	MemoryLimitPages    uint32 `yaml:"memory_limit_pages"`
	Interpreter         bool   `yaml:"interpreter"`
}

// LogConfig selects the zap logger flavor.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FixturesConfig locates proof fixtures on disk and over HTTP.
type FixturesConfig struct {
	Dir     string        `yaml:"dir"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads the YAML file at path, applies defaults with relative paths
// resolved against the file's directory, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.InvalidInput(errors.PhaseConfig, "config path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, fmt.Sprintf("read config %q", path))
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, fmt.Sprintf("parse config %q", path))
	}

	cfg.applyDefaults(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults("")
	return cfg
}

func (c *Config) applyDefaults(baseDir string) {
	if c.Module.Path == "" {
		c.Module.Path = verifier.DefaultModulePath
	}
	c.Module.Path = resolve(baseDir, c.Module.Path)

	if c.Module.CompilationCacheDir != "" {
		c.Module.CompilationCacheDir = resolve(baseDir, c.Module.CompilationCacheDir)
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	if c.Fixtures.Dir == "" {
		c.Fixtures.Dir = DefaultFixturesDir
	}
	c.Fixtures.Dir = resolve(baseDir, c.Fixtures.Dir)

	if c.Fixtures.Timeout == 0 {
		c.Fixtures.Timeout = DefaultFetchTimeout
	}
	c.Fixtures.BaseURL = strings.TrimRight(c.Fixtures.BaseURL, "/")
}

func resolve(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}

	if c.Module.MemoryLimitPages > maxMemoryLimitPages {
		return invalid("module.memory_limit_pages", "%d exceeds %d pages", c.Module.MemoryLimitPages, maxMemoryLimitPages)
	}

	if c.Fixtures.Timeout < 0 {
		return invalid("fixtures.timeout", "must be positive, got %s", c.Fixtures.Timeout)
	}

	if c.Fixtures.BaseURL != "" {
		u, err := url.Parse(c.Fixtures.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("fixtures.base_url", "want an http(s) URL, got %q", c.Fixtures.BaseURL)
		}
	}
	return nil
}

// VerifierOptions translates the module settings into verifier options.
func (c *Config) VerifierOptions(logger *zap.Logger) []verifier.Option {
	opts := []verifier.Option{
		verifier.WithInterpreter(c.Module.Interpreter),
	}
	if logger != nil {
		opts = append(opts, verifier.WithLogger(logger))
	}
	if c.Module.MemoryLimitPages > 0 {
		opts = append(opts, verifier.WithMemoryLimitPages(c.Module.MemoryLimitPages))
	}
	if c.Module.CompilationCacheDir != "" {
		opts = append(opts, verifier.WithCompilationCacheDir(c.Module.CompilationCacheDir))
	}
	return opts
}

func invalid(field, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(field).
		Detail(format, args...).
		Build()
}
