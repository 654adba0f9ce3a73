package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/verifier"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verifier.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Module.Path != verifier.DefaultModulePath {
		t.Errorf("module path: %q", cfg.Module.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log defaults: %+v", cfg.Log)
	}
	if cfg.Fixtures.Dir != "fixtures" || cfg.Fixtures.Timeout != 15*time.Second {
		t.Errorf("fixture defaults: %+v", cfg.Fixtures)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
module:
  path: bin/verifier.wasm
  memory_limit_pages: 1024
  compilation_cache_dir: /var/cache/sp1
  interpreter: true
log:
  level: debug
  format: json
fixtures:
  dir: proofs
  base_url: https://fixtures.example.com/api/
  timeout: 3s
`)
	base := filepath.Dir(path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Module.Path != filepath.Join(base, "bin/verifier.wasm") {
		t.Errorf("module path not resolved: %q", cfg.Module.Path)
	}
	if cfg.Module.CompilationCacheDir != "/var/cache/sp1" {
		t.Errorf("absolute path rewritten: %q", cfg.Module.CompilationCacheDir)
	}
	if cfg.Module.MemoryLimitPages != 1024 || !cfg.Module.Interpreter {
		t.Errorf("module settings: %+v", cfg.Module)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log settings: %+v", cfg.Log)
	}
	if cfg.Fixtures.Dir != filepath.Join(base, "proofs") {
		t.Errorf("fixtures dir: %q", cfg.Fixtures.Dir)
	}
	if cfg.Fixtures.BaseURL != "https://fixtures.example.com/api" {
		t.Errorf("base url: %q", cfg.Fixtures.BaseURL)
	}
	if cfg.Fixtures.Timeout != 3*time.Second {
		t.Errorf("timeout: %s", cfg.Fixtures.Timeout)
	}
}

func TestLoad_DefaultsRelativeToFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")
	base := filepath.Dir(path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Module.Path != filepath.Join(base, verifier.DefaultModulePath) {
		t.Errorf("module path: %q", cfg.Module.Path)
	}
	if cfg.Fixtures.Dir != filepath.Join(base, "fixtures") {
		t.Errorf("fixtures dir: %q", cfg.Fixtures.Dir)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		kind  errors.Kind
		field string
	}{
		{"bad yaml", "module: [", errors.KindInvalidData, ""},
		{"bad level", "log:\n  level: loud\n", errors.KindInvalidInput, "log.level"},
		{"bad format", "log:\n  format: xml\n", errors.KindInvalidInput, "log.format"},
		{"too many pages", "module:\n  memory_limit_pages: 70000\n", errors.KindInvalidInput, "module.memory_limit_pages"},
		{"negative timeout", "fixtures:\n  timeout: -1s\n", errors.KindInvalidInput, "fixtures.timeout"},
		{"bad url", "fixtures:\n  base_url: ftp://host\n", errors.KindInvalidInput, "fixtures.base_url"},
		{"relative url", "fixtures:\n  base_url: /proofs\n", errors.KindInvalidInput, "fixtures.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseConfig || e.Kind != tt.kind {
				t.Fatalf("expected config/%s, got %s/%s", tt.kind, e.Phase, e.Kind)
			}
			if tt.field != "" && (len(e.Path) != 1 || e.Path[0] != tt.field) {
				t.Fatalf("expected path %q, got %v", tt.field, e.Path)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !stderrors.Is(err, errors.New(errors.PhaseConfig, errors.KindNotFound).Build()) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestVerifierOptions(t *testing.T) {
	cfg := Default()
	if got := len(cfg.VerifierOptions(nil)); got != 1 {
		t.Fatalf("expected only the backend option, got %d", got)
	}

	cfg.Module.MemoryLimitPages = 256
	cfg.Module.CompilationCacheDir = t.TempDir()
	if got := len(cfg.VerifierOptions(nil)); got != 3 {
		t.Fatalf("expected 3 options, got %d", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("NewLogger(%s): %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Errorf("%s logger should enable debug", format)
		}
	}

	if _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
