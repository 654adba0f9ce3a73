package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// Engine owns a wazero runtime and the host module the verifier imports.
type Engine struct {
	runtime      wazero.Runtime
	cache        wazero.CompilationCache
	instances    sync.Map // instance name -> *hostState
	hostInitMu   sync.Mutex
	hostInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// CompilationCacheDir persists compiled modules across process starts.
	// Empty disables the on-disk cache.
	CompilationCacheDir string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// Interpreter selects the interpreter instead of the compiler backend.
	// Useful on platforms the compiler does not support.
	Interpreter bool
}

// NewEngine creates a new wazero-based engine
func NewEngine(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var runtimeCfg wazero.RuntimeConfig
	if cfg.Interpreter {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	} else {
		runtimeCfg = wazero.NewRuntimeConfig()
	}

	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	var cache wazero.CompilationCache
	if cfg.CompilationCacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(cfg.CompilationCacheDir)
		if err != nil {
			return nil, errors.Load(fmt.Sprintf("open compilation cache %q", cfg.CompilationCacheDir), err)
		}
		runtimeCfg = runtimeCfg.WithCompilationCache(cache)
	}

	Logger().Debug("engine created",
		zap.Bool("interpreter", cfg.Interpreter),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.String("cache_dir", cfg.CompilationCacheDir))

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cache:   cache,
	}, nil
}

// LoadModule compiles wasmBytes and checks it against the verifier ABI.
func (e *Engine) LoadModule(ctx context.Context, wasmBytes []byte) (*Module, error) {
	if len(wasmBytes) == 0 {
		return nil, errors.Load("empty module binary", nil)
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	if err := validateABI(compiled); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	Logger().Debug("module loaded",
		zap.Int("size", len(wasmBytes)),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(compiled.ExportedFunctions())))

	return &Module{engine: e, compiled: compiled}, nil
}

// initHost instantiates the host module once per engine.
// Safe for concurrent calls from multiple modules sharing the same engine.
func (e *Engine) initHost(ctx context.Context) error {
	if e.hostInitDone.Load() {
		return nil
	}

	e.hostInitMu.Lock()
	defer e.hostInitMu.Unlock()

	if e.hostInitDone.Load() {
		return nil
	}

	if e.runtime.Module(HostModule) == nil {
		if err := e.instantiateHost(ctx); err != nil {
			return errors.Instantiation(fmt.Errorf("host module: %w", err))
		}
	}

	e.hostInitDone.Store(true)
	return nil
}

// Close releases the runtime, every module compiled by it and the
// compilation cache handle.
func (e *Engine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Module is a compiled verifier binary that passed the ABI check.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Close releases the compiled module. Running instances are unaffected.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
