package verifier

import (
	"go.uber.org/zap"

	"github.com/wippyai/sp1-wasm-verifier/engine"
	"github.com/wippyai/sp1-wasm-verifier/resource"
)

type options struct {
	logger   *zap.Logger
	refs     *resource.Table
	seeder   resource.Seeder
	engine   engine.Config
	instance string
}

// Option configures a Verifier.
type Option func(*options)

// WithLogger sets the logger for verification events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMemoryLimitPages caps guest memory in 64KB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) { o.engine.MemoryLimitPages = pages }
}

// WithCompilationCacheDir persists the compiled module in dir.
func WithCompilationCacheDir(dir string) Option {
	return func(o *options) { o.engine.CompilationCacheDir = dir }
}

// WithInterpreter selects the interpreter backend.
func WithInterpreter(enabled bool) Option {
	return func(o *options) { o.engine.Interpreter = enabled }
}

// WithRefTable supplies the host mirror of the module's externref table.
func WithRefTable(t *resource.Table) Option {
	return func(o *options) { o.refs = t }
}

// WithSeeder replaces the reference table initialization routine.
func WithSeeder(s resource.Seeder) Option {
	return func(o *options) { o.seeder = s }
}

// WithInstanceName fixes the module instance name.
func WithInstanceName(name string) Option {
	return func(o *options) { o.instance = name }
}
