package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	sp1wasm "github.com/wippyai/sp1-wasm-verifier"
	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/resource"
)

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	// Refs is the host mirror of the guest's externref table. A fresh table
	// is created when nil. The instance owns it and closes it on Close.
	Refs *resource.Table

	// Seeder runs when the guest's start routine asks for table
	// initialization. Defaults to resource.SeedSentinels.
	Seeder resource.Seeder

	// Name is the wazero module name. A unique name is generated when empty.
	Name string
}

// Instance is a running verifier module.
// Instance is NOT safe for concurrent use.
type Instance struct {
	module   *Module
	mod      api.Module
	memory   api.Memory
	alloc    *guestAllocator
	funcs    map[string]api.Function
	state    *hostState
	stackBuf []uint64
}

// Instantiate creates an instance, registers its reference table capability
// and runs the guest's start routine.
func (m *Module) Instantiate(ctx context.Context, cfg *InstanceConfig) (*Instance, error) {
	if err := m.engine.initHost(ctx); err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = &InstanceConfig{}
	}
	refs := cfg.Refs
	if refs == nil {
		refs = resource.NewTable()
	}
	seeder := cfg.Seeder
	if seeder == nil {
		seeder = resource.SeedSentinels
	}
	name := cfg.Name
	if name == "" {
		name = "sp1-verifier-" + uuid.NewString()
	}

	state := &hostState{refs: refs, seeder: seeder, events: &refLogger{module: name}}
	if _, loaded := m.engine.instances.LoadOrStore(name, state); loaded {
		return nil, errors.Instantiation(errors.InvalidInput(errors.PhaseLoad, "instance name "+name+" already in use"))
	}
	refs.Subscribe(state.events)

	// Start functions run explicitly below, after the capability exists.
	modConfig := wazero.NewModuleConfig().WithName(name).WithStartFunctions()
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		refs.Unsubscribe(state.events)
		m.engine.instances.Delete(name)
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{
		module:   m,
		mod:      mod,
		memory:   mod.ExportedMemory(ExportMemory),
		funcs:    make(map[string]api.Function),
		state:    state,
		stackBuf: make([]uint64, 8),
	}
	for _, sig := range requiredExports {
		inst.funcs[sig.name] = mod.ExportedFunction(sig.name)
	}
	for _, sig := range optionalExports {
		if fn := mod.ExportedFunction(sig.name); fn != nil {
			inst.funcs[sig.name] = fn
		}
	}
	inst.alloc = newGuestAllocator(inst.funcs[ExportMalloc], inst.funcs[ExportRealloc])

	if _, ok := inst.funcs[ExportStart]; ok {
		if _, err := inst.Call(ctx, ExportStart); err != nil {
			_ = inst.Close(ctx)
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "start routine failed")
		}
	}

	Logger().Debug("instance created",
		zap.String("name", name),
		zap.Uint32("memory", inst.memory.Size()),
		zap.Int("refs", refs.Len()))

	return inst, nil
}

// Name returns the wazero module name.
func (i *Instance) Name() string {
	return i.mod.Name()
}

// AcquireView returns a view over the instance's memory. Release it when
// the operation ends.
func (i *Instance) AcquireView() *View {
	return newView(i.memory)
}

// Allocator returns the guest allocator.
func (i *Instance) Allocator() sp1wasm.Allocator {
	return i.alloc
}

// Refs returns the host mirror of the guest's externref table.
func (i *Instance) Refs() *resource.Table {
	return i.state.refs
}

// HasExport reports whether the guest exports a function named name.
func (i *Instance) HasExport(name string) bool {
	_, ok := i.funcs[name]
	return ok
}

// Call invokes an exported function with raw i32 parameters and returns its
// first result, or 0 for functions without results. Errors are classified:
// *errors.GuestFault for throws, *errors.Error for host faults raised in
// the call, and a KindTrap error for everything else.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) (uint64, error) {
	if i.mod == nil {
		return 0, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	fn, ok := i.funcs[name]
	if !ok {
		return 0, errors.NotFound(errors.PhaseRuntime, "export", name)
	}

	def := fn.Definition()
	if len(params) != len(def.ParamTypes()) {
		return 0, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Path(name).
			Detail("expected %d parameters, got %d", len(def.ParamTypes()), len(params)).
			Build()
	}

	n := max(len(params), len(def.ResultTypes()))
	if n > len(i.stackBuf) {
		i.stackBuf = make([]uint64, n)
	}
	stack := i.stackBuf[:n]
	copy(stack, params)

	if err := fn.CallWithStack(ctx, stack); err != nil {
		return 0, fault(name, err)
	}
	if len(def.ResultTypes()) == 0 {
		return 0, nil
	}
	return stack[0], nil
}

// Close releases the instance and its reference table.
func (i *Instance) Close(ctx context.Context) error {
	if i.mod == nil {
		return nil
	}
	name := i.mod.Name()
	err := i.mod.Close(ctx)
	i.module.engine.instances.Delete(name)
	i.state.refs.Unsubscribe(i.state.events)
	if cerr := i.state.refs.Close(); cerr != nil && err == nil {
		err = cerr
	}
	i.mod = nil
	i.memory = nil
	i.funcs = nil
	i.alloc = nil
	i.stackBuf = nil
	return err
}
