package engine

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/resource"
	"github.com/wippyai/sp1-wasm-verifier/transcoder"
)

// hostState is the per-instance capability the host functions act on.
type hostState struct {
	refs   *resource.Table
	seeder resource.Seeder
	events *refLogger
	seeded atomic.Bool
}

// refLogger reports reference table changes to the engine logger.
type refLogger struct {
	module string
}

func (r *refLogger) OnTableEvent(e resource.Event) {
	switch e.Type {
	case resource.EventGrown:
		Logger().Debug("reference table grown",
			zap.String("module", r.module),
			zap.Uint32("offset", uint32(e.Index)),
			zap.Uint32("delta", e.Delta))
	case resource.EventSet:
		Logger().Debug("reference table set",
			zap.String("module", r.module),
			zap.Uint32("index", uint32(e.Index)),
			zap.Any("value", e.Value))
	}
}

func (e *Engine) instantiateHost(ctx context.Context) error {
	_, err := e.runtime.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.hostThrow), i32s(2), nil).
		Export(ImportThrow).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.hostInitRefTable), nil, nil).
		Export(ImportInitRefTable).
		Instantiate(ctx)
	return err
}

// hostThrow decodes the guest's message and aborts the in-flight call with a
// GuestFault. wazero recovers the panic and returns it from the guest call.
func (e *Engine) hostThrow(_ context.Context, mod api.Module, stack []uint64) {
	ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])

	view := newView(mod.Memory())
	defer view.Release()

	msg, err := transcoder.DecodeMessage(view, ptr, length, "message")
	if err != nil {
		panic(err)
	}

	Logger().Debug("guest fault", zap.String("module", mod.Name()), zap.String("message", msg))
	panic(&errors.GuestFault{Message: msg})
}

// hostInitRefTable runs the calling instance's seeder. It may run only once
// per instance.
func (e *Engine) hostInitRefTable(_ context.Context, mod api.Module, _ []uint64) {
	v, ok := e.instances.Load(mod.Name())
	if !ok {
		panic(errors.NotFound(errors.PhaseHost, "reference table capability", mod.Name()))
	}
	st := v.(*hostState)

	if !st.seeded.CompareAndSwap(false, true) {
		panic(errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Path(ImportInitRefTable).
			Detail("reference table already initialized").
			Build())
	}

	if err := st.seeder(st.refs); err != nil {
		panic(errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "seed reference table"))
	}

	Logger().Debug("reference table seeded", zap.String("module", mod.Name()), zap.Int("len", st.refs.Len()))
}

// fault classifies an error returned by a guest call. A GuestFault or a
// structured host error raised inside the call is returned as is; anything
// else is a trap.
func fault(entry string, err error) error {
	if err == nil {
		return nil
	}
	if f, ok := errors.AsGuestFault(err); ok {
		return f
	}
	var hostErr *errors.Error
	if stderrors.As(err, &hostErr) {
		return hostErr
	}
	return errors.Trap(entry, err)
}
