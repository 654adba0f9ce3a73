package verifier

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/sp1-wasm-verifier/engine"
	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/transcoder"
)

// DefaultModulePath is the file name wasm-bindgen gives the verifier binary.
const DefaultModulePath = "sp1_wasm_verifier_bg.wasm"

// Request is one verification.
type Request struct {
	Scheme           Scheme
	Proof            []byte
	PublicInputs     []byte
	VerifyingKeyHash string
}

// Verifier is a loaded verifier module ready to judge proofs.
type Verifier struct {
	engine *engine.Engine
	module *engine.Module
	inst   *engine.Instance
	logger *zap.Logger
}

// Open reads the module binary at path and loads it.
func Open(ctx context.Context, path string, opts ...Option) (*Verifier, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("read module %q", path), err)
	}
	return New(ctx, wasmBytes, opts...)
}

// New compiles wasmBytes, checks its ABI, instantiates it and runs its
// start routine. Any failure is a PhaseLoad error and leaves nothing open.
func New(ctx context.Context, wasmBytes []byte, opts ...Option) (*Verifier, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	eng, err := engine.NewEngine(ctx, &o.engine)
	if err != nil {
		return nil, err
	}

	mod, err := eng.LoadModule(ctx, wasmBytes)
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}

	inst, err := mod.Instantiate(ctx, &engine.InstanceConfig{
		Refs:   o.refs,
		Seeder: o.seeder,
		Name:   o.instance,
	})
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}

	o.logger.Debug("verifier ready",
		zap.String("instance", inst.Name()),
		zap.Int("module_size", len(wasmBytes)))

	return &Verifier{
		engine: eng,
		module: mod,
		inst:   inst,
		logger: o.logger,
	}, nil
}

// VerifyGroth16 checks a Groth16 proof.
func (v *Verifier) VerifyGroth16(ctx context.Context, proof, publicInputs []byte, vkeyHash string) (bool, error) {
	return v.Verify(ctx, Request{Scheme: Groth16, Proof: proof, PublicInputs: publicInputs, VerifyingKeyHash: vkeyHash})
}

// VerifyPlonk checks a Plonk proof.
func (v *Verifier) VerifyPlonk(ctx context.Context, proof, publicInputs []byte, vkeyHash string) (bool, error) {
	return v.Verify(ctx, Request{Scheme: Plonk, Proof: proof, PublicInputs: publicInputs, VerifyingKeyHash: vkeyHash})
}

// Verify checks req with the module entry point for req.Scheme.
func (v *Verifier) Verify(ctx context.Context, req Request) (bool, error) {
	entry := req.Scheme.Entry()
	if entry == "" {
		return false, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path("scheme").
			Value(string(req.Scheme)).
			Detail("unknown scheme %q", req.Scheme).
			Build()
	}
	if !utf8.ValidString(req.VerifyingKeyHash) {
		return false, errors.InvalidUTF8(errors.PhaseValidate, []string{"vkey_hash"}, []byte(req.VerifyingKeyHash))
	}
	return v.call(ctx, entry, req.Proof, req.PublicInputs, req.VerifyingKeyHash)
}

// Invoke calls an entry point by name with (proof []byte, publicInputs
// []byte, vkeyHash string). Arity and types are checked before any guest
// memory is touched.
func (v *Verifier) Invoke(ctx context.Context, entry string, args ...any) (bool, error) {
	if _, ok := schemeForEntry(entry); !ok {
		return false, errors.NotFound(errors.PhaseValidate, "entry point", entry)
	}
	if len(args) != 3 {
		return false, errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
			Path(entry).
			Detail("expected 3 arguments (proof, public inputs, vkey hash), got %d", len(args)).
			Build()
	}

	proof, ok := args[0].([]byte)
	if !ok {
		return false, errors.TypeMismatch(errors.PhaseValidate, []string{entry, "proof"}, fmt.Sprintf("%T", args[0]), "[]byte")
	}
	inputs, ok := args[1].([]byte)
	if !ok {
		return false, errors.TypeMismatch(errors.PhaseValidate, []string{entry, "public_inputs"}, fmt.Sprintf("%T", args[1]), "[]byte")
	}
	key, ok := args[2].(string)
	if !ok {
		return false, errors.TypeMismatch(errors.PhaseValidate, []string{entry, "vkey_hash"}, fmt.Sprintf("%T", args[2]), "string")
	}
	if !utf8.ValidString(key) {
		return false, errors.InvalidUTF8(errors.PhaseValidate, []string{entry, "vkey_hash"}, []byte(key))
	}

	return v.call(ctx, entry, proof, inputs, key)
}

func (v *Verifier) call(ctx context.Context, entry string, proof, inputs []byte, key string) (bool, error) {
	if v.inst == nil {
		return false, errors.NotInitialized(errors.PhaseRuntime, "verifier")
	}

	reqID := uuid.NewString()
	start := time.Now()
	log := v.logger.With(zap.String("request_id", reqID), zap.String("entry", entry))

	view := v.inst.AcquireView()
	defer view.Release()
	codec := transcoder.New(view, v.inst.Allocator())

	proofArg, err := codec.PassBytes(ctx, proof, "proof")
	if err != nil {
		return false, v.fail(log, err)
	}
	inputsArg, err := codec.PassBytes(ctx, inputs, "public_inputs")
	if err != nil {
		return false, v.fail(log, err)
	}
	keyArg, err := codec.PassString(ctx, key, "vkey_hash")
	if err != nil {
		return false, v.fail(log, err)
	}

	ret, err := v.inst.Call(ctx, entry,
		uint64(proofArg.Ptr), uint64(proofArg.Len),
		uint64(inputsArg.Ptr), uint64(inputsArg.Len),
		uint64(keyArg.Ptr), uint64(keyArg.Len))
	if err != nil {
		return false, v.fail(log, err)
	}

	valid := uint32(ret) != 0
	log.Debug("verification finished",
		zap.Int("proof_size", len(proof)),
		zap.Int("public_inputs_size", len(inputs)),
		zap.Bool("valid", valid),
		zap.Duration("duration", time.Since(start)))
	return valid, nil
}

// fail surfaces a guest fault raised during marshalling or the call itself
// in preference to the error that carried it.
func (v *Verifier) fail(log *zap.Logger, err error) error {
	if f, ok := errors.AsGuestFault(err); ok {
		log.Debug("guest fault", zap.String("message", f.Message))
		return f
	}
	log.Debug("verification failed", zap.Error(err))
	return err
}

// Close releases the instance and the runtime. A process that verifies
// until exit need not call it.
func (v *Verifier) Close(ctx context.Context) error {
	if v.inst == nil {
		return nil
	}
	err := v.inst.Close(ctx)
	if cerr := v.engine.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	v.inst = nil
	v.module = nil
	return err
}
