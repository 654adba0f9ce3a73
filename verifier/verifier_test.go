package verifier

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/resource"
	"github.com/wippyai/sp1-wasm-verifier/testbed"
)

func newStubVerifier(t *testing.T, opts ...Option) *Verifier {
	t.Helper()
	ctx := context.Background()
	opts = append([]Option{WithInterpreter(true)}, opts...)
	v, err := New(ctx, testbed.StubVerifier(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { v.Close(ctx) })
	return v
}

func isKind(err error, phase errors.Phase, kind errors.Kind) bool {
	return stderrors.Is(err, errors.New(phase, kind).Build())
}

func TestVerify_Schemes(t *testing.T) {
	v := newStubVerifier(t)
	ctx := context.Background()
	inputs := []byte("public values")
	key := testbed.StubKey()

	tests := []struct {
		name   string
		verify func(context.Context, []byte, []byte, string) (bool, error)
		proof  []byte
		want   bool
	}{
		{"groth16 valid", v.VerifyGroth16, testbed.StubProof(testbed.Groth16Mask, inputs, 260), true},
		{"groth16 invalid", v.VerifyGroth16, testbed.StubProof(testbed.PlonkMask, inputs, 260), false},
		{"plonk valid", v.VerifyPlonk, testbed.StubProof(testbed.PlonkMask, inputs, 868), true},
		{"plonk invalid", v.VerifyPlonk, testbed.StubProof(testbed.Groth16Mask, inputs, 868), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.verify(ctx, tt.proof, inputs, key)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestVerify_PublicInputBitFlip(t *testing.T) {
	v := newStubVerifier(t)
	ctx := context.Background()
	inputs := []byte("fibonacci(20) = 6765")
	key := testbed.StubKey()

	tests := []struct {
		name   string
		verify func(context.Context, []byte, []byte, string) (bool, error)
		proof  []byte
	}{
		{"groth16", v.VerifyGroth16, testbed.StubProof(testbed.Groth16Mask, inputs, 260)},
		{"plonk", v.VerifyPlonk, testbed.StubProof(testbed.PlonkMask, inputs, 868)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.verify(ctx, tt.proof, inputs, key)
			if err != nil || !ok {
				t.Fatalf("original inputs: got (%v, %v), want (true, nil)", ok, err)
			}

			for bit := 0; bit < 8; bit++ {
				flipped := bytes.Clone(inputs)
				flipped[3] ^= 1 << bit

				ok, err := tt.verify(ctx, tt.proof, flipped, key)
				if err != nil {
					t.Fatalf("bit %d: unexpected error: %v", bit, err)
				}
				if ok {
					t.Fatalf("bit %d: flipped public inputs accepted", bit)
				}
			}

			// The caller's slice is never modified.
			if ok, err := tt.verify(ctx, tt.proof, inputs, key); err != nil || !ok {
				t.Fatalf("original inputs after flips: got (%v, %v)", ok, err)
			}
		})
	}
}

func TestVerify_Deterministic(t *testing.T) {
	v := newStubVerifier(t)
	ctx := context.Background()
	inputs := []byte{0xde, 0xad, 0xbe, 0xef}
	proof := testbed.StubProof(testbed.Groth16Mask, inputs, 32)

	for i := range 5 {
		ok, err := v.VerifyGroth16(ctx, proof, inputs, testbed.StubKey())
		if err != nil || !ok {
			t.Fatalf("call %d: %v, %v", i, ok, err)
		}
	}
}

func TestVerify_EmptyPublicInputs(t *testing.T) {
	v := newStubVerifier(t)

	ok, err := v.VerifyGroth16(context.Background(), testbed.StubProof(testbed.Groth16Mask, nil, 8), nil, testbed.StubKey())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected valid proof with empty public inputs")
	}
}

func TestVerify_NonASCIIKey(t *testing.T) {
	v := newStubVerifier(t)

	// 66 bytes, starts with "0x", carries multi-byte characters.
	key := "0xé" + string(bytes.Repeat([]byte("a"), 62))
	if len(key) != testbed.KeyLen {
		t.Fatalf("bad fixture length %d", len(key))
	}

	ok, err := v.VerifyGroth16(context.Background(), testbed.StubProof(testbed.Groth16Mask, nil, 4), nil, key)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("key should arrive byte-exact")
	}
}

func TestVerify_LargeProofGrowsMemory(t *testing.T) {
	v := newStubVerifier(t)
	inputs := []byte{7}
	proof := testbed.StubProof(testbed.PlonkMask, inputs, 3<<16)

	ok, err := v.VerifyPlonk(context.Background(), proof, inputs, testbed.StubKey())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected valid proof")
	}
}

func TestVerify_GuestFault(t *testing.T) {
	v := newStubVerifier(t)

	ok, err := v.VerifyGroth16(context.Background(), nil, []byte{1}, testbed.StubKey())
	if ok {
		t.Fatal("a fault must not report a result")
	}
	var fault *errors.GuestFault
	if !stderrors.As(err, &fault) {
		t.Fatalf("expected *errors.GuestFault, got %T: %v", err, err)
	}
	if fault.Message != testbed.FaultMessage {
		t.Fatalf("message not preserved: %q", fault.Message)
	}
}

func TestVerify_MalformedFaultMessage(t *testing.T) {
	v := newStubVerifier(t)

	_, err := v.VerifyGroth16(context.Background(), []byte{1, 2}, nil, "")
	if !isKind(err, errors.PhaseDecode, errors.KindInvalidUTF8) {
		t.Fatalf("expected decode fault, got %v", err)
	}
}

func TestVerify_Trap(t *testing.T) {
	v := newStubVerifier(t)

	_, err := v.VerifyPlonk(context.Background(), make([]byte, testbed.TrapProofLen), nil, testbed.StubKey())
	if !isKind(err, errors.PhaseRuntime, errors.KindTrap) {
		t.Fatalf("expected trap, got %v", err)
	}
}

func TestVerify_UsableAfterFault(t *testing.T) {
	v := newStubVerifier(t)
	ctx := context.Background()

	if _, err := v.VerifyGroth16(ctx, nil, nil, testbed.StubKey()); err == nil {
		t.Fatal("expected fault")
	}
	ok, err := v.VerifyGroth16(ctx, testbed.StubProof(testbed.Groth16Mask, nil, 4), nil, testbed.StubKey())
	if err != nil || !ok {
		t.Fatalf("verifier unusable after fault: %v, %v", ok, err)
	}
}

func TestVerify_InvalidRequest(t *testing.T) {
	v := newStubVerifier(t)
	ctx := context.Background()

	_, err := v.Verify(ctx, Request{Scheme: "stark"})
	if !isKind(err, errors.PhaseValidate, errors.KindInvalidInput) {
		t.Fatalf("expected invalid scheme, got %v", err)
	}

	_, err = v.Verify(ctx, Request{Scheme: Groth16, VerifyingKeyHash: "0x\xff"})
	if !isKind(err, errors.PhaseValidate, errors.KindInvalidUTF8) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}

func TestInvoke(t *testing.T) {
	v := newStubVerifier(t)
	ctx := context.Background()
	inputs := []byte{9, 9}

	ok, err := v.Invoke(ctx, "verify_plonk", testbed.StubProof(testbed.PlonkMask, inputs, 16), inputs, testbed.StubKey())
	if err != nil || !ok {
		t.Fatalf("Invoke: %v, %v", ok, err)
	}
}

func TestInvoke_ArgumentFaults(t *testing.T) {
	refs := resource.NewTable()
	v := newStubVerifier(t, WithRefTable(refs))
	ctx := context.Background()
	proof := []byte{1}

	tests := []struct {
		name  string
		entry string
		phase errors.Phase
		kind  errors.Kind
		args  []any
	}{
		{"unknown entry", "verify_stark", errors.PhaseValidate, errors.KindNotFound, []any{proof, proof, "0x"}},
		{"too few", "verify_groth16", errors.PhaseValidate, errors.KindTypeMismatch, []any{proof, proof}},
		{"too many", "verify_groth16", errors.PhaseValidate, errors.KindTypeMismatch, []any{proof, proof, "0x", 1}},
		{"string proof", "verify_groth16", errors.PhaseValidate, errors.KindTypeMismatch, []any{"proof", proof, "0x"}},
		{"int inputs", "verify_groth16", errors.PhaseValidate, errors.KindTypeMismatch, []any{proof, 42, "0x"}},
		{"bytes key", "verify_plonk", errors.PhaseValidate, errors.KindTypeMismatch, []any{proof, proof, []byte("0x")}},
		{"bad utf8 key", "verify_plonk", errors.PhaseValidate, errors.KindInvalidUTF8, []any{proof, proof, "0x\xc3"}},
	}

	view := v.inst.AcquireView()
	defer view.Release()
	before := view.Size()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.Invoke(ctx, tt.entry, tt.args...)
			if ok {
				t.Fatal("argument fault reported a result")
			}
			if !isKind(err, tt.phase, tt.kind) {
				t.Fatalf("expected %s/%s, got %v", tt.phase, tt.kind, err)
			}
		})
	}

	// Probe allocation: validation failures must not have reached the guest.
	ptr, err := v.inst.Allocator().Alloc(ctx, 0, 1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if ptr != 1024 || view.Size() != before {
		t.Fatalf("argument faults touched guest memory: next ptr %d", ptr)
	}
}

func TestTypeMismatch_Detail(t *testing.T) {
	v := newStubVerifier(t)

	_, err := v.Invoke(context.Background(), "verify_groth16", []byte{}, []byte{}, 7)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if e.GoType != "int" || e.Detail != "expected string" {
		t.Fatalf("unexpected error fields %+v", e)
	}
}

func TestNew_LoadFaults(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, testbed.BuildStub(testbed.StubOptions{OmitExport: "verify_plonk"}), WithInterpreter(true))
	if !isKind(err, errors.PhaseLoad, errors.KindMissingExport) {
		t.Fatalf("expected missing export, got %v", err)
	}

	_, err = New(ctx, []byte{0x00, 0x61, 0x73}, WithInterpreter(true))
	if !isKind(err, errors.PhaseLoad, errors.KindInvalidData) {
		t.Fatalf("expected compile fault, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultModulePath)
	if err := os.WriteFile(path, testbed.StubVerifier(), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Open(ctx, path, WithInterpreter(true), WithCompilationCacheDir(filepath.Join(dir, "cache")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v.Close(ctx)

	ok, err := v.VerifyGroth16(ctx, testbed.StubProof(testbed.Groth16Mask, nil, 4), nil, testbed.StubKey())
	if err != nil || !ok {
		t.Fatalf("verify: %v, %v", ok, err)
	}

	if _, err := Open(ctx, filepath.Join(dir, "missing.wasm")); !isKind(err, errors.PhaseLoad, errors.KindInvalidData) {
		t.Fatalf("expected load fault for missing file, got %v", err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	v, err := New(ctx, testbed.StubVerifier(), WithInterpreter(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := v.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	_, err = v.VerifyGroth16(ctx, []byte{1}, nil, testbed.StubKey())
	if !isKind(err, errors.PhaseRuntime, errors.KindNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	v := newStubVerifier(t, WithLogger(zap.New(core)))

	if _, err := v.VerifyGroth16(context.Background(), testbed.StubProof(testbed.Groth16Mask, nil, 4), nil, testbed.StubKey()); err != nil {
		t.Fatalf("verify: %v", err)
	}

	entries := logs.FilterMessage("verification finished").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] == "" || fields["valid"] != true {
		t.Fatalf("unexpected log fields %v", fields)
	}
}

func TestParseScheme(t *testing.T) {
	tests := map[string]Scheme{"groth16": Groth16, " PLONK ": Plonk, "Groth16": Groth16}
	for in, want := range tests {
		got, err := ParseScheme(in)
		if err != nil || got != want {
			t.Errorf("ParseScheme(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseScheme("stark"); err == nil {
		t.Error("expected error for unknown scheme")
	}
	if Groth16.Entry() != "verify_groth16" || Plonk.Entry() != "verify_plonk" || Scheme("x").Entry() != "" {
		t.Error("unexpected entry names")
	}
}
