// Package testbed builds a stand-in verifier module and hosts the
// end-to-end tests that drive it through the engine and verifier packages.
//
// The stub speaks the same ABI as sp1_wasm_verifier_bg.wasm: the two
// wasm-bindgen host imports, a bump allocator behind __wbindgen_malloc and
// __wbindgen_realloc, a start routine that asks the host to seed the
// externref table, and the two verify entry points. Its acceptance rule is
// trivial and documented on StubProof.
//
// Tests that need the real binary look for testdata/sp1_wasm_verifier_bg.wasm
// and skip when it is absent.
package testbed

import (
	"strings"

	"github.com/wippyai/sp1-wasm-verifier/wasm"
)

// Stub behavior constants.
const (
	// FaultMessage is thrown when the proof is empty.
	FaultMessage = "sp1: proof is empty ✗"

	// TrapProofLen makes the stub execute unreachable instead of throwing.
	TrapProofLen = 3

	// KeyLen is the length of an accepted verifying key hash ("0x" + 64 hex).
	KeyLen = 66

	Groth16Mask byte = 0x00
	PlonkMask   byte = 0xFF

	heapBase      = 1024
	faultMsgAddr  = 16
	malformedAddr = 64

	// ZeroFaultAddr is where the FaultLen message starts; nothing is
	// written there before the stub throws.
	ZeroFaultAddr = 128

	pageSize = 65536
)

// MalformedMessage is thrown when the key hash is empty. It is not UTF-8.
var MalformedMessage = []byte{0x62, 0x61, 0x64, 0xff, 0xfe}

// StubOptions perturbs the stub to exercise load failures.
type StubOptions struct {
	// OmitExport drops the named export.
	OmitExport string

	// RetargetExport points the named export at the start routine, giving
	// it the wrong signature.
	RetargetExport string

	// ExtraImport adds an import the host does not provide.
	ExtraImport bool

	// MistypedThrow declares __wbindgen_throw as () -> ().
	MistypedThrow bool

	// InitTwice makes the start routine request table seeding twice.
	InitTwice bool

	// FaultLen replaces the empty-proof message with FaultLen NUL bytes
	// starting at ZeroFaultAddr. Memory starts large enough to hold them.
	FaultLen uint32
}

// StubVerifier returns the stub module with the regular ABI.
func StubVerifier() []byte {
	return BuildStub(StubOptions{})
}

// StubKey returns a key hash the stub accepts.
func StubKey() string {
	return "0x" + strings.Repeat("ab", (KeyLen-2)/2)
}

// StubProof returns a proof of size bytes (at least 1) that the stub accepts
// for publicInputs. The stub accepts a proof when its first byte equals the
// XOR of all public input bytes XOR the scheme mask, the key hash is KeyLen
// bytes long and starts with "0x".
func StubProof(mask byte, publicInputs []byte, size int) []byte {
	if size < 1 {
		size = 1
	}
	proof := make([]byte, size)
	var acc byte
	for _, b := range publicInputs {
		acc ^= b
	}
	proof[0] = acc ^ mask
	for i := 1; i < size; i++ {
		proof[i] = byte(i)
	}
	return proof
}

// Type indices
const (
	typeI32x2Void = iota
	typeVoid
	typeI32x2I32
	typeI32x4I32
	typeI32x6I32
	typeI32x7I32
)

// Defined function order
const (
	fnMalloc = iota
	fnRealloc
	fnGroth16
	fnPlonk
	fnStart
	fnCheck
)

// Import indices
const (
	importThrow = 0
	importInit  = 1
)

// BuildStub encodes the stub module with opts applied.
func BuildStub(opts StubOptions) []byte {
	i32 := wasm.ValI32
	n := func(k int) []wasm.ValType {
		out := make([]wasm.ValType, k)
		for i := range out {
			out[i] = i32
		}
		return out
	}

	m := &wasm.Module{
		Types: []wasm.FuncType{
			typeI32x2Void: {Params: n(2)},
			typeVoid:      {},
			typeI32x2I32:  {Params: n(2), Results: n(1)},
			typeI32x4I32:  {Params: n(4), Results: n(1)},
			typeI32x6I32:  {Params: n(6), Results: n(1)},
			typeI32x7I32:  {Params: n(7), Results: n(1)},
		},
		Imports: []wasm.Import{
			{Module: "__wbindgen_placeholder__", Name: "__wbindgen_throw", Type: typeI32x2Void},
			{Module: "__wbindgen_placeholder__", Name: "__wbindgen_init_externref_table", Type: typeVoid},
		},
		Tables:   []wasm.Table{{Elem: wasm.ValExternRef, Limits: wasm.Limits{Min: 1}}},
		Memories: []wasm.Limits{{Min: 1}},
		Globals:  []wasm.Global{{Init: heapBase, Mutable: true}},
		Data: []wasm.Data{
			{Offset: faultMsgAddr, Init: []byte(FaultMessage)},
			{Offset: malformedAddr, Init: MalformedMessage},
		},
	}
	faultAddr, faultLen := int32(faultMsgAddr), int32(len(FaultMessage))
	if opts.FaultLen > 0 {
		faultAddr, faultLen = ZeroFaultAddr, int32(opts.FaultLen)
		pages := (uint32(ZeroFaultAddr)+opts.FaultLen)/pageSize + 1
		m.Memories[0].Min = pages
		m.Globals[0].Init = int32(pages * pageSize)
	}
	if opts.MistypedThrow {
		m.Imports[importThrow].Type = typeVoid
	}
	if opts.ExtraImport {
		m.Imports = append(m.Imports, wasm.Import{Module: "env", Name: "abort", Type: typeVoid})
	}

	fn := func(k int) uint32 { return m.FuncIndex(k) }

	m.Funcs = []wasm.Func{
		fnMalloc:  {Type: typeI32x2I32, Locals: n(1), Body: mallocBody()},
		fnRealloc: {Type: typeI32x4I32, Locals: n(1), Body: reallocBody(fn(fnMalloc))},
		fnGroth16: {Type: typeI32x6I32, Body: entryBody(fn(fnCheck), Groth16Mask)},
		fnPlonk:   {Type: typeI32x6I32, Body: entryBody(fn(fnCheck), PlonkMask)},
		fnStart:   {Type: typeVoid, Body: startBody(opts.InitTwice)},
		fnCheck:   {Type: typeI32x7I32, Locals: n(2), Body: checkBody(faultAddr, faultLen)},
	}

	m.Exports = []wasm.Export{
		{Name: "memory", Kind: wasm.KindMemory, Idx: 0},
		{Name: "__wbindgen_export_0", Kind: wasm.KindTable, Idx: 0},
		{Name: "__wbindgen_malloc", Kind: wasm.KindFunc, Idx: fn(fnMalloc)},
		{Name: "__wbindgen_realloc", Kind: wasm.KindFunc, Idx: fn(fnRealloc)},
		{Name: "verify_groth16", Kind: wasm.KindFunc, Idx: fn(fnGroth16)},
		{Name: "verify_plonk", Kind: wasm.KindFunc, Idx: fn(fnPlonk)},
		{Name: "__wbindgen_start", Kind: wasm.KindFunc, Idx: fn(fnStart)},
	}
	if opts.RetargetExport != "" {
		if exp, ok := m.Export(opts.RetargetExport); ok {
			exp.Idx = fn(fnStart)
		}
	}
	if opts.OmitExport != "" {
		m.RemoveExport(opts.OmitExport)
	}

	return m.Encode()
}

// mallocBody bumps the heap pointer by size and grows memory until the new
// top fits. Alignment is ignored: every caller asks for 1.
func mallocBody() []byte {
	const ptr = 2
	return wasm.NewCode().
		GlobalGet(0).LocalSet(ptr).
		GlobalGet(0).LocalGet(0).Op(wasm.OpI32Add).GlobalSet(0).
		Block().Loop().
		GlobalGet(0).MemorySize().I32Const(16).Op(wasm.OpI32Shl).Op(wasm.OpI32LeU).BrIf(1).
		I32Const(1).MemoryGrow().I32Const(-1).Op(wasm.OpI32Eq).
		If().Op(wasm.OpUnreachable).End().
		Br(0).
		End().End().
		LocalGet(ptr).
		Bytes()
}

// reallocBody allocates new_size bytes and copies min(old_size, new_size).
func reallocBody(malloc uint32) []byte {
	const next = 4
	return wasm.NewCode().
		LocalGet(2).LocalGet(3).Call(malloc).LocalSet(next).
		LocalGet(next).LocalGet(0).
		LocalGet(1).LocalGet(2).LocalGet(1).LocalGet(2).Op(wasm.OpI32LtU).Op(wasm.OpSelect).
		MemoryCopy().
		LocalGet(next).
		Bytes()
}

func entryBody(check uint32, mask byte) []byte {
	c := wasm.NewCode()
	for i := uint32(0); i < 6; i++ {
		c.LocalGet(i)
	}
	return c.I32Const(int32(mask)).Call(check).Bytes()
}

func startBody(twice bool) []byte {
	c := wasm.NewCode().Call(importInit)
	if twice {
		c.Call(importInit)
	}
	return c.Bytes()
}

// checkBody implements check(proof, proof_len, inputs, inputs_len, key,
// key_len, mask).
func checkBody(faultAddr, faultLen int32) []byte {
	const (
		proof, proofLen, inputs, inputsLen, key, keyLen, mask = 0, 1, 2, 3, 4, 5, 6
		acc, i                                                = 7, 8
	)
	return wasm.NewCode().
		// empty proof: throw a readable message
		LocalGet(proofLen).Op(wasm.OpI32Eqz).
		If().I32Const(faultAddr).I32Const(faultLen).Call(importThrow).Op(wasm.OpUnreachable).End().
		// trap without a message
		LocalGet(proofLen).I32Const(TrapProofLen).Op(wasm.OpI32Eq).
		If().Op(wasm.OpUnreachable).End().
		// empty key: throw a message that is not UTF-8
		LocalGet(keyLen).Op(wasm.OpI32Eqz).
		If().I32Const(malformedAddr).I32Const(int32(len(MalformedMessage))).Call(importThrow).Op(wasm.OpUnreachable).End().
		// acc = xor of public inputs
		Block().Loop().
		LocalGet(i).LocalGet(inputsLen).Op(wasm.OpI32GeU).BrIf(1).
		LocalGet(acc).LocalGet(inputs).LocalGet(i).Op(wasm.OpI32Add).Load8U(0).Op(wasm.OpI32Xor).LocalSet(acc).
		LocalGet(i).I32Const(1).Op(wasm.OpI32Add).LocalSet(i).
		Br(0).
		End().End().
		// proof[0] == acc ^ mask
		LocalGet(proof).Load8U(0).LocalGet(acc).LocalGet(mask).Op(wasm.OpI32Xor).Op(wasm.OpI32Eq).
		// key_len == KeyLen
		LocalGet(keyLen).I32Const(KeyLen).Op(wasm.OpI32Eq).Op(wasm.OpI32And).
		// key starts with "0x"
		LocalGet(key).Load8U(0).I32Const('0').Op(wasm.OpI32Eq).Op(wasm.OpI32And).
		LocalGet(key).Load8U(1).I32Const('x').Op(wasm.OpI32Eq).Op(wasm.OpI32And).
		Bytes()
}
