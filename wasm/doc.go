// Package wasm encodes core WebAssembly modules in binary format.
//
// It covers the subset needed to synthesize small guest modules in
// process: function types, function imports, tables, memories, i32
// globals, exports, a start function, code and active data segments.
//
// # Building a Module
//
//	m := &wasm.Module{
//	    Types:    []wasm.FuncType{{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}},
//	    Funcs:    []wasm.Func{{Type: 0, Body: wasm.NewCode().LocalGet(0).Bytes()}},
//	    Memories: []wasm.Limits{{Min: 1}},
//	    Exports:  []wasm.Export{{Name: "id", Kind: wasm.KindFunc, Idx: 0}},
//	}
//	bin := m.Encode()
//
// Function bodies are written with Code, a chaining instruction builder.
// Bytes appends the terminating end opcode.
package wasm
