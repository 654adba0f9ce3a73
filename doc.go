// Package sp1wasm hosts the SP1 zero-knowledge proof verifier compiled to
// WebAssembly and exposes Groth16 and Plonk verification to Go callers.
//
// The verifier binary is produced by wasm-bindgen. It embeds the verifying
// keys, exports a byte allocator and the two verification entry points, and
// imports two host callbacks: one that raises faults and one that seeds its
// reference table at start-up. This library supplies those callbacks,
// marshals arguments into the guest's linear memory and relays the boolean
// outcome.
//
// # Architecture Overview
//
//	sp1wasm/         Root package with Memory and Allocator interfaces
//	├── verifier/    High-level API: VerifyGroth16, VerifyPlonk
//	├── engine/      wazero integration: loading, ABI checks, host callbacks
//	├── transcoder/  Byte and string marshalling into guest memory
//	├── resource/    Host-side reference table seeded at start-up
//	├── errors/      Structured error types
//	├── config/      YAML configuration and logger construction
//	├── fixture/     Proof fixtures: files, HTTP fetch, inspection
//	├── wasm/        Minimal core WASM binary encoder
//	├── testbed/     Stub verifier binary and integration tests
//	└── cmd/verify/  Command-line verifier with an interactive mode
//
// # Quick Start
//
//	ctx := context.Background()
//	v, err := verifier.Open(ctx, verifier.DefaultModulePath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ok, err := v.VerifyGroth16(ctx, proof, publicValues, vkeyHash)
//	if err != nil {
//	    log.Fatal(err) // the guest faulted; this is not an invalid proof
//	}
//	fmt.Println(ok)
//
// # Results and Faults
//
// A proof that does not verify yields false with a nil error. Errors are
// reserved for faults: a malformed binary, bad arguments, an encoding
// invariant violation, or a fault raised by the guest itself.
//
// # Thread Safety
//
// A Verifier wraps a single guest instance and is NOT safe for concurrent
// use. Callers that share one must serialise access.
//
// # Memory Model
//
// Arguments are copied into memory obtained from the guest allocator and are
// never freed by the host. Whether the guest reuses that space across calls is
// a property of the binary.
package sp1wasm
