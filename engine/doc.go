// Package engine loads and runs the SP1 verifier module on wazero.
//
// The verifier binary is wasm-bindgen output. It imports two host functions
// from the "__wbindgen_placeholder__" module and exports its memory, an
// allocator pair and one entry point per proof system.
//
// # Architecture
//
//	Engine   - Owns the wazero runtime and the host module
//	Module   - A compiled binary that passed the ABI check
//	Instance - A running verifier with its memory, allocator and reference table
//
// # Loading Flow
//
//  1. Engine.LoadModule() compiles the binary and checks every import and
//     export against the expected signatures
//  2. Module.Instantiate() registers the instance's reference table
//     capability, instantiates with start functions disabled, then calls
//     __wbindgen_start
//  3. The start routine calls back into __wbindgen_init_externref_table,
//     which runs the instance's Seeder exactly once
//
// Any failure along this path is a PhaseLoad error and leaves no instance.
//
// # Host Functions
//
//	__wbindgen_throw(ptr, len)          decode message, abort call with *errors.GuestFault
//	__wbindgen_init_externref_table()   seed the instance's resource.Table
//
// wazero recovers host panics and returns them wrapped from the guest call.
// Instance.Call unwraps them: a GuestFault is returned as is, host errors
// raised inside the call keep their structure, and other traps become
// KindTrap errors.
//
// # Memory
//
// Instance.AcquireView returns a View scoped to one operation. Views
// re-slice after memory growth, so no window outlives a resize.
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use.
// Instance is NOT thread-safe and should be used by a single goroutine.
package engine
