// Package verifier provides the high-level API for SP1 proof verification.
//
// # Quick Start
//
//	ctx := context.Background()
//	v, err := verifier.Open(ctx, verifier.DefaultModulePath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Close(ctx)
//
//	ok, err := v.VerifyGroth16(ctx, proof, publicValues, vkeyHash)
//	if err != nil {
//	    log.Fatal(err) // fault: the proof was not judged
//	}
//	fmt.Println(ok)
//
// # Results and Faults
//
// A verification returns true or false. A false result means the module
// judged the proof invalid. Everything else is an error and carries no
// result:
//
//	*errors.GuestFault            the module rejected the call with a message
//	errors.PhaseValidate errors   bad arguments, raised before any guest call
//	errors.KindEncodeInvariant    marshalling bug, never retried
//	errors.KindTrap               the module trapped without a message
//
// # Dynamic Calls
//
// Invoke takes the entry point by name and untyped arguments. It checks
// arity and types before touching guest memory, which suits command-line
// and interactive front ends.
//
//	ok, err := v.Invoke(ctx, "verify_plonk", proof, publicValues, vkeyHash)
//
// # Thread Safety
//
// A Verifier wraps a single module instance and is NOT safe for concurrent
// use. Serialize calls or create one Verifier per goroutine.
package verifier
