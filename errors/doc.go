// Package errors provides structured error types for the SP1 verifier host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the argument path, the offending Go type,
// a detail message and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
//		Path("verifying_key_hash").
//		GoType("int").
//		Detail("expected string").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExport("verify_plonk")
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//
// Faults raised by the guest through its throw import are *GuestFault values;
// use AsGuestFault to recover the message from a wrapped call error.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
