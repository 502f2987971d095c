// Package errors provides structured error types for the js-bridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, offending value,
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindMalformedValue).
//		Path("args", "2").
//		Detail("non-canonical NaN payload").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownHandle(errors.PhaseDecode, handle)
//	err := errors.OutOfBounds(errors.PhaseRuntime, "read", offset, length)
//
// Protocol-violation kinds (unknown_handle, malformed_value, exited, protocol)
// are fatal to a session: they indicate guest/host desynchronization that
// cannot be safely continued.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
