// Package engine binds bridge sessions to wazero.
//
// It compiles guest binaries, registers a session's import surface as the
// "host" module, and adapts the instantiated module to the Guest interface
// the bridge drives: the "run" entry export, "resume" for event delivery,
// and "getsp" for refetching the guest stack pointer after reentry.
//
// The import surface closes over one session, and the "host" module can be
// instantiated once per runtime, so an Engine serves a single guest: create
// one Engine per session and Close it when the session ends. An Instance is
// not safe for use from multiple goroutines.
package engine
