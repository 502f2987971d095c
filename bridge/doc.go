// Package bridge drives one guest VM instance: it owns the session value
// table, the import surface the guest calls through a stack-pointer ABI, the
// timer set and the single-slot pending-event mailbox used for host-to-guest
// callbacks.
//
// A Session is bound to a guest (see the engine package for the wazero
// binding), started once, and waited on for its exit code. All guest-facing
// state is confined to the session's event-loop goroutine; protocol
// violations from the guest terminate the session rather than being
// recoverable.
package bridge
