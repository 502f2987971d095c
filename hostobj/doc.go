// Package hostobj models the host-side value universe the guest manipulates
// through opaque handles: property bags, callable functions, constructors,
// byte buffers and indexed arrays.
//
// The bridge's import surface never interprets these values itself; it routes
// every property read, method call and construction through this package's
// reflect-style entry points (Get, Set, Apply, Invoke, Construct, ...). Host
// values participate by implementing small interfaces (Getter, Setter,
// Deleter) or by being one of the built-in shapes.
//
// Host-side throws are Go errors returned from these functions. The bridge
// converts them to the guest's (result, ok=false) convention for the calling
// imports and treats them as fatal elsewhere, matching the ABI's failure
// policy.
//
// NewGlobal builds the default global object with the Object, Array and
// Uint8Array constructors; embedders hang their own API off it before a
// session starts.
package hostobj
