// Package values implements the handle table and wire codec for values
// crossing the guest memory boundary.
//
// # Wire form
//
// A value travels as one 64-bit slot (values.Ref). Finite doubles are passed
// by value. Everything else is NaN-boxed: the high word carries a quiet-NaN
// head plus a type tag (string, symbol, function, or none), the low word an
// index into the session's Table. The all-zero slot is undefined, and the
// number zero is forced through a reserved constant handle so it cannot be
// confused with it.
//
// # Handle table
//
// Table interns host values by identity: storing an already-present value
// returns its existing handle, so object identity survives a round trip.
// Handles 0-6 are reserved constants (NaN, 0, null, true, false, the global
// object, the session object). Slots are reference counted against the
// guest's finalizer import; a session that never finalizes simply grows the
// table until teardown.
//
// Values stored in a Table must be comparable. Composite host values are
// pointer-shaped wrappers (see the hostobj package), which keeps identity
// interning well defined.
package values
