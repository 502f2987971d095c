package values

import (
	"math"

	"github.com/wippyai/js-bridge/errors"
)

// reservedHandles is the number of pre-populated constant slots.
const reservedHandles = 7

// released marks a slot whose reference count dropped to zero. A distinct
// sentinel is needed because nil is a live value (the null constant).
type releasedSlot struct{}

var released any = releasedSlot{}

// Table is the bidirectional mapping between guest handles and host values.
//
// Handles 0-6 are reserved: NaN, 0, null, true, false, the host global object
// and the session object. Dynamic values are appended after them and interned
// by identity, so storing the same value twice yields the same handle. Slots
// are reclaimed only through Release (the guest's finalizer import); a table
// is otherwise expected to grow for the lifetime of one short session.
//
// A Table is confined to its session's event-loop goroutine and needs no
// locking.
type Table struct {
	values    []any
	refCounts []uint32
	ids       map[any]uint32
	idPool    []uint32
}

// NewTable creates a table pre-populated with the reserved constants.
// global and session become handles 5 and 6.
func NewTable(global, session any) *Table {
	t := &Table{
		values: []any{math.NaN(), float64(0), nil, true, false, global, session},
		ids:    make(map[any]uint32),
	}
	// NaN is not seeded into ids: it never compares equal to itself, and
	// Encode routes it to the constant handle before interning.
	t.ids[float64(0)] = 1
	t.ids[nil] = 2
	t.ids[true] = 3
	t.ids[false] = 4
	t.ids[global] = 5
	t.ids[session] = 6
	t.refCounts = make([]uint32, len(t.values))
	return t
}

// Store interns a value and returns its handle, bumping its reference count.
// An already-present value reuses its existing handle.
func (t *Table) Store(v any) uint32 {
	id, ok := t.ids[v]
	if !ok {
		if n := len(t.idPool); n > 0 {
			id = t.idPool[n-1]
			t.idPool = t.idPool[:n-1]
			t.values[id] = v
			t.refCounts[id] = 0
		} else {
			id = uint32(len(t.values))
			t.values = append(t.values, v)
			t.refCounts = append(t.refCounts, 0)
		}
		t.ids[v] = id
	}
	if id >= reservedHandles {
		t.refCounts[id]++
	}
	return id
}

// Load returns the value for a previously issued handle. An unknown handle is
// a protocol violation: guest and host have desynchronized.
func (t *Table) Load(handle uint32) (any, error) {
	if handle >= uint32(len(t.values)) {
		return nil, errors.UnknownHandle(errors.PhaseDecode, handle)
	}
	v := t.values[handle]
	if _, gone := v.(releasedSlot); gone {
		return nil, errors.UnknownHandle(errors.PhaseDecode, handle)
	}
	return v, nil
}

// Release drops one guest reference to a handle. When the count reaches zero
// the slot is freed and its id recycled. Reserved handles are never released.
func (t *Table) Release(handle uint32) {
	if handle < reservedHandles || handle >= uint32(len(t.values)) {
		return
	}
	if _, gone := t.values[handle].(releasedSlot); gone {
		return
	}
	if t.refCounts[handle] > 0 {
		t.refCounts[handle]--
	}
	if t.refCounts[handle] == 0 {
		delete(t.ids, t.values[handle])
		t.values[handle] = released
		t.idPool = append(t.idPool, handle)
	}
}

// Len returns the number of live slots, reserved constants included.
func (t *Table) Len() int {
	return len(t.values) - len(t.idPool)
}

// Reset drops every dynamic value, keeping only the reserved constants.
// Called at session teardown.
func (t *Table) Reset() {
	for _, v := range t.values[reservedHandles:] {
		if _, gone := v.(releasedSlot); !gone {
			delete(t.ids, v)
		}
	}
	t.values = t.values[:reservedHandles]
	t.refCounts = t.refCounts[:reservedHandles]
	t.idPool = t.idPool[:0]
}
