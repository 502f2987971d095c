package hostobj

import (
	"github.com/wippyai/js-bridge/values"
)

// Getter is implemented by host values with dynamic property reads.
// The second result is false when the property does not exist; property
// access on a live value never throws through this interface.
type Getter interface {
	HostGet(key string) (any, bool)
}

// Setter is implemented by host values that accept property writes.
// It reports false when the property is not writable.
type Setter interface {
	HostSet(key string, value any) bool
}

// Deleter is implemented by host values that support property removal.
type Deleter interface {
	HostDelete(key string) bool
}

// Object is a property bag, the general-purpose composite host value.
type Object struct {
	props map[string]any
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{props: make(map[string]any)}
}

func (o *Object) HostGet(key string) (any, bool) {
	v, ok := o.props[key]
	return v, ok
}

func (o *Object) HostSet(key string, value any) bool {
	o.props[key] = value
	return true
}

func (o *Object) HostDelete(key string) bool {
	if _, ok := o.props[key]; !ok {
		return false
	}
	delete(o.props, key)
	return true
}

// With sets a property and returns the object, for construction chains.
func (o *Object) With(key string, value any) *Object {
	o.props[key] = value
	return o
}

// Array is a host value holding an indexed run of values.
type Array struct {
	Elems []any
}

// NewArray creates an array of n undefined elements.
func NewArray(n int) *Array {
	a := &Array{Elems: make([]any, n)}
	for i := range a.Elems {
		a.Elems[i] = values.Undefined
	}
	return a
}

// Buffer is a raw byte buffer host value, the target of byte-slice copies.
type Buffer struct {
	Data []byte
}

// NewBuffer creates a zeroed buffer of n bytes.
func NewBuffer(n int) *Buffer {
	return &Buffer{Data: make([]byte, n)}
}

// Symbol is an opaque named primitive with its own wire tag.
type Symbol struct {
	Name string
}

func (*Symbol) RefKind() values.Kind { return values.KindSymbol }
