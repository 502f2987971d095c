package hostobj

import (
	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/values"
)

// Func is a callable host value. A non-nil error return is the host-side
// "throw": callers at the bridge boundary convert it to the guest's
// (result, ok=false) convention instead of propagating it.
type Func struct {
	Name string
	fn   func(this any, args []any) (any, error)
}

// FuncOf wraps a Go function as a callable host value.
func FuncOf(name string, fn func(this any, args []any) (any, error)) *Func {
	return &Func{Name: name, fn: fn}
}

func (*Func) RefKind() values.Kind { return values.KindFunction }

// Call applies the function with the given receiver.
func (f *Func) Call(this any, args []any) (any, error) {
	if f.fn == nil {
		return nil, errors.InvalidInput(errors.PhaseHost, "call of nil function "+f.Name)
	}
	return f.fn(this, args)
}

// Ctor is a constructible host value, the callee of the construct import and
// the right operand of instance_of.
type Ctor struct {
	Name      string
	construct func(args []any) (any, error)
	instance  func(v any) bool
}

// CtorOf defines a constructor with its instance predicate.
func CtorOf(name string, construct func(args []any) (any, error), instance func(v any) bool) *Ctor {
	return &Ctor{Name: name, construct: construct, instance: instance}
}

func (*Ctor) RefKind() values.Kind { return values.KindFunction }

// New constructs an instance.
func (c *Ctor) New(args []any) (any, error) {
	if c.construct == nil {
		return nil, errors.InvalidInput(errors.PhaseHost, c.Name+" is not constructible")
	}
	return c.construct(args)
}

// Instance reports whether v was produced by this constructor.
func (c *Ctor) Instance(v any) bool {
	if c.instance == nil {
		return false
	}
	return c.instance(v)
}
