package hostobj

import (
	"github.com/wippyai/js-bridge/errors"
)

// NewGlobal builds the default host global object: the Object, Array and
// Uint8Array constructors plus a minimal process namespace. Embedders extend
// it with With before starting a session.
func NewGlobal() *Object {
	g := NewObject()

	g.With("Object", CtorOf("Object",
		func(args []any) (any, error) {
			return NewObject(), nil
		},
		func(v any) bool {
			_, ok := v.(*Object)
			return ok
		}))

	g.With("Array", CtorOf("Array",
		func(args []any) (any, error) {
			n, err := lengthArg(args)
			if err != nil {
				return nil, err
			}
			return NewArray(n), nil
		},
		func(v any) bool {
			_, ok := v.(*Array)
			return ok
		}))

	g.With("Uint8Array", CtorOf("Uint8Array",
		func(args []any) (any, error) {
			n, err := lengthArg(args)
			if err != nil {
				return nil, err
			}
			return NewBuffer(n), nil
		},
		func(v any) bool {
			_, ok := v.(*Buffer)
			return ok
		}))

	g.With("process", newProcess())

	return g
}

func newProcess() *Object {
	p := NewObject()
	// The guest probes identity calls it has no real counterpart for.
	for _, name := range []string{"getuid", "getgid", "geteuid", "getegid"} {
		p.With(name, FuncOf(name, func(this any, args []any) (any, error) {
			return float64(-1), nil
		}))
	}
	p.With("pid", float64(1))
	p.With("ppid", float64(0))
	return p
}

func lengthArg(args []any) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	f, ok := args[0].(float64)
	if !ok || f < 0 {
		return 0, errors.InvalidInput(errors.PhaseHost, "length argument must be a non-negative number")
	}
	return int(f), nil
}
