package hostobj

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/values"
)

// Get reads a named property. A missing property yields undefined, matching
// scripting-host semantics; reading off a non-object is a host throw.
func Get(target any, key string) (any, error) {
	switch t := target.(type) {
	case Getter:
		if v, ok := t.HostGet(key); ok {
			return v, nil
		}
		return values.Undefined, nil
	case error:
		// Errors surface to the guest as objects with a message property.
		if key == "message" {
			return t.Error(), nil
		}
		return values.Undefined, nil
	default:
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Path(key).
			Detail("cannot read property of %s", typeName(target)).
			Build()
	}
}

// Set writes a named property.
func Set(target any, key string, value any) error {
	if s, ok := target.(Setter); ok && s.HostSet(key, value) {
		return nil
	}
	return errors.New(errors.PhaseHost, errors.KindInvalidInput).
		Path(key).
		Detail("cannot set property on %s", typeName(target)).
		Build()
}

// Delete removes a named property. Deleting a missing property is not an
// error, matching delete-operator semantics.
func Delete(target any, key string) error {
	if d, ok := target.(Deleter); ok {
		d.HostDelete(key)
		return nil
	}
	return errors.New(errors.PhaseHost, errors.KindInvalidInput).
		Path(key).
		Detail("cannot delete property on %s", typeName(target)).
		Build()
}

// GetIndex reads an indexed element. Out-of-range reads yield undefined.
func GetIndex(target any, i int) (any, error) {
	switch t := target.(type) {
	case *Array:
		if i < 0 || i >= len(t.Elems) {
			return values.Undefined, nil
		}
		return t.Elems[i], nil
	case *Buffer:
		if i < 0 || i >= len(t.Data) {
			return values.Undefined, nil
		}
		return float64(t.Data[i]), nil
	default:
		return nil, errors.InvalidInput(errors.PhaseHost, "cannot index "+typeName(target))
	}
}

// SetIndex writes an indexed element.
func SetIndex(target any, i int, value any) error {
	switch t := target.(type) {
	case *Array:
		if i < 0 || i >= len(t.Elems) {
			return errors.New(errors.PhaseHost, errors.KindOutOfBounds).
				Detail("index %d out of range (length %d)", i, len(t.Elems)).
				Build()
		}
		t.Elems[i] = value
		return nil
	case *Buffer:
		f, ok := value.(float64)
		if !ok || i < 0 || i >= len(t.Data) {
			return errors.InvalidInput(errors.PhaseHost, "buffer element write rejected")
		}
		t.Data[i] = byte(uint8(f))
		return nil
	default:
		return errors.InvalidInput(errors.PhaseHost, "cannot index "+typeName(target))
	}
}

// Apply looks a method up by name on the receiver and calls it with the
// receiver as call context. A non-nil error is the thrown value.
func Apply(target any, method string, args []any) (any, error) {
	m, err := Get(target, method)
	if err != nil {
		return nil, err
	}
	f, ok := m.(*Func)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindNotFound).
			Path(method).
			Detail("%s.%s is not a function", typeName(target), method).
			Build()
	}
	return f.Call(target, args)
}

// Invoke calls a function value with no receiver binding.
func Invoke(fn any, args []any) (any, error) {
	f, ok := fn.(*Func)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseHost, typeName(fn)+" is not callable")
	}
	return f.Call(values.Undefined, args)
}

// Construct invokes a constructor value.
func Construct(ctor any, args []any) (any, error) {
	c, ok := ctor.(*Ctor)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseHost, typeName(ctor)+" is not a constructor")
	}
	return c.New(args)
}

// Length returns the numeric length property coerced to an integer.
func Length(target any) (int, error) {
	switch t := target.(type) {
	case *Array:
		return len(t.Elems), nil
	case *Buffer:
		return len(t.Data), nil
	case string:
		return len(t), nil
	case Getter:
		v, ok := t.HostGet("length")
		if !ok {
			return 0, nil
		}
		if f, ok := v.(float64); ok {
			return int(f), nil
		}
		return 0, errors.InvalidInput(errors.PhaseHost, "length property is not a number")
	default:
		return 0, errors.InvalidInput(errors.PhaseHost, typeName(target)+" has no length")
	}
}

// Stringify returns the host string form of a value, for staging to the guest.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if math.IsNaN(t) {
			return "NaN"
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "null"
	case *Func:
		return "function " + t.Name
	case *Ctor:
		return "function " + t.Name
	case *Symbol:
		return "Symbol(" + t.Name + ")"
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return "[object " + typeName(v) + "]"
	}
}

// InstanceOf reports whether v is an instance of the given constructor value.
func InstanceOf(v, ctor any) (bool, error) {
	c, ok := ctor.(*Ctor)
	if !ok {
		return false, errors.InvalidInput(errors.PhaseHost, typeName(ctor)+" is not a constructor")
	}
	return c.Instance(v), nil
}

// AsBuffer extracts the raw bytes of a buffer-shaped host value. The second
// result is false when the value is not a byte buffer; byte copies report
// that through their success flag rather than throwing.
func AsBuffer(v any) ([]byte, bool) {
	if b, ok := v.(*Buffer); ok {
		return b.Data, true
	}
	return nil, false
}

// Normalize maps plain Go values returned by host code onto the canonical
// host value model: integers widen to float64, byte and value slices get
// pointer-shaped wrappers so identity interning stays well defined.
func Normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []byte:
		return &Buffer{Data: t}
	case []any:
		return &Array{Elems: t}
	default:
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *Object:
		return "Object"
	case *Array:
		return "Array"
	case *Buffer:
		return "Uint8Array"
	case *Func, *Ctor:
		return "Function"
	case string:
		return "string"
	case float64:
		return "number"
	default:
		if values.IsUndefined(v) {
			return "undefined"
		}
		return fmt.Sprintf("%T", v)
	}
}
