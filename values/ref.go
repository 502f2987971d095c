package values

import (
	"math"

	"github.com/wippyai/js-bridge/errors"
)

// Ref is the 64-bit wire form of a value crossing the guest boundary.
//
// A slot holding a finite IEEE-754 double is that number. Everything else is a
// quiet-NaN pattern: the high word is nanHead ORed with a type tag, the low
// word is a handle into the session's Table. The all-zero slot is undefined.
type Ref uint64

// Kind is the type tag carried in the high word of a non-numeric Ref.
type Kind uint32

const (
	KindNone     Kind = 0 // objects, undefined and other primitives
	KindString   Kind = 1
	KindSymbol   Kind = 2
	KindFunction Kind = 3
)

const nanHead = 0x7FF80000

// Reserved refs for the pre-populated constant handles.
const (
	RefNaN   Ref = nanHead << 32
	RefZero  Ref = nanHead<<32 | 1
	RefNull  Ref = nanHead<<32 | 2
	RefTrue  Ref = nanHead<<32 | 3
	RefFalse Ref = nanHead<<32 | 4

	RefGlobal  Ref = nanHead<<32 | 5
	RefSession Ref = nanHead<<32 | 6
)

// RefUndefined is the all-zero slot, the guest's "no value".
const RefUndefined Ref = 0

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined is the host representation of the guest's undefined value.
var Undefined any = undefinedType{}

// IsUndefined reports whether v is the undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}

// Kinded is implemented by host values that carry a non-default type tag,
// such as function and symbol values.
type Kinded interface {
	RefKind() Kind
}

func kindOf(v any) Kind {
	switch t := v.(type) {
	case string:
		return KindString
	case Kinded:
		return t.RefKind()
	default:
		return KindNone
	}
}

func makeRef(id uint32, kind Kind) Ref {
	return Ref(uint64(nanHead|uint32(kind))<<32 | uint64(id))
}

// Handle returns the handle index of a tagged ref. Only meaningful when the
// ref is not a plain number.
func (r Ref) Handle() uint32 {
	return uint32(r)
}

// Encode converts a host value to its wire form, interning non-numeric values
// in the table. Finite nonzero numbers are copied by value; the number zero
// routes through the reserved zero handle so the slot stays distinguishable
// from "no value". Non-finite numbers other than NaN are interned, since their
// raw bit patterns are reserved for the tagged encodings.
func (t *Table) Encode(v any) Ref {
	switch x := v.(type) {
	case undefinedType:
		return RefUndefined
	case nil:
		return RefNull
	case bool:
		if x {
			return RefTrue
		}
		return RefFalse
	case float64:
		if math.IsNaN(x) {
			return RefNaN
		}
		if x == 0 { // +0 and -0 both take the constant path
			return RefZero
		}
		if !math.IsInf(x, 0) {
			return Ref(math.Float64bits(x))
		}
	case int:
		return t.Encode(float64(x))
	case int32:
		return t.Encode(float64(x))
	case int64:
		return t.Encode(float64(x))
	case uint32:
		return t.Encode(float64(x))
	case uint64:
		return t.Encode(float64(x))
	}
	return makeRef(t.Store(v), kindOf(v))
}

// Decode converts a wire slot back into a host value. Untagged non-finite
// doubles are rejected as malformed: their bit space is reserved for the
// tagged encodings, so seeing one means the guest wrote garbage.
func (t *Table) Decode(r Ref) (any, error) {
	if r == RefUndefined {
		return Undefined, nil
	}
	head := uint32(uint64(r) >> 32)
	if tag := head ^ nanHead; tag <= uint32(KindFunction) {
		return t.Load(r.Handle())
	}
	f := math.Float64frombits(uint64(r))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.MalformedValue(errors.PhaseDecode, uint64(r))
	}
	return f, nil
}
