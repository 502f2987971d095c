package values

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/js-bridge/errors"
)

type testFunc struct{ id int }

func (*testFunc) RefKind() Kind { return KindFunction }

type testSymbol struct{ name string }

func (*testSymbol) RefKind() Kind { return KindSymbol }

func TestEncode_NumbersInline(t *testing.T) {
	tbl := newTestTable()

	for _, f := range []float64{1, -1, 3.14159, 1e300, -1e-300, 42} {
		r := tbl.Encode(f)
		got, err := tbl.Decode(r)
		if err != nil {
			t.Fatalf("Decode(Encode(%v)): %v", f, err)
		}
		if got != f {
			t.Errorf("round trip %v = %v", f, got)
		}
		if uint64(r) != math.Float64bits(f) {
			t.Errorf("number %v not passed by value", f)
		}
	}
}

func TestEncode_ZeroUsesConstantHandle(t *testing.T) {
	tbl := newTestTable()

	for _, f := range []float64{0, math.Copysign(0, -1)} {
		r := tbl.Encode(f)
		if r != RefZero {
			t.Fatalf("Encode(%v) = %#x, want RefZero", f, uint64(r))
		}
		got, err := tbl.Decode(r)
		if err != nil {
			t.Fatal(err)
		}
		// Sign of zero is not preserved by contract.
		if got != float64(0) {
			t.Errorf("Decode(RefZero) = %v", got)
		}
	}
}

func TestEncode_Constants(t *testing.T) {
	tbl := newTestTable()

	cases := []struct {
		v    any
		want Ref
	}{
		{nil, RefNull},
		{true, RefTrue},
		{false, RefFalse},
		{math.NaN(), RefNaN},
		{Undefined, RefUndefined},
	}
	for _, c := range cases {
		if got := tbl.Encode(c.v); got != c.want {
			t.Errorf("Encode(%v) = %#x, want %#x", c.v, uint64(got), uint64(c.want))
		}
	}
}

func TestDecode_Constants(t *testing.T) {
	tbl := newTestTable()

	if v, err := tbl.Decode(RefNull); err != nil || v != nil {
		t.Errorf("Decode(RefNull) = %v, %v", v, err)
	}
	if v, err := tbl.Decode(RefTrue); err != nil || v != true {
		t.Errorf("Decode(RefTrue) = %v, %v", v, err)
	}
	if v, err := tbl.Decode(RefFalse); err != nil || v != false {
		t.Errorf("Decode(RefFalse) = %v, %v", v, err)
	}
	if v, err := tbl.Decode(RefUndefined); err != nil || !IsUndefined(v) {
		t.Errorf("Decode(RefUndefined) = %v, %v", v, err)
	}
	v, err := tbl.Decode(RefNaN)
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := v.(float64); !ok || !math.IsNaN(f) {
		t.Errorf("Decode(RefNaN) = %v", v)
	}
}

func TestEncode_InternedValuesReuseHandles(t *testing.T) {
	tbl := newTestTable()
	obj := &testObj{"same"}

	r1 := tbl.Encode(obj)
	r2 := tbl.Encode(obj)
	if r1 != r2 {
		t.Errorf("same object encoded to %#x and %#x", uint64(r1), uint64(r2))
	}

	got, err := tbl.Decode(r1)
	if err != nil {
		t.Fatal(err)
	}
	if got != obj {
		t.Error("identity lost through round trip")
	}
}

func TestEncode_TypeTags(t *testing.T) {
	tbl := newTestTable()

	cases := []struct {
		v    any
		kind Kind
	}{
		{"hello", KindString},
		{&testSymbol{"iterator"}, KindSymbol},
		{&testFunc{1}, KindFunction},
		{&testObj{"o"}, KindNone},
	}
	for _, c := range cases {
		r := tbl.Encode(c.v)
		head := uint32(uint64(r) >> 32)
		if head != nanHead|uint32(c.kind) {
			t.Errorf("Encode(%v) head = %#x, want tag %d", c.v, head, c.kind)
		}
		got, err := tbl.Decode(r)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.v {
			t.Errorf("round trip %v = %v", c.v, got)
		}
	}
}

func TestEncode_IntegersCoerced(t *testing.T) {
	tbl := newTestTable()
	r := tbl.Encode(7)
	v, err := tbl.Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if v != float64(7) {
		t.Errorf("Decode(Encode(7)) = %v", v)
	}
}

func TestEncode_InfinityTakesHandlePath(t *testing.T) {
	tbl := newTestTable()
	r := tbl.Encode(math.Inf(1))
	if uint64(r) == math.Float64bits(math.Inf(1)) {
		t.Fatal("infinity must not be passed as raw bits")
	}
	v, err := tbl.Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(v.(float64), 1) {
		t.Errorf("round trip Inf = %v", v)
	}
}

func TestDecode_MalformedNonFinite(t *testing.T) {
	tbl := newTestTable()

	malformed := []uint64{
		math.Float64bits(math.Inf(1)),
		math.Float64bits(math.Inf(-1)),
		0xFFF8000000000001, // negative quiet NaN payload
		0x7FF0000000000001, // signaling NaN
	}
	for _, bits := range malformed {
		_, err := tbl.Decode(Ref(bits))
		if err == nil {
			t.Errorf("Decode(%#016x) accepted malformed slot", bits)
			continue
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindMalformedValue}) {
			t.Errorf("Decode(%#016x) wrong error: %v", bits, err)
		}
	}
}

func TestDecode_UnknownHandleFatal(t *testing.T) {
	tbl := newTestTable()
	_, err := tbl.Decode(makeRef(500, KindNone))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnknownHandle}) {
		t.Errorf("wrong error: %v", err)
	}
}
