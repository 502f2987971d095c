package hostobj

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/values"
)

func TestObject_GetSetDelete(t *testing.T) {
	o := NewObject().With("x", float64(1))

	v, err := Get(o, "x")
	if err != nil || v != float64(1) {
		t.Fatalf("Get = %v, %v", v, err)
	}

	if err := Set(o, "y", "hi"); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(o, "y"); v != "hi" {
		t.Errorf("Get(y) = %v", v)
	}

	// Missing property reads as undefined, not an error.
	v, err = Get(o, "nope")
	if err != nil || !values.IsUndefined(v) {
		t.Errorf("missing property = %v, %v", v, err)
	}

	if err := Delete(o, "x"); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(o, "x"); !values.IsUndefined(v) {
		t.Error("property survived delete")
	}
}

func TestGet_NonObjectThrows(t *testing.T) {
	if _, err := Get(float64(3), "x"); err == nil {
		t.Error("expected throw reading property of a number")
	}
}

func TestGet_ErrorMessage(t *testing.T) {
	thrown := stderrors.New("file not found")
	v, err := Get(thrown, "message")
	if err != nil || v != "file not found" {
		t.Errorf("error message property = %v, %v", v, err)
	}
}

func TestIndexing(t *testing.T) {
	a := NewArray(2)
	if err := SetIndex(a, 1, "b"); err != nil {
		t.Fatal(err)
	}
	if v, _ := GetIndex(a, 1); v != "b" {
		t.Errorf("GetIndex = %v", v)
	}
	if v, _ := GetIndex(a, 9); !values.IsUndefined(v) {
		t.Error("out-of-range read should be undefined")
	}
	if err := SetIndex(a, 9, "x"); err == nil {
		t.Error("out-of-range write should fail")
	}

	b := NewBuffer(3)
	if err := SetIndex(b, 0, float64(200)); err != nil {
		t.Fatal(err)
	}
	if v, _ := GetIndex(b, 0); v != float64(200) {
		t.Errorf("buffer element = %v", v)
	}
}

func TestApply_CallsWithReceiver(t *testing.T) {
	var gotThis any
	o := NewObject()
	o.With("greet", FuncOf("greet", func(this any, args []any) (any, error) {
		gotThis = this
		return "hello " + args[0].(string), nil
	}))

	v, err := Apply(o, "greet", []any{"world"})
	if err != nil {
		t.Fatal(err)
	}
	if v != "hello world" {
		t.Errorf("result = %v", v)
	}
	if gotThis != o {
		t.Error("receiver not bound")
	}
}

func TestApply_MissingMethodThrows(t *testing.T) {
	_, err := Apply(NewObject(), "nope", nil)
	if err == nil {
		t.Fatal("expected throw")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindNotFound}) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestInvoke(t *testing.T) {
	f := FuncOf("add", func(this any, args []any) (any, error) {
		return args[0].(float64) + args[1].(float64), nil
	})
	v, err := Invoke(f, []any{float64(2), float64(3)})
	if err != nil || v != float64(5) {
		t.Errorf("Invoke = %v, %v", v, err)
	}

	if _, err := Invoke("not a func", nil); err == nil {
		t.Error("expected throw invoking a string")
	}
}

func TestConstructAndInstanceOf(t *testing.T) {
	g := NewGlobal()
	ctorAny, _ := Get(g, "Uint8Array")

	v, err := Construct(ctorAny, []any{float64(16)})
	if err != nil {
		t.Fatal(err)
	}
	buf, ok := v.(*Buffer)
	if !ok || len(buf.Data) != 16 {
		t.Fatalf("constructed %v", v)
	}

	yes, err := InstanceOf(buf, ctorAny)
	if err != nil || !yes {
		t.Errorf("InstanceOf buffer = %v, %v", yes, err)
	}
	arrCtor, _ := Get(g, "Array")
	no, err := InstanceOf(buf, arrCtor)
	if err != nil || no {
		t.Errorf("buffer instanceof Array = %v, %v", no, err)
	}
}

func TestLength(t *testing.T) {
	cases := []struct {
		v    any
		want int
	}{
		{NewArray(4), 4},
		{NewBuffer(9), 9},
		{"abc", 3},
		{NewObject().With("length", float64(7)), 7},
	}
	for _, c := range cases {
		got, err := Length(c.v)
		if err != nil {
			t.Fatalf("Length(%v): %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("Length(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		v    any
		want string
	}{
		{"s", "s"},
		{float64(2.5), "2.5"},
		{true, "true"},
		{nil, "null"},
		{values.Undefined, "undefined"},
	}
	for _, c := range cases {
		if got := Stringify(c.v); got != c.want {
			t.Errorf("Stringify(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if v := Normalize(3); v != float64(3) {
		t.Errorf("Normalize(int) = %v", v)
	}
	raw := []byte{1, 2}
	b, ok := Normalize(raw).(*Buffer)
	if !ok || &b.Data[0] != &raw[0] {
		t.Error("Normalize([]byte) must wrap, not copy")
	}
	if _, ok := Normalize([]any{1}).(*Array); !ok {
		t.Error("Normalize([]any) should wrap in Array")
	}
}

func TestAsBuffer(t *testing.T) {
	if _, ok := AsBuffer(NewObject()); ok {
		t.Error("object reported as buffer")
	}
	if d, ok := AsBuffer(&Buffer{Data: []byte{9}}); !ok || d[0] != 9 {
		t.Error("buffer not unwrapped")
	}
}
