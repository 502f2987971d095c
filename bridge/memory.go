package bridge

import (
	"context"
	"encoding/binary"
	"math"

	jsbridge "github.com/wippyai/js-bridge"
	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/values"
)

// Memory helpers for host imports. A guest handing over a bad pointer, an
// unknown handle or malformed value bits is unrecoverable, so these panic
// with a *errors.Error; the engine surfaces the panic as a trap on the
// guest call and the session crashes. Host-side results still flow through
// explicit error returns.

func (s *Session) mem() jsbridge.Memory {
	if s.state.Load() == stateExited {
		panic(errors.Exited("memory access"))
	}
	return s.guest.Mem()
}

func (s *Session) loadU64(off uint32) uint64 {
	v, err := s.mem().ReadU64(off)
	if err != nil {
		panic(errors.OutOfBounds(errors.PhaseDecode, "read u64", off, 8))
	}
	return v
}

func (s *Session) loadU32(off uint32) uint32 {
	return uint32(s.loadU64(off))
}

func (s *Session) loadI64(off uint32) int64 {
	return int64(s.loadU64(off))
}

func (s *Session) loadBytes(ptr, length uint32) []byte {
	b, err := s.mem().Read(ptr, length)
	if err != nil {
		panic(errors.OutOfBounds(errors.PhaseDecode, "read bytes", ptr, length))
	}
	return b
}

// loadSlice reads a (ptr, len) descriptor stored as two u64 slots at off.
func (s *Session) loadSlice(off uint32) []byte {
	ptr := uint32(s.loadU64(off))
	n := uint32(s.loadU64(off + 8))
	return s.loadBytes(ptr, n)
}

func (s *Session) loadString(off uint32) string {
	return string(s.loadSlice(off))
}

func (s *Session) loadRef(off uint32) values.Ref {
	return values.Ref(s.loadU64(off))
}

// loadValue decodes the tagged slot at off into a host value.
func (s *Session) loadValue(off uint32) any {
	v, err := s.table.Decode(s.loadRef(off))
	if err != nil {
		panic(err)
	}
	return v
}

// loadValueSlice decodes a descriptor of packed 8-byte refs at off.
func (s *Session) loadValueSlice(off uint32) []any {
	ptr := uint32(s.loadU64(off))
	count := s.loadU64(off + 8)
	// The byte length is computed in 64 bits: a huge guest-supplied count
	// must fail as out of bounds, not wrap.
	if count > math.MaxUint32/8 {
		panic(errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Detail("value slice count %d exceeds guest memory", count).
			Build())
	}
	n := uint32(count)
	raw := s.loadBytes(ptr, n*8)
	out := make([]any, n)
	for i := range out {
		r := values.Ref(binary.LittleEndian.Uint64(raw[i*8:]))
		v, err := s.table.Decode(r)
		if err != nil {
			panic(err)
		}
		out[i] = v
	}
	return out
}

func (s *Session) storeU64(off uint32, v uint64) {
	if err := s.mem().WriteU64(off, v); err != nil {
		panic(errors.OutOfBounds(errors.PhaseEncode, "write u64", off, 8))
	}
}

func (s *Session) storeU32(off uint32, v uint32) {
	if err := s.mem().WriteU32(off, v); err != nil {
		panic(errors.OutOfBounds(errors.PhaseEncode, "write u32", off, 4))
	}
}

// storeValue encodes a host value into the tagged slot at off.
func (s *Session) storeValue(off uint32, v any) {
	s.storeU64(off, uint64(s.table.Encode(v)))
}

func (s *Session) storeBool(off uint32, v bool) {
	var b uint8
	if v {
		b = 1
	}
	if err := s.mem().WriteU8(off, b); err != nil {
		panic(errors.OutOfBounds(errors.PhaseEncode, "write bool", off, 1))
	}
}

func (s *Session) storeBytes(off uint32, b []byte) {
	if err := s.mem().Write(off, b); err != nil {
		panic(errors.OutOfBounds(errors.PhaseEncode, "write bytes", off, uint32(len(b))))
	}
}

// refreshSP re-reads the guest stack pointer. Imports that can reenter the
// guest (callback dispatch through a function wrapper) must refetch it
// before writing results, since the reentry may have moved the stack.
func (s *Session) refreshSP(ctx context.Context) uint32 {
	sp, err := s.guest.StackPointer(ctx)
	if err != nil {
		panic(errors.New(errors.PhaseRuntime, errors.KindProtocol).
			Detail("stack pointer query failed").
			Cause(err).
			Build())
	}
	return sp
}
