package bridge

import (
	"context"
	"crypto/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/hostobj"
)

// HostFunc is the shape of every import: a single stack pointer from which
// arguments are read and results written at fixed byte offsets.
type HostFunc func(ctx context.Context, sp uint32)

// Imports returns the session's host function table, keyed by export name.
// The engine registers these under the "host" import module.
func (s *Session) Imports() map[string]HostFunc {
	return map[string]HostFunc{
		"process_exit":          s.processExit,
		"write_fd":              s.writeFD,
		"monotonic_time":        s.monotonicTime,
		"wall_time":             s.wallTime,
		"schedule_timeout":      s.scheduleTimeoutImport,
		"clear_timeout":         s.clearTimeoutImport,
		"random_bytes":          s.randomBytes,
		"value_of_string":       s.valueOfString,
		"finalize_ref":          s.finalizeRef,
		"get_property":          s.getProperty,
		"set_property":          s.setProperty,
		"delete_property":       s.deleteProperty,
		"get_index":             s.getIndex,
		"set_index":             s.setIndex,
		"call_method":           s.callMethod,
		"invoke_function":       s.invokeFunction,
		"construct":             s.construct,
		"length_of":             s.lengthOf,
		"prepare_string":        s.prepareString,
		"load_string":           s.loadStringImport,
		"instance_of":           s.instanceOf,
		"copy_bytes_to_guest":   s.copyBytesToGuest,
		"copy_bytes_from_guest": s.copyBytesFromGuest,
		"debug_log":             s.debugLog,
	}
}

func (s *Session) processExit(_ context.Context, sp uint32) {
	code := int(s.loadU32(sp + 8))
	s.exit(code)
}

func (s *Session) writeFD(_ context.Context, sp uint32) {
	fd := s.loadU64(sp + 8)
	ptr := uint32(s.loadU64(sp + 16))
	n := uint32(s.loadU64(sp + 24))
	data := s.loadBytes(ptr, n)
	switch fd {
	case 1:
		s.stdout.Write(data)
	case 2:
		s.stderr.Write(data)
	default:
		panic(errors.Protocol(errors.PhaseHost, "write to unsupported fd"))
	}
}

func (s *Session) monotonicTime(_ context.Context, sp uint32) {
	s.storeU64(sp+8, uint64(s.monotonic()))
}

func (s *Session) wallTime(_ context.Context, sp uint32) {
	now := time.Now()
	s.storeU64(sp+8, uint64(now.Unix()))
	s.storeU32(sp+16, uint32(now.Nanosecond()))
}

func (s *Session) scheduleTimeoutImport(_ context.Context, sp uint32) {
	delay := time.Duration(s.loadI64(sp+8)) * time.Millisecond
	id := s.scheduleTimeout(delay)
	s.storeU32(sp+16, id)
}

func (s *Session) clearTimeoutImport(_ context.Context, sp uint32) {
	s.clearTimeout(s.loadU32(sp + 8))
}

func (s *Session) randomBytes(_ context.Context, sp uint32) {
	ptr := uint32(s.loadU64(sp + 8))
	n := uint32(s.loadU64(sp + 16))
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(errors.New(errors.PhaseHost, errors.KindProtocol).
			Detail("entropy source failed").
			Cause(err).
			Build())
	}
	s.storeBytes(ptr, buf)
}

func (s *Session) valueOfString(_ context.Context, sp uint32) {
	str := s.loadString(sp + 8)
	s.storeValue(sp+24, str)
}

func (s *Session) finalizeRef(_ context.Context, sp uint32) {
	s.table.Release(s.loadU32(sp + 8))
}

func (s *Session) getProperty(ctx context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	name := s.loadString(sp + 16)
	result, err := hostobj.Get(v, name)
	sp = s.refreshSP(ctx)
	if err != nil {
		s.storeValue(sp+32, thrown(err))
		return
	}
	s.storeValue(sp+32, hostobj.Normalize(result))
}

func (s *Session) setProperty(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	name := s.loadString(sp + 16)
	x := s.loadValue(sp + 32)
	if err := hostobj.Set(v, name, x); err != nil {
		panic(fatal(err))
	}
}

func (s *Session) deleteProperty(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	name := s.loadString(sp + 16)
	if err := hostobj.Delete(v, name); err != nil {
		panic(fatal(err))
	}
}

func (s *Session) getIndex(ctx context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	i := int(s.loadI64(sp + 16))
	result, err := hostobj.GetIndex(v, i)
	sp = s.refreshSP(ctx)
	if err != nil {
		panic(fatal(err))
	}
	s.storeValue(sp+24, hostobj.Normalize(result))
}

func (s *Session) setIndex(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	i := int(s.loadI64(sp + 16))
	x := s.loadValue(sp + 24)
	if err := hostobj.SetIndex(v, i, x); err != nil {
		panic(fatal(err))
	}
}

func (s *Session) callMethod(ctx context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	name := s.loadString(sp + 16)
	args := s.loadValueSlice(sp + 32)
	result, err := hostobj.Apply(v, name, args)
	sp = s.refreshSP(ctx)
	if err != nil {
		s.storeValue(sp+48, thrown(err))
		s.storeBool(sp+56, false)
		return
	}
	s.storeValue(sp+48, hostobj.Normalize(result))
	s.storeBool(sp+56, true)
}

func (s *Session) invokeFunction(ctx context.Context, sp uint32) {
	fn := s.loadValue(sp + 8)
	args := s.loadValueSlice(sp + 16)
	result, err := hostobj.Invoke(fn, args)
	sp = s.refreshSP(ctx)
	if err != nil {
		s.storeValue(sp+32, thrown(err))
		s.storeBool(sp+40, false)
		return
	}
	s.storeValue(sp+32, hostobj.Normalize(result))
	s.storeBool(sp+40, true)
}

func (s *Session) construct(ctx context.Context, sp uint32) {
	ctor := s.loadValue(sp + 8)
	args := s.loadValueSlice(sp + 16)
	result, err := hostobj.Construct(ctor, args)
	sp = s.refreshSP(ctx)
	if err != nil {
		s.storeValue(sp+32, thrown(err))
		s.storeBool(sp+40, false)
		return
	}
	s.storeValue(sp+32, hostobj.Normalize(result))
	s.storeBool(sp+40, true)
}

func (s *Session) lengthOf(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	n, err := hostobj.Length(v)
	if err != nil {
		panic(fatal(err))
	}
	s.storeU64(sp+16, uint64(int64(n)))
}

func (s *Session) prepareString(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	str := hostobj.Stringify(v)
	ref := s.table.Encode(str)
	s.stage[ref.Handle()] = str
	s.storeU64(sp+16, uint64(ref))
	s.storeU64(sp+24, uint64(len(str)))
}

func (s *Session) loadStringImport(_ context.Context, sp uint32) {
	id := s.loadRef(sp + 8).Handle()
	str, ok := s.stage[id]
	if !ok {
		v, err := s.table.Load(id)
		if err != nil {
			panic(err)
		}
		str, ok = v.(string)
		if !ok {
			panic(errors.Protocol(errors.PhaseDecode, "load_string on non-string handle"))
		}
	}
	delete(s.stage, id)
	ptr := uint32(s.loadU64(sp + 16))
	n := uint32(s.loadU64(sp + 24))
	if n > uint32(len(str)) {
		n = uint32(len(str))
	}
	s.storeBytes(ptr, []byte(str)[:n])
}

func (s *Session) instanceOf(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	ctor := s.loadValue(sp + 16)
	ok, err := hostobj.InstanceOf(v, ctor)
	if err != nil {
		panic(fatal(err))
	}
	s.storeBool(sp+24, ok)
}

func (s *Session) copyBytesToGuest(_ context.Context, sp uint32) {
	dst := uint32(s.loadU64(sp + 8))
	dlen := uint32(s.loadU64(sp + 16))
	src, ok := hostobj.AsBuffer(s.loadValue(sp + 24))
	if !ok {
		s.storeU64(sp+32, 0)
		s.storeBool(sp+40, false)
		return
	}
	n := uint32(len(src))
	if dlen < n {
		n = dlen
	}
	s.storeBytes(dst, src[:n])
	s.storeU64(sp+32, uint64(n))
	s.storeBool(sp+40, true)
}

func (s *Session) copyBytesFromGuest(_ context.Context, sp uint32) {
	dst, ok := hostobj.AsBuffer(s.loadValue(sp + 8))
	if !ok {
		s.storeU64(sp+32, 0)
		s.storeBool(sp+40, false)
		return
	}
	src := uint32(s.loadU64(sp + 16))
	slen := uint32(s.loadU64(sp + 24))
	n := uint32(len(dst))
	if slen < n {
		n = slen
	}
	copy(dst, s.loadBytes(src, n))
	s.storeU64(sp+32, uint64(n))
	s.storeBool(sp+40, true)
}

func (s *Session) debugLog(_ context.Context, sp uint32) {
	v := s.loadValue(sp + 8)
	Logger().Info("guest debug",
		zap.String("session", s.id),
		zap.String("value", hostobj.Stringify(v)))
}

// thrown unwraps the value a failed host call carries, so the guest sees the
// thrown object rather than a Go error wrapper when one is available.
func thrown(err error) any {
	if e, ok := err.(*errors.Error); ok && e.Value != nil {
		return e.Value
	}
	return err
}

// fatal coerces a host error into a protocol violation for imports that do
// not participate in the (result, ok) convention.
func fatal(err error) *errors.Error {
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	return errors.New(errors.PhaseHost, errors.KindProtocol).
		Detail("host call failed").
		Cause(err).
		Build()
}
