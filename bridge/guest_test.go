package bridge

import (
	"context"
	"encoding/binary"
	"time"

	jsbridge "github.com/wippyai/js-bridge"
	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/values"
)

// fakeMem is a flat in-process guest memory for driving the session without
// a compiled module.
type fakeMem struct {
	data []byte
}

func (m *fakeMem) check(off, n uint32) error {
	if uint64(off)+uint64(n) > uint64(len(m.data)) {
		return errors.OutOfBounds(errors.PhaseDecode, "fake memory", off, n)
	}
	return nil
}

func (m *fakeMem) Read(off, n uint32) ([]byte, error) {
	if err := m.check(off, n); err != nil {
		return nil, err
	}
	return m.data[off : off+n], nil
}

func (m *fakeMem) Write(off uint32, b []byte) error {
	if err := m.check(off, uint32(len(b))); err != nil {
		return err
	}
	copy(m.data[off:], b)
	return nil
}

func (m *fakeMem) ReadU64(off uint32) (uint64, error) {
	if err := m.check(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[off:]), nil
}

func (m *fakeMem) WriteU8(off uint32, v uint8) error {
	if err := m.check(off, 1); err != nil {
		return err
	}
	m.data[off] = v
	return nil
}

func (m *fakeMem) WriteU32(off uint32, v uint32) error {
	if err := m.check(off, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[off:], v)
	return nil
}

func (m *fakeMem) WriteU64(off uint32, v uint64) error {
	if err := m.check(off, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[off:], v)
	return nil
}

// fakeGuest scripts the guest side of a session: run and resume hooks stand
// in for the module's exported entry points.
type fakeGuest struct {
	mem     *fakeMem
	sp      uint32
	run     func(ctx context.Context, argc, argv uint32) error
	resume  func(ctx context.Context) error
	resumes int
}

func newFakeGuest() *fakeGuest {
	return &fakeGuest{
		mem: &fakeMem{data: make([]byte, 1<<16)},
		sp:  32768,
	}
}

func (g *fakeGuest) Mem() jsbridge.Memory { return g.mem }

func (g *fakeGuest) Run(ctx context.Context, argc, argv uint32) error {
	if g.run != nil {
		return g.run(ctx, argc, argv)
	}
	return nil
}

func (g *fakeGuest) Resume(ctx context.Context) error {
	g.resumes++
	if g.resume != nil {
		return g.resume(ctx)
	}
	return nil
}

func (g *fakeGuest) StackPointer(context.Context) (uint32, error) {
	return g.sp, nil
}

var (
	_ jsbridge.Memory = (*fakeMem)(nil)
	_ jsbridge.Guest  = (*fakeGuest)(nil)
)

// newTestSession returns a session wired to a fake guest and advanced to the
// running state, for exercising imports directly from the test goroutine.
func newTestSession(cfg Config) (*Session, *fakeGuest) {
	g := newFakeGuest()
	s := NewSession(cfg)
	s.Bind(g)
	s.table = values.NewTable(s.global, s)
	s.runCtx = context.Background()
	s.start = time.Now()
	s.originNanos = s.start.UnixNano()
	s.state.Store(stateRunning)
	return s, g
}

func (g *fakeGuest) putU64(off uint32, v uint64) {
	binary.LittleEndian.PutUint64(g.mem.data[off:], v)
}

func (g *fakeGuest) getU64(off uint32) uint64 {
	return binary.LittleEndian.Uint64(g.mem.data[off:])
}
