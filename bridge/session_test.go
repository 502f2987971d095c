package bridge

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/values"
)

func TestRunHelloThenExit(t *testing.T) {
	var out bytes.Buffer
	g := newFakeGuest()
	s := NewSession(Config{Args: []string{"js"}, Stdout: &out})
	s.Bind(g)

	imports := s.Imports()
	g.run = func(ctx context.Context, argc, argv uint32) error {
		sp := g.sp
		copy(g.mem.data[8192:], "hello\n")
		g.putU64(sp+8, 1)
		g.putU64(sp+16, 8192)
		g.putU64(sp+24, 6)
		imports["write_fd"](ctx, sp)

		g.putU64(sp+8, 0)
		imports["process_exit"](ctx, sp)
		return nil
	}

	code, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if out.String() != "hello\n" {
		t.Fatalf("stdout = %q, want hello", out.String())
	}
	if !s.Exited() {
		t.Fatal("session not marked exited")
	}
	if s.table != nil {
		t.Fatal("value table not released at exit")
	}
}

func TestTimerFiresOnce(t *testing.T) {
	g := newFakeGuest()
	s := NewSession(Config{})
	s.Bind(g)

	imports := s.Imports()
	var timerID uint32
	g.run = func(ctx context.Context, _, _ uint32) error {
		sp := g.sp
		g.putU64(sp+8, 1) // 1ms
		imports["schedule_timeout"](ctx, sp)
		timerID = uint32(g.getU64(sp + 16))
		return nil // park, wait for the timer
	}
	g.resume = func(ctx context.Context) error {
		sp := g.sp
		g.putU64(sp+8, uint64(timerID))
		imports["clear_timeout"](ctx, sp) // acknowledge
		g.putU64(sp+8, 0)
		imports["process_exit"](ctx, sp)
		return nil
	}

	code, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if g.resumes != 1 {
		t.Fatalf("resumes = %d, want exactly 1", g.resumes)
	}
}

func TestTimerCancelledNeverFires(t *testing.T) {
	g := newFakeGuest()
	s := NewSession(Config{})
	s.Bind(g)

	imports := s.Imports()
	g.run = func(ctx context.Context, _, _ uint32) error {
		sp := g.sp
		g.putU64(sp+8, 1)
		imports["schedule_timeout"](ctx, sp)
		id := g.getU64(sp + 16)
		g.putU64(sp+8, id)
		imports["clear_timeout"](ctx, sp)

		g.putU64(sp+8, 0)
		imports["process_exit"](ctx, sp)
		return nil
	}

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if g.resumes != 0 {
		t.Fatalf("resumes = %d, want 0 after cancellation", g.resumes)
	}
}

func TestTimerAfterExitNotDelivered(t *testing.T) {
	g := newFakeGuest()
	s := NewSession(Config{})
	s.Bind(g)

	imports := s.Imports()
	g.run = func(ctx context.Context, _, _ uint32) error {
		sp := g.sp
		g.putU64(sp+8, 1)
		imports["schedule_timeout"](ctx, sp)
		g.putU64(sp+8, 0)
		imports["process_exit"](ctx, sp)
		return nil
	}

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if g.resumes != 0 {
		t.Fatalf("resumes = %d, torn-down session was resumed", g.resumes)
	}
}

func TestResumeAfterExitFails(t *testing.T) {
	s, _ := newTestSession(Config{})
	s.exit(0)
	err := s.resume()
	if err == nil {
		t.Fatal("resume after exit succeeded")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindExited {
		t.Fatalf("resume after exit: %v, want exited error", err)
	}
}

func TestDispatchEventRoundTrip(t *testing.T) {
	s, g := newTestSession(Config{})

	g.resume = func(context.Context) error {
		ev, ok := s.HostGet("_pendingEvent")
		if !ok || ev == nil {
			t.Fatal("no pending event during resume")
		}
		pe := ev.(*pendingEvent)
		if pe.id != 42 {
			t.Fatalf("event id = %d, want 42", pe.id)
		}
		if len(pe.args.Elems) != 1 || pe.args.Elems[0] != "arg" {
			t.Fatalf("event args = %v", pe.args.Elems)
		}
		pe.HostSet("result", float64(99))
		s.HostSet("_pendingEvent", nil)
		return nil
	}

	wrapper := s.makeFuncWrapper(42)
	result, err := wrapper.Call(values.Undefined, []any{"arg"})
	if err != nil {
		t.Fatalf("callback dispatch: %v", err)
	}
	if result != float64(99) {
		t.Fatalf("result = %v, want 99", result)
	}
	if s.pending != nil {
		t.Fatal("pending event not cleared")
	}
}

func TestDispatchEventWhilePending(t *testing.T) {
	s, _ := newTestSession(Config{})
	s.pending = &pendingEvent{id: 1}
	_, err := s.dispatchEvent(2, values.Undefined, nil)
	if err == nil {
		t.Fatal("second pending event accepted")
	}
}

func TestStartTwiceRejected(t *testing.T) {
	g := newFakeGuest()
	s := NewSession(Config{})
	s.Bind(g)
	g.run = func(ctx context.Context, _, _ uint32) error {
		sp := g.sp
		g.putU64(sp+8, 0)
		s.Imports()["process_exit"](ctx, sp)
		return nil
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("second start succeeded")
	}
}
