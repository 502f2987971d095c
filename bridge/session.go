package bridge

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	jsbridge "github.com/wippyai/js-bridge"
	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/eventloop"
	"github.com/wippyai/js-bridge/hostobj"
	"github.com/wippyai/js-bridge/values"
)

// Session states. The machine only moves forward: Created -> Running ->
// Exited, and Exited is terminal.
const (
	stateCreated int32 = iota
	stateRunning
	stateExited
)

// Config carries the immutable inputs of a session. Args and Env are written
// into guest memory before the entry call and never change afterwards.
type Config struct {
	Args []string
	Env  map[string]string

	// Stdout and Stderr receive the guest's synchronous write_fd output.
	// Defaults are os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Global is the host global object presented to the guest as reserved
	// handle 5. Nil means hostobj.NewGlobal().
	Global *hostobj.Object
}

// Session owns one guest instance: its value table, scheduled timers,
// pending-event slot and exit state. All guest-touching state is confined to
// the session's event-loop goroutine; the exported API (Start, Wait, Run,
// ExitCode) is safe for the embedding goroutine.
type Session struct {
	id     string
	cfg    Config
	global *hostobj.Object
	stdout io.Writer
	stderr io.Writer

	guest jsbridge.Guest
	loop  *eventloop.Loop

	// Loop-confined state.
	table       *values.Table
	timers      map[uint32]*eventloop.Timer
	nextTimerID uint32
	pending     *pendingEvent
	stage       map[uint32]string // prepare_string staging, keyed by handle

	start       time.Time
	originNanos int64
	runCtx      context.Context

	state    atomic.Int32
	exitCode atomic.Int32
	crashErr error
	done     chan struct{}
	doneOnce sync.Once
}

// NewSession creates a session in the Created state.
func NewSession(cfg Config) *Session {
	global := cfg.Global
	if global == nil {
		global = hostobj.NewGlobal()
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Session{
		id:     ulid.Make().String(),
		cfg:    cfg,
		global: global,
		stdout: stdout,
		stderr: stderr,
		loop:   eventloop.New(),
		timers: make(map[uint32]*eventloop.Timer),
		stage:  make(map[uint32]string),
		done:   make(chan struct{}),
	}
}

// ID returns the session's identifier, used in log fields.
func (s *Session) ID() string { return s.id }

// Bind attaches the guest instance the session will drive. It must be called
// before Start; the engine package does this during instantiation.
func (s *Session) Bind(g jsbridge.Guest) {
	s.guest = g
}

// Start writes the argv/env block into guest memory and begins execution on
// the session's event loop. It returns immediately; use Wait for completion.
func (s *Session) Start(ctx context.Context) error {
	if s.guest == nil {
		return errors.InvalidInput(errors.PhaseStart, "session has no bound guest")
	}
	if !s.state.CompareAndSwap(stateCreated, stateRunning) {
		return errors.Protocol(errors.PhaseStart, "session already started")
	}

	s.table = values.NewTable(s.global, s)
	s.start = time.Now()
	s.originNanos = s.start.UnixNano()
	s.runCtx = ctx

	Logger().Debug("session starting",
		zap.String("session", s.id),
		zap.Strings("args", s.cfg.Args))

	s.loop.Post(func() { s.enter(ctx) })
	go func() {
		err := s.loop.Run(ctx)
		s.finish(err)
	}()
	return nil
}

// Wait blocks until the guest exits or the context is cancelled, returning
// the exit code. A protocol violation terminates the session abruptly and
// surfaces here as an error: callers must treat that as a crash, not an exit.
func (s *Session) Wait(ctx context.Context) (int, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if s.crashErr != nil {
		return int(s.exitCode.Load()), s.crashErr
	}
	return int(s.exitCode.Load()), nil
}

// Run starts the session and waits for completion.
func (s *Session) Run(ctx context.Context) (int, error) {
	if err := s.Start(ctx); err != nil {
		return 0, err
	}
	return s.Wait(ctx)
}

// ExitCode returns the guest's exit code. Valid once Wait has returned.
func (s *Session) ExitCode() int {
	return int(s.exitCode.Load())
}

// Exited reports whether the session reached its terminal state.
func (s *Session) Exited() bool {
	return s.state.Load() == stateExited
}

// enter runs the guest entry export. Runs as the first loop task.
func (s *Session) enter(ctx context.Context) {
	argc, argv, err := s.writeStartBlock()
	if err != nil {
		s.crash(err)
		return
	}
	if err := s.guest.Run(ctx, argc, argv); err != nil {
		if s.state.Load() != stateExited {
			s.crash(errors.New(errors.PhaseRuntime, errors.KindProtocol).
				Detail("guest entry trapped").
				Cause(err).
				Build())
		}
		return
	}
	// Entry returned without exiting: the guest's scheduler parked and is
	// waiting for timers or callbacks. The loop keeps running until the
	// exit import fires or the context ends.
}

// resume hands control back to the guest. Loop-goroutine only.
func (s *Session) resume() error {
	if s.state.Load() == stateExited {
		return errors.Exited("resume")
	}
	return s.guest.Resume(s.runCtx)
}

// exit is the process_exit transition: tear down session-owned tables,
// cancel outstanding timers and resolve the completion signal exactly once.
func (s *Session) exit(code int) {
	if !s.state.CompareAndSwap(stateRunning, stateExited) {
		return
	}
	s.exitCode.Store(int32(code))

	for id, tm := range s.timers {
		tm.Stop()
		delete(s.timers, id)
	}
	s.pending = nil
	s.stage = nil
	if s.table != nil {
		s.table.Reset()
		s.table = nil
	}

	Logger().Debug("session exited",
		zap.String("session", s.id),
		zap.Int("code", code))

	s.loop.Stop()
	s.doneOnce.Do(func() { close(s.done) })
}

// crash terminates the session on a protocol violation or engine failure.
func (s *Session) crash(err error) {
	s.state.Store(stateExited)
	if s.crashErr == nil {
		s.crashErr = err
	}
	s.pending = nil
	s.table = nil

	Logger().Error("session crashed",
		zap.String("session", s.id),
		zap.Error(err))

	s.loop.Stop()
	s.doneOnce.Do(func() { close(s.done) })
}

// finish observes the loop ending. If the guest never exited, the loop ended
// early (context cancellation) and the session is crashed.
func (s *Session) finish(loopErr error) {
	if s.state.Load() == stateExited {
		return
	}
	if loopErr == nil {
		loopErr = errors.Protocol(errors.PhaseRuntime, "event loop stopped before guest exit")
	}
	s.crash(loopErr)
}

// fireTimer delivers a scheduled timeout. Stale fires after exit are
// dropped. The host may fire slightly early relative to the guest's own
// notion of the deadline; if the guest did not acknowledge the timeout by
// clearing it, retry the resume until it does.
func (s *Session) fireTimer(id uint32) {
	if s.state.Load() == stateExited {
		return
	}
	if _, ok := s.timers[id]; !ok {
		return // cancelled between fire and task execution
	}
	if err := s.resume(); err != nil {
		s.crash(err)
		return
	}
	for s.state.Load() != stateExited {
		if _, live := s.timers[id]; !live {
			break
		}
		Logger().Warn("timeout event not acknowledged, retrying resume",
			zap.String("session", s.id),
			zap.Uint32("timer", id))
		if err := s.resume(); err != nil {
			s.crash(err)
			return
		}
	}
}

// scheduleTimeout registers a one-shot timer and returns its bridge id.
func (s *Session) scheduleTimeout(delay time.Duration) uint32 {
	id := s.nextTimerID
	s.nextTimerID++
	s.timers[id] = s.loop.Schedule(delay, func() { s.fireTimer(id) })
	return id
}

// clearTimeout cancels a pending timer. Unknown or already-fired ids are a
// no-op; the guest acknowledges fired timers through this same path.
func (s *Session) clearTimeout(id uint32) {
	if tm, ok := s.timers[id]; ok {
		tm.Stop()
		delete(s.timers, id)
	}
}

// monotonic returns nanoseconds on the host high-resolution clock, offset to
// an epoch-relative origin captured at session start.
func (s *Session) monotonic() int64 {
	return s.originNanos + time.Since(s.start).Nanoseconds()
}
