package eventloop

import (
	"context"
	"sync"
	"time"
)

// Loop is a single-threaded task executor: one goroutine (the caller of Run)
// drains a FIFO of tasks posted from any goroutine. It is the serialization
// point that keeps guest execution strictly single-caller: timer fires and
// host callbacks become tasks instead of touching the guest directly.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates an idle loop.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

// Run processes tasks on the calling goroutine until Stop is called or the
// context is cancelled. Tasks still queued when the loop stops are dropped:
// after a session exits nothing may touch the guest again.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-l.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fn := l.next()
		if fn == nil {
			select {
			case <-l.stop:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
			}
			continue
		}
		fn()
	}
}

// Post enqueues a task for the loop goroutine. Safe from any goroutine,
// including the loop itself.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop makes Run return. Idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue = l.queue[1:]
	return fn
}

// Timer is a handle to a scheduled one-shot task.
type Timer struct {
	t *time.Timer
}

// Schedule arranges for fn to run as a loop task after d. The task is posted
// from the runtime timer goroutine; execution still happens on the loop.
func (l *Loop) Schedule(d time.Duration, fn func()) *Timer {
	return &Timer{t: time.AfterFunc(d, func() {
		l.Post(fn)
	})}
}

// Stop cancels the timer if it has not fired. It reports whether the
// cancellation prevented the fire; a fired timer's task may already be
// queued, which the caller must tolerate.
func (t *Timer) Stop() bool {
	return t.t.Stop()
}
