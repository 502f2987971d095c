package bridge

import (
	"github.com/wippyai/js-bridge/errors"
	"github.com/wippyai/js-bridge/hostobj"
	"github.com/wippyai/js-bridge/values"
)

// pendingEvent is the single-slot mailbox carrying one host-initiated
// callback into the guest: which registered closure fired, with what
// receiver and arguments, and the result slot the guest fills in before
// resuming.
//
// The guest reads it off the session object as _pendingEvent, clears the
// slot, and writes result back through the property surface.
type pendingEvent struct {
	id     uint32
	this   any
	args   *hostobj.Array
	result any
}

func (e *pendingEvent) HostGet(key string) (any, bool) {
	switch key {
	case "id":
		return float64(e.id), true
	case "this":
		return e.this, true
	case "args":
		return e.args, true
	case "result":
		return e.result, true
	}
	return nil, false
}

func (e *pendingEvent) HostSet(key string, value any) bool {
	if key != "result" {
		return false
	}
	e.result = value
	return true
}

// makeFuncWrapper builds the host-invocable closure for a guest-registered
// callback id. Invoking it posts the pending event, drives a resume, and
// hands the guest-written result back to the host caller synchronously.
//
// Trampolines run on the loop goroutine by construction: the only callers
// are host objects executing inside an import, or tasks already posted to
// the loop.
func (s *Session) makeFuncWrapper(id uint32) *hostobj.Func {
	return hostobj.FuncOf("callback", func(this any, args []any) (any, error) {
		return s.dispatchEvent(id, this, args)
	})
}

func (s *Session) dispatchEvent(id uint32, this any, args []any) (any, error) {
	if s.state.Load() == stateExited {
		return nil, errors.Exited("callback dispatch")
	}
	if s.pending != nil {
		// Trampolines are not reentrant mid-resume: a second event while
		// one is unconsumed means guest and host have lost sync.
		return nil, errors.Protocol(errors.PhaseRuntime, "pending event already outstanding")
	}

	ev := &pendingEvent{id: id, this: this, args: &hostobj.Array{Elems: args}, result: values.Undefined}
	s.pending = ev
	if err := s.resume(); err != nil {
		return nil, err
	}
	return ev.result, nil
}

// sessionObject is the guest-visible surface of the session itself,
// reserved handle 6. The guest consumes exactly two members: the
// _pendingEvent slot and the _makeFuncWrapper factory.
func (s *Session) HostGet(key string) (any, bool) {
	switch key {
	case "_pendingEvent":
		if s.pending == nil {
			return nil, true
		}
		return s.pending, true
	case "_makeFuncWrapper":
		return hostobj.FuncOf("_makeFuncWrapper", func(this any, args []any) (any, error) {
			if len(args) != 1 {
				return nil, errors.InvalidInput(errors.PhaseHost, "_makeFuncWrapper takes one id argument")
			}
			f, ok := args[0].(float64)
			if !ok {
				return nil, errors.InvalidInput(errors.PhaseHost, "_makeFuncWrapper id must be a number")
			}
			return s.makeFuncWrapper(uint32(f)), nil
		}), true
	}
	return nil, false
}

func (s *Session) HostSet(key string, value any) bool {
	if key != "_pendingEvent" {
		return false
	}
	if value == nil {
		s.pending = nil
		return true
	}
	ev, ok := value.(*pendingEvent)
	if !ok {
		return false
	}
	s.pending = ev
	return true
}
