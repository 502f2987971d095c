package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // wire slot to host value
	PhaseEncode  Phase = "encode"  // host value to wire slot
	PhaseStart   Phase = "start"   // argv/env layout and entry invocation
	PhaseRuntime Phase = "runtime" // import surface operations
	PhaseHost    Phase = "host"    // host object access
)

// Kind categorizes the error
type Kind string

const (
	KindProtocol       Kind = "protocol_violation"
	KindUnknownHandle  Kind = "unknown_handle"
	KindMalformedValue Kind = "malformed_value"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindExited         Kind = "exited"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindInstantiation  Kind = "instantiation"
	KindLoad           Kind = "load"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownHandle creates an unknown handle error. Loading a handle the table
// never issued means guest and host have desynchronized.
func UnknownHandle(phase Phase, handle uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownHandle,
		Detail: fmt.Sprintf("handle %d not present in value table", handle),
		Value:  handle,
	}
}

// MalformedValue creates a malformed tagged value error
func MalformedValue(phase Phase, bits uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedValue,
		Detail: fmt.Sprintf("slot %#016x is not a canonical encoding", bits),
		Value:  bits,
	}
}

// OutOfBounds creates an out of bounds guest memory access error
func OutOfBounds(phase Phase, op string, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("%s at offset=%d length=%d exceeds guest memory", op, offset, length),
	}
}

// Exited creates an error for operations attempted after guest exit
func Exited(op string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindExited,
		Detail: fmt.Sprintf("%s after session exit", op),
	}
}

// Protocol creates a generic protocol violation error
func Protocol(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindProtocol,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindLoad,
		Detail: detail,
		Cause:  cause,
	}
}
