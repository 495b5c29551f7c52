package sim

import (
	"errors"
	"fmt"
)

// Kind classifies a protocol-layer failure. The orchestrator dispatches on
// it: connection and protocol errors restart the session, contract
// violations abort the process, termination exits cleanly.
type Kind int

const (
	// KindConnection means the link could not be established or maintained.
	KindConnection Kind = iota
	// KindProtocol means the server replied with something unexpected or
	// malformed for a negotiated call.
	KindProtocol
	// KindContract means a component was invoked out of its required state
	// sequence. A programming defect, never retried.
	KindContract
	// KindTermination means an external shutdown request was observed.
	KindTermination
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindContract:
		return "contract"
	case KindTermination:
		return "termination"
	default:
		return "unknown"
	}
}

// Error is the typed failure surfaced by the protocol layer.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a sim.Error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a sim.Error from a format string.
func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from an error chain. Errors that are not
// sim.Errors are treated as connection failures, the conservative retryable
// default for anything surfaced by the transport.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindConnection
}

// Retryable reports whether the orchestrator should discard the session and
// reconnect after observing err.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindProtocol:
		return true
	default:
		return false
	}
}
