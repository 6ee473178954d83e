package session

import (
	"errors"
	"fmt"
)

// Error taxonomy for session operations. Every operation returns one of these
// (possibly wrapped) so transport layers can map them to status codes without
// string matching.
var (
	// ErrUnauthorized reports a missing caller identity.
	ErrUnauthorized = errors.New("caller identity required")

	// ErrForbidden reports a caller that is not the session owner.
	ErrForbidden = errors.New("caller does not own this session")

	// ErrNotFound reports a session that does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrAdmissionLimit reports that the owner's active session cap is reached.
	ErrAdmissionLimit = errors.New("active session limit reached")

	// ErrInvalidTransition reports a lifecycle rule violation, e.g. touching
	// a closed session or closing it twice.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrInvalidArgument reports malformed operation input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// PersistenceError wraps a durable-store failure. It is surfaced as-is, never
// retried here; retry policy belongs to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
