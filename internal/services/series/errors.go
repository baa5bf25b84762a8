package series

import "errors"

// Precondition errors: calling an operation on the wrong kind of task is a
// programming error in the caller, not a transient runtime condition. They
// are distinct values so callers can pattern-match them apart from
// persistence I/O failures, which propagate wrapped.
var (
	// ErrNotVirtual indicates an attempt to materialize an instance that is
	// already a persisted row.
	ErrNotVirtual = errors.New("instance is not virtual")
	// ErrNotRecurring indicates an attempt to advance a task that carries no
	// recurrence rule.
	ErrNotRecurring = errors.New("task has no recurrence rule")
	// ErrNotFound indicates the referenced task row does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrBadTransition indicates a status change the transition table forbids.
	ErrBadTransition = errors.New("status transition not allowed")
)

// IsPrecondition reports whether err is a contract violation rather than an
// I/O failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNotVirtual) ||
		errors.Is(err, ErrNotRecurring) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBadTransition)
}
