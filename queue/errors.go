package queue

import "errors"

var (
	// ErrStopped is returned when attempting to enqueue a task on a queue that has been stopped
	// or whose context has been canceled.
	ErrStopped = errors.New("queue has been stopped and is no longer accepting tasks")

	// ErrRejected is returned when the underlying executor refuses a task (for instance an
	// ants pool that is overloaded in non-blocking mode).
	ErrRejected = errors.New("queue rejected the task")

	// ErrInvalidOptions is returned by New when the options are inconsistent.
	ErrInvalidOptions = errors.New("invalid queue options")
)
