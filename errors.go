package asynccall

import "errors"

var (
	// ErrAsyncCall is the resolution of a future whose background call did not deliver a result:
	// the function panicked, the queue refused or discarded it, or the queue's context was canceled.
	ErrAsyncCall = errors.New("a worker thread executing an asynchronous function call aborted")

	// ErrPoisoned is the panic value raised when a default queue is accessed after its construction failed.
	ErrPoisoned = errors.New("default queue registry is poisoned")

	// ErrDefaultInUse is returned by ConfigureDefault once a default queue has been constructed.
	ErrDefaultInUse = errors.New("default queue registry is already in use")

	// ErrInvalidConfig is returned when a configuration cannot be parsed or validated.
	ErrInvalidConfig = errors.New("invalid asynccall configuration")
)
