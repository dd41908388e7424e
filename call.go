package asynccall

import (
	"context"

	"github.com/alitto/asynccall/internal/oneshot"
)

// Enqueuer is the capability of handing a no-argument closure to a worker pool for background
// execution. Implementations must run an accepted task at most once and may run it on any goroutine.
// A non-nil error means the task was not accepted and will never run.
type Enqueuer interface {
	Enqueue(task func()) error
}

// EnqueuerFunc adapts an ordinary function to the Enqueuer interface.
type EnqueuerFunc func(task func()) error

// Enqueue calls f(task).
func (f EnqueuerFunc) Enqueue(task func()) error {
	return f(task)
}

// contextual is implemented by queues bound to a context, such as *queue.Queue.
type contextual interface {
	Context() context.Context
}

// Call runs f on q and returns a future that resolves to its result.
//
// Call never fails synchronously. If f panics, if q refuses or discards the task, or if q's
// context is canceled before f returns, the future resolves to ErrAsyncCall. A panic in f is not
// recovered here; it propagates to the worker pool after the future has been resolved.
func Call[T any](q Enqueuer, f func() T) *Future[T] {
	parent := context.Background()
	if c, ok := q.(contextual); ok {
		parent = c.Context()
	}

	tx, rx := oneshot.NewContext[T](parent)

	task := func() {
		// Runs before a panic in f reaches the pool
		defer tx.Close()

		tx.Send(f())
	}

	if err := q.Enqueue(task); err != nil {
		tx.Close()
	}

	return &Future[T]{rx: rx}
}
