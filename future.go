package asynccall

import (
	"context"

	"github.com/alitto/asynccall/internal/oneshot"
)

// Future is the pending result of an asynchronous call created by Call.
//
// Poll never blocks, which makes a Future suitable for cooperative schedulers that repeatedly poll
// their tasks. Done and Wait are provided for goroutine-based consumers. Dropping a Future, or
// calling Close, does not stop the background computation.
type Future[T any] struct {
	rx *oneshot.Receiver[T]
}

// Poll returns immediately. When ready is false the call is still in progress. When ready is true,
// err is nil and value holds the result, or err is ErrAsyncCall. After a ready result every later
// call returns the same values.
func (f *Future[T]) Poll() (value T, ready bool, err error) {
	value, status := f.rx.Poll()

	switch status {
	case oneshot.Ready:
		return value, true, nil
	case oneshot.Disconnected:
		return value, true, ErrAsyncCall
	default:
		return value, false, nil
	}
}

// Done returns a channel that is closed once Poll would report ready.
func (f *Future[T]) Done() <-chan struct{} {
	return f.rx.Done()
}

// Wait blocks until the call resolves or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.rx.Done():
		value, _, err := f.Poll()
		return value, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Close discards the future. The background call still runs to completion and its result is dropped.
func (f *Future[T]) Close() {
	f.rx.Close()
}
