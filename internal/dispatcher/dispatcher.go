package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrDispatcherClosed is returned by Write once the dispatcher has been closed
var ErrDispatcherClosed = errors.New("dispatcher has been closed")

// Dispatcher receives values from many goroutines and hands them, in batches and in write order,
// to a single dispatch goroutine.
type Dispatcher[T any] struct {
	ctx               context.Context
	bufferHasElements chan struct{}
	mutex             sync.Mutex
	buffer            []T
	dispatchFunc      func([]T)
	waitGroup         sync.WaitGroup
	batchSize         int
	writeCount        atomic.Uint64
	readCount         atomic.Uint64
	discardCount      atomic.Uint64
	closed            bool
}

// NewDispatcher creates a dispatcher that processes buffered values serially using dispatchFunc.
// When ctx is canceled the dispatch goroutine exits and values still buffered are discarded.
func NewDispatcher[T any](ctx context.Context, dispatchFunc func([]T), batchSize int) *Dispatcher[T] {
	if batchSize <= 0 {
		batchSize = 1
	}

	dispatcher := &Dispatcher[T]{
		ctx:               ctx,
		bufferHasElements: make(chan struct{}, 1),
		dispatchFunc:      dispatchFunc,
		batchSize:         batchSize,
	}

	dispatcher.waitGroup.Add(1)
	go dispatcher.run(ctx)

	return dispatcher
}

// Write appends values to the buffer without blocking.
func (d *Dispatcher[T]) Write(values ...T) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed || d.ctx.Err() != nil {
		return ErrDispatcherClosed
	}

	d.buffer = append(d.buffer, values...)
	d.writeCount.Add(uint64(len(values)))

	// Notify there are elements in the buffer
	select {
	case d.bufferHasElements <- struct{}{}:
	default:
	}

	return nil
}

// WriteCount returns the number of elements written to the dispatcher
func (d *Dispatcher[T]) WriteCount() uint64 {
	return d.writeCount.Load()
}

// ReadCount returns the number of elements handed to dispatchFunc
func (d *Dispatcher[T]) ReadCount() uint64 {
	return d.readCount.Load()
}

// DiscardCount returns the number of elements dropped because the context was canceled
func (d *Dispatcher[T]) DiscardCount() uint64 {
	return d.discardCount.Load()
}

// Len returns the number of elements waiting in the buffer
func (d *Dispatcher[T]) Len() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return uint64(len(d.buffer))
}

// Close stops accepting values. Values already buffered are still dispatched.
func (d *Dispatcher[T]) Close() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.bufferHasElements)
}

// CloseAndWait closes the dispatcher and waits for all pending elements to be processed
func (d *Dispatcher[T]) CloseAndWait() {
	d.Close()
	d.waitGroup.Wait()
}

// read moves up to batchSize buffered elements into batch
func (d *Dispatcher[T]) read(batch []T) []T {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	n := min(len(d.buffer), d.batchSize)
	batch = append(batch[:0], d.buffer[:n]...)

	// Drop references so dispatched values can be collected
	clear(d.buffer[:n])
	d.buffer = d.buffer[n:]
	if len(d.buffer) == 0 {
		d.buffer = nil
	}

	return batch
}

func (d *Dispatcher[T]) discard() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.discardCount.Add(uint64(len(d.buffer)))
	clear(d.buffer)
	d.buffer = nil
}

func (d *Dispatcher[T]) run(ctx context.Context) {
	defer d.waitGroup.Done()

	batch := make([]T, 0, d.batchSize)

	for {
		// Prioritize context cancellation over dispatching
		select {
		case <-ctx.Done():
			d.discard()
			return
		default:
		}

		select {
		case <-ctx.Done():
			d.discard()
			return
		case _, ok := <-d.bufferHasElements:

			// Drain everything that is pending
			for ctx.Err() == nil {
				batch = d.read(batch)
				if len(batch) == 0 {
					break
				}

				d.dispatchFunc(batch)
				d.readCount.Add(uint64(len(batch)))

				clear(batch)
			}

			if ctx.Err() != nil {
				d.discard()
				return
			}

			if !ok {
				// Channel was closed and the buffer is drained
				return
			}
		}
	}
}
