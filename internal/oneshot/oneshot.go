// Package oneshot implements a single-value handoff between one producer and one consumer.
//
// Completion is signaled by canceling a context with a cause: the first cause wins, so at most one
// value is ever delivered and every later send or close is a no-op.
package oneshot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
)

// Status is the observable state of a Receiver.
type Status int

const (
	// Pending means the sender has neither sent nor been dropped.
	Pending Status = iota
	// Ready means a value has been delivered.
	Ready
	// Disconnected means the sender was dropped without sending, or the parent context was canceled.
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	errSenderDropped = errors.New("oneshot: sender dropped without sending")
	errReceiverGone  = errors.New("oneshot: receiver closed before delivery")
)

// delivery carries the sent value as the cancellation cause of the link context.
type delivery[T any] struct {
	value T
}

func (d *delivery[T]) Error() string {
	return fmt.Sprintf("oneshot value: %v", d.value)
}

type link[T any] struct {
	ctx          context.Context
	resolve      context.CancelCauseFunc
	receiverGone atomic.Bool
}

// Sender is the producing half. It must not be shared between goroutines.
type Sender[T any] struct {
	link    *link[T]
	used    atomic.Bool
	cleanup runtime.Cleanup
}

// Receiver is the consuming half.
type Receiver[T any] struct {
	link *link[T]
}

// New creates a connected Sender/Receiver pair.
func New[T any]() (*Sender[T], *Receiver[T]) {
	return NewContext[T](context.Background())
}

// NewContext creates a pair whose receiver observes Disconnected once parent is canceled,
// unless a value was delivered first.
func NewContext[T any](parent context.Context) (*Sender[T], *Receiver[T]) {
	ctx, resolve := context.WithCancelCause(parent)
	l := &link[T]{
		ctx:     ctx,
		resolve: resolve,
	}

	tx := &Sender[T]{link: l}
	// A sender that becomes unreachable without sending counts as dropped.
	tx.cleanup = runtime.AddCleanup(tx, func(l *link[T]) {
		l.resolve(errSenderDropped)
	}, l)

	return tx, &Receiver[T]{link: l}
}

// Send delivers value to the receiver. It never fails: sending twice, sending after Close or
// sending to a closed receiver is a no-op.
func (s *Sender[T]) Send(value T) {
	if !s.used.CompareAndSwap(false, true) {
		return
	}
	s.cleanup.Stop()

	if s.link.receiverGone.Load() {
		// Nobody is waiting, do not retain the value
		s.link.resolve(errReceiverGone)
		return
	}

	s.link.resolve(&delivery[T]{value: value})
}

// Close drops the sender. If nothing was sent, the receiver observes Disconnected.
func (s *Sender[T]) Close() {
	if !s.used.CompareAndSwap(false, true) {
		return
	}
	s.cleanup.Stop()

	s.link.resolve(errSenderDropped)
}

// Poll reports the current state without blocking. Once a terminal state is reached,
// every later call returns the same result.
func (r *Receiver[T]) Poll() (value T, status Status) {
	select {
	case <-r.link.ctx.Done():
	default:
		return value, Pending
	}

	if d, ok := context.Cause(r.link.ctx).(*delivery[T]); ok {
		return d.value, Ready
	}
	return value, Disconnected
}

// Done returns a channel that is closed once the receiver reaches a terminal state.
func (r *Receiver[T]) Done() <-chan struct{} {
	return r.link.ctx.Done()
}

// Close marks the receiver as gone. A later Send becomes a no-op.
func (r *Receiver[T]) Close() {
	r.link.receiverGone.Store(true)
}
