// Package queue provides named worker pool handles that execute no-argument closures in the background.
//
// A Queue is safe for concurrent use and is shared by copying the pointer. Tasks run on one of
// several executors (see Executor); a panicking task is recovered, reported to the panic handler
// and counted as failed without affecting other tasks.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// Queue is a named handle to a worker pool.
type Queue struct {
	name         string
	executor     Executor
	maxWorkers   int
	ctx          context.Context
	logger       *slog.Logger
	panicHandler func(any)
	backend      backend
	stopped      atomic.Bool
	// Atomic counters
	runningTaskCount    atomic.Int64
	submittedTaskCount  atomic.Uint64
	successfulTaskCount atomic.Uint64
	failedTaskCount     atomic.Uint64
	rejectedTaskCount   atomic.Uint64
}

// New creates a queue labeled with name. The label is only used for logs and metrics.
func New(name string, opts ...Option) (*Queue, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxWorkers <= 0 {
		return nil, fmt.Errorf("%w: maxWorkers must be greater than 0, got %d", ErrInvalidOptions, o.maxWorkers)
	}
	if _, err := ParseExecutor(string(o.executor)); err != nil {
		return nil, err
	}

	b, err := newBackend(&o)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		name:         name,
		executor:     o.executor,
		maxWorkers:   o.maxWorkers,
		ctx:          o.ctx,
		logger:       o.logger.With(slog.String("queue", name)),
		panicHandler: o.panicHandler,
		backend:      b,
	}
	if q.panicHandler == nil {
		q.panicHandler = q.logPanic
	}

	return q, nil
}

// MustNew is like New but panics on invalid options.
func MustNew(name string, opts ...Option) *Queue {
	q, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

// Name returns the label of the queue
func (q *Queue) Name() string {
	return q.name
}

// Executor returns the worker pool implementation backing the queue
func (q *Queue) Executor() Executor {
	return q.executor
}

// MaxWorkers returns the maximum number of tasks executed concurrently
func (q *Queue) MaxWorkers() int {
	return q.maxWorkers
}

// Context returns the context associated with this queue
func (q *Queue) Context() context.Context {
	return q.ctx
}

// Enqueue submits task for background execution. The task runs at most once.
// It returns ErrStopped once the queue is stopped or its context is canceled.
func (q *Queue) Enqueue(task func()) error {
	if q.Stopped() {
		q.rejectedTaskCount.Add(1)
		return ErrStopped
	}

	if err := q.backend.submit(q.wrap(task)); err != nil {
		q.rejectedTaskCount.Add(1)
		return err
	}

	q.submittedTaskCount.Add(1)
	return nil
}

// Stopped returns true if the queue no longer accepts tasks
func (q *Queue) Stopped() bool {
	return q.stopped.Load() || q.ctx.Err() != nil
}

// Stop stops accepting tasks and waits for the ones already accepted to complete.
func (q *Queue) Stop() {
	if q.stopped.Swap(true) {
		return
	}

	q.backend.stop()

	q.logger.Debug("queue stopped",
		slog.Uint64("submitted", q.SubmittedTasks()),
		slog.Uint64("completed", q.CompletedTasks()))
}

// RunningTasks returns the number of tasks currently executing
func (q *Queue) RunningTasks() int64 {
	return q.runningTaskCount.Load()
}

// WaitingTasks returns the number of accepted tasks that have not started yet
func (q *Queue) WaitingTasks() uint64 {
	return q.backend.waiting()
}

// SubmittedTasks returns the total number of tasks accepted since the queue was created
func (q *Queue) SubmittedTasks() uint64 {
	return q.submittedTaskCount.Load()
}

// SuccessfulTasks returns the number of tasks that returned normally
func (q *Queue) SuccessfulTasks() uint64 {
	return q.successfulTaskCount.Load()
}

// FailedTasks returns the number of tasks that panicked
func (q *Queue) FailedTasks() uint64 {
	return q.failedTaskCount.Load()
}

// CompletedTasks returns the number of tasks that finished, successfully or not
func (q *Queue) CompletedTasks() uint64 {
	return q.successfulTaskCount.Load() + q.failedTaskCount.Load()
}

// RejectedTasks returns the number of tasks refused by Enqueue
func (q *Queue) RejectedTasks() uint64 {
	return q.rejectedTaskCount.Load()
}

func (q *Queue) wrap(task func()) func() {
	return func() {
		q.runningTaskCount.Add(1)

		defer func() {
			q.runningTaskCount.Add(-1)

			if p := recover(); p != nil {
				q.failedTaskCount.Add(1)
				q.panicHandler(p)
				return
			}
			q.successfulTaskCount.Add(1)
		}()

		task()
	}
}

func (q *Queue) logPanic(p any) {
	q.logger.Error("task panicked",
		slog.Any("panic", p),
		slog.String("stack", string(debug.Stack())))
}
