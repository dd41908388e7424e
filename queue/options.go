package queue

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

const (
	// defaultStopTimeout bounds how long Stop waits for an ants executor to finish its running tasks
	defaultStopTimeout = 30 * time.Second
)

// Option represents an option that can be passed when instantiating a queue to customize it
type Option func(*options)

type options struct {
	ctx          context.Context
	maxWorkers   int
	executor     Executor
	nonBlocking  bool
	logger       *slog.Logger
	panicHandler func(any)
	stopTimeout  time.Duration
}

func defaultOptions() options {
	return options{
		ctx:         context.Background(),
		maxWorkers:  runtime.GOMAXPROCS(0),
		executor:    ExecutorNative,
		logger:      slog.Default(),
		stopTimeout: defaultStopTimeout,
	}
}

// WithMaxWorkers sets the maximum number of worker goroutines executing tasks concurrently.
func WithMaxWorkers(maxWorkers int) Option {
	return func(o *options) {
		o.maxWorkers = maxWorkers
	}
}

// WithExecutor selects the worker pool implementation backing the queue.
func WithExecutor(executor Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}

// WithContext sets the context of the queue. Once it is canceled the queue stops accepting tasks,
// tasks that have not started are discarded and pending results resolve as aborted.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithNonBlocking makes Enqueue fail instead of waiting when all workers are busy.
// Only the ants executor blocks on a full pool, the other executors buffer without bound.
func WithNonBlocking(nonBlocking bool) Option {
	return func(o *options) {
		o.nonBlocking = nonBlocking
	}
}

// WithLogger sets the logger used for panics and lifecycle events. Defaults to slog.Default().
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPanicHandler replaces the default handler, which logs the panic value and stack trace.
func WithPanicHandler(panicHandler func(any)) Option {
	return func(o *options) {
		o.panicHandler = panicHandler
	}
}

// WithStopTimeout bounds how long Stop waits for running tasks when the executor supports it.
func WithStopTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.stopTimeout = timeout
	}
}
