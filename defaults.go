package asynccall

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/alitto/asynccall/queue"
)

var (
	defaultMutex    sync.Mutex
	defaultRegistry atomic.Pointer[Registry]
)

// Default returns the process-wide registry, creating it from DefaultConfig on first use.
// Its queues are never stopped. Once Default has returned a registry, ConfigureDefault can no
// longer replace it.
func Default() *Registry {
	if r := defaultRegistry.Load(); r != nil && r.handedOut.Load() {
		return r
	}

	defaultMutex.Lock()
	defer defaultMutex.Unlock()

	r := defaultRegistry.Load()
	if r == nil {
		r = NewRegistry(DefaultConfig())
		defaultRegistry.Store(r)
	}
	r.handedOut.Store(true)
	return r
}

// ConfigureDefault replaces the process-wide registry. It must be called before Default or the
// default queues are first used and returns ErrDefaultInUse afterwards.
func ConfigureDefault(cfg Config, opts ...Option) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	defaultMutex.Lock()
	defer defaultMutex.Unlock()

	if r := defaultRegistry.Load(); r != nil && r.handedOut.Load() {
		return ErrDefaultInUse
	}

	defaultRegistry.Store(NewRegistry(cfg, opts...))
	return nil
}

// QueueHandle gives access to a lazily constructed queue. DefaultIOQueue and DefaultCPUQueue
// implement it.
type QueueHandle interface {
	Get() *queue.Queue
}

// WithQueue passes the queue behind h to fn and returns the result of fn.
//
//	future := asynccall.WithQueue(asynccall.DefaultCPUQueue{}, func(q *queue.Queue) *asynccall.Future[int] {
//		return asynccall.Call(q, compute)
//	})
func WithQueue[T any](h QueueHandle, fn func(q *queue.Queue) T) T {
	return fn(h.Get())
}

// DefaultIOQueue is the process-wide queue for blocking work, typically synchronous file system
// or network calls that have no asynchronous counterpart.
//
//	entries := asynccall.Call(asynccall.DefaultIOQueue{}, func() []os.DirEntry {
//		entries, _ := os.ReadDir(dir)
//		return entries
//	})
type DefaultIOQueue struct{}

// Get returns the queue, constructing it on first use anywhere in the process.
func (DefaultIOQueue) Get() *queue.Queue {
	return Default().IO()
}

// With passes the queue to fn. Use WithQueue when fn returns a value.
func (d DefaultIOQueue) With(fn func(q *queue.Queue)) {
	fn(d.Get())
}

// Enqueue submits task to the queue.
func (d DefaultIOQueue) Enqueue(task func()) error {
	return d.Get().Enqueue(task)
}

// Context returns the context of the queue.
func (d DefaultIOQueue) Context() context.Context {
	return d.Get().Context()
}

// DefaultCPUQueue is the process-wide queue for CPU intensive work, such as compressing large
// payloads, that would otherwise stall a cooperative scheduler.
type DefaultCPUQueue struct{}

// Get returns the queue, constructing it on first use anywhere in the process.
func (DefaultCPUQueue) Get() *queue.Queue {
	return Default().CPU()
}

// With passes the queue to fn. Use WithQueue when fn returns a value.
func (d DefaultCPUQueue) With(fn func(q *queue.Queue)) {
	fn(d.Get())
}

// Enqueue submits task to the queue.
func (d DefaultCPUQueue) Enqueue(task func()) error {
	return d.Get().Enqueue(task)
}

// Context returns the context of the queue.
func (d DefaultCPUQueue) Context() context.Context {
	return d.Get().Context()
}
