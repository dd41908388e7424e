package queue

import (
	"fmt"
	"strings"
)

// Executor names a worker pool implementation.
type Executor string

const (
	// ExecutorNative is the built-in pool: an unbounded buffer drained by workers started on demand.
	ExecutorNative Executor = "native"
	// ExecutorAnts runs tasks on a github.com/panjf2000/ants/v2 pool.
	ExecutorAnts Executor = "ants"
	// ExecutorWorkerpool runs tasks on a github.com/gammazero/workerpool pool.
	ExecutorWorkerpool Executor = "workerpool"
)

// ParseExecutor parses an executor name. The empty string selects the native executor.
func ParseExecutor(name string) (Executor, error) {
	switch Executor(strings.ToLower(strings.TrimSpace(name))) {
	case "", ExecutorNative:
		return ExecutorNative, nil
	case ExecutorAnts:
		return ExecutorAnts, nil
	case ExecutorWorkerpool:
		return ExecutorWorkerpool, nil
	default:
		return "", fmt.Errorf("%w: unknown executor %q", ErrInvalidOptions, name)
	}
}

func (e Executor) String() string {
	return string(e)
}

// backend is the capability a queue needs from a worker pool implementation.
type backend interface {
	// submit hands a task over for background execution
	submit(task func()) error
	// waiting returns the number of tasks accepted but not yet started
	waiting() uint64
	// stop waits for accepted tasks and releases the workers
	stop()
}

func newBackend(o *options) (backend, error) {
	switch o.executor {
	case ExecutorNative:
		return newNativePool(o.ctx, o.maxWorkers), nil
	case ExecutorAnts:
		return newAntsPool(o.maxWorkers, o.nonBlocking, o.stopTimeout)
	case ExecutorWorkerpool:
		return newGammazeroPool(o.maxWorkers), nil
	default:
		return nil, fmt.Errorf("%w: unknown executor %q", ErrInvalidOptions, o.executor)
	}
}
