package queue

import (
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
)

type antsPool struct {
	pool        *ants.Pool
	stopTimeout time.Duration
}

func newAntsPool(maxWorkers int, nonBlocking bool, stopTimeout time.Duration) (*antsPool, error) {
	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(nonBlocking),
		// Panics are recovered by the queue before they reach ants
		ants.WithPanicHandler(func(any) {}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return &antsPool{
		pool:        pool,
		stopTimeout: stopTimeout,
	}, nil
}

func (p *antsPool) submit(task func()) error {
	if err := p.pool.Submit(task); err != nil {
		if p.pool.IsClosed() {
			return ErrStopped
		}
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return nil
}

func (p *antsPool) waiting() uint64 {
	return uint64(p.pool.Waiting())
}

func (p *antsPool) stop() {
	// ReleaseTimeout waits for running workers, an expired timeout only leaves them running
	_ = p.pool.ReleaseTimeout(p.stopTimeout)
}
