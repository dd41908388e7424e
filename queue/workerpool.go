package queue

import (
	"github.com/gammazero/workerpool"
)

type gammazeroPool struct {
	pool *workerpool.WorkerPool
}

func newGammazeroPool(maxWorkers int) *gammazeroPool {
	return &gammazeroPool{
		pool: workerpool.New(maxWorkers),
	}
}

func (p *gammazeroPool) submit(task func()) (err error) {
	if p.pool.Stopped() {
		return ErrStopped
	}

	// A submit racing with StopWait sends on a closed channel
	defer func() {
		if recover() != nil {
			err = ErrStopped
		}
	}()
	p.pool.Submit(task)

	return nil
}

func (p *gammazeroPool) waiting() uint64 {
	return uint64(p.pool.WaitingQueueSize())
}

func (p *gammazeroPool) stop() {
	p.pool.StopWait()
}
