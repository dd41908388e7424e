package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/alitto/asynccall/internal/dispatcher"
)

const defaultTasksChanLength = 2048

// nativePool feeds tasks from an unbounded dispatcher buffer into a channel read by workers.
// Workers are started on demand up to maxWorkers and live until the pool stops.
type nativePool struct {
	ctx             context.Context
	maxWorkers      int
	tasksLen        int
	tasks           chan func()
	workerCount     atomic.Int64
	workerWaitGroup sync.WaitGroup
	dispatcher      *dispatcher.Dispatcher[func()]
	stopOnce        sync.Once
}

func newNativePool(ctx context.Context, maxWorkers int) *nativePool {
	tasksLen := min(maxWorkers, defaultTasksChanLength)

	pool := &nativePool{
		ctx:        ctx,
		maxWorkers: maxWorkers,
		tasksLen:   tasksLen,
		tasks:      make(chan func(), tasksLen),
	}
	pool.dispatcher = dispatcher.NewDispatcher(ctx, pool.dispatch, tasksLen)

	// Tasks stranded in the channel by a cancellation are dropped so their results disconnect
	context.AfterFunc(ctx, pool.discard)

	return pool
}

func (p *nativePool) submit(task func()) error {
	if err := p.dispatcher.Write(task); err != nil {
		return ErrStopped
	}
	return nil
}

func (p *nativePool) waiting() uint64 {
	return p.dispatcher.Len() + uint64(len(p.tasks))
}

func (p *nativePool) stop() {
	p.stopOnce.Do(func() {
		p.dispatcher.CloseAndWait()
		close(p.tasks)
		p.workerWaitGroup.Wait()
	})
}

func (p *nativePool) dispatch(incomingTasks []func()) {

	for _, task := range incomingTasks {

		// One worker per dispatched task until there are as many workers as channel slots
		if p.workerCount.Load() < int64(p.tasksLen) {
			p.startWorker()
		}

		// Attempt to submit task without blocking
		select {
		case p.tasks <- task:
			continue
		default:
		}

		// There are no idle workers, create more
		if p.workerCount.Load() < int64(p.maxWorkers) {
			p.startWorker()
		}

		// Block until task is submitted
		select {
		case p.tasks <- task:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *nativePool) startWorker() {
	p.workerWaitGroup.Add(1)
	p.workerCount.Add(1)
	go p.worker()
}

func (p *nativePool) worker() {
	defer func() {
		p.workerCount.Add(-1)
		p.workerWaitGroup.Done()
	}()

	for {
		// Prioritize context cancellation over task execution
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				// Channel closed, pool is stopping
				return
			}

			task()
		}
	}
}

func (p *nativePool) discard() {
	for {
		select {
		case _, ok := <-p.tasks:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
