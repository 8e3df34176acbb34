package job

import (
	"context"
	"sync"

	"github.com/talentsift/talentsift/internal/logging"
)

// Task is one unit of deferred scoring work. The context passed to the
// task belongs to the worker, not to the HTTP request that enqueued it.
type Task func(ctx context.Context)

// Dispatcher hands tasks off for asynchronous execution. Submissions must
// not block on the work itself; a full queue is reported as ErrQueueFull.
type Dispatcher interface {
	Dispatch(task Task) error
}

// Pool runs tasks on a fixed set of workers fed by a bounded queue.
type Pool struct {
	tasks  chan Task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger

	closeOnce sync.Once
}

func NewPool(workers, queueSize int, logger *logging.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:  make(chan Task, queueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("scoring task panicked", "worker", id, "panic", r)
				}
			}()
			task(p.ctx)
		}()
	}
}

// Dispatch enqueues a task without blocking. ErrQueueFull is returned when
// the queue has no room, so callers can fail the submission instead of
// stalling the request.
func (p *Pool) Dispatch(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for in-flight tasks, or until
// ctx expires, in which case running tasks are cancelled via their task
// context.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.tasks) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

// SyncDispatcher runs each task inline. It swaps in for the pool in tests
// so that asynchronous completion can be asserted deterministically.
type SyncDispatcher struct{}

func (SyncDispatcher) Dispatch(task Task) error {
	task(context.Background())
	return nil
}
