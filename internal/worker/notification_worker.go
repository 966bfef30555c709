package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Job is one unit of deferred work.
type Job func(ctx context.Context)

// Pool runs queued jobs on a fixed set of goroutines. Notification
// delivery goes through here so event handlers never block the intake
// path on network calls.
type Pool struct {
	jobs    chan Job
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewPool sizes the pool. Buffer bounds how many undelivered jobs may
// queue up before Submit starts rejecting.
func NewPool(workers, buffer int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		jobs:    make(chan Job, buffer),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. They drain the queue until Stop is called
// or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for {
					select {
					case job, ok := <-p.jobs:
						if !ok {
							return
						}
						job(ctx)
					case <-ctx.Done():
						return
					}
				}
			}()
		}
		p.logger.Info("notification workers started", zap.Int("workers", p.workers))
	})
}

// Submit queues a job without blocking. Returns false when the queue is
// full or the pool has stopped.
func (p *Pool) Submit(job Job) bool {
	if job == nil {
		return false
	}
	// The read lock keeps Stop from closing the channel mid-send.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		close(p.jobs)
		p.wg.Wait()
		p.logger.Info("notification workers stopped")
	})
}
