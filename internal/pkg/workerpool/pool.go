package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Job func(ctx context.Context)

type WorkerPool struct {
	queue  chan Job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

func NewWorkerPool(ctx context.Context, workerCount int, queueSize int, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &WorkerPool{
		queue:  make(chan Job, queueSize),
		logger: logger,
	}

	for range workerCount {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker received shutdown signal")
			p.abandon()
			return
		case job, ok := <-p.queue:
			if !ok {
				// queue closed
				return
			}
			if ctx.Err() != nil {
				p.wg.Done()
				p.abandon()
				return
			}
			p.run(ctx, job)
		}
	}
}

// abandon closes the pool and releases jobs still queued after the pool
// context is canceled so Shutdown does not wait on them.
func (p *WorkerPool) abandon() {
	p.close()

	dropped := 0
	for range p.queue {
		p.wg.Done()
		dropped++
	}
	if dropped > 0 {
		p.logger.Warn("worker pool canceled: queued jobs dropped", slog.Int("jobs", dropped))
	}
}

// close stops Submit from accepting jobs. Safe to call more than once.
func (p *WorkerPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker job panicked", slog.Any("panic", r))
		}
	}()
	job(ctx) // jobs watch the cancellation context
}

// Submit queues job without blocking. It reports false when the job was
// dropped because the queue is full or the pool is shut down.
func (p *WorkerPool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("worker pool closed: job dropped")
		return false
	}

	p.wg.Add(1)
	select {
	case p.queue <- job:
		return true
	default:
		p.wg.Done()
		p.logger.Warn("worker pool queue full: job dropped")
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx expires.
func (p *WorkerPool) Shutdown(ctx context.Context) {
	p.close()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
	case <-done:
		p.logger.Info("worker pool shutdown complete")
	}
}

// WithRetry runs job up to retries times, waiting delay between attempts.
func WithRetry(retries int, delay time.Duration, logger *slog.Logger, job func(ctx context.Context) error) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) {
		for i := range retries {
			if ctx.Err() != nil {
				logger.Warn("job canceled before execution")
				return
			}

			err := job(ctx)
			if err == nil {
				return // success
			}
			logger.Warn("job failed", slog.Int("attempt", i+1), slog.Int("retries", retries), slog.String("error", err.Error()))

			if i == retries-1 {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		logger.Error("job failed after max retries")
	}
}
