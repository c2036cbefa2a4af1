package worker

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// JobFunc adapts a plain function to Job
type JobFunc func(ctx context.Context) error

// Process implements Job
func (f JobFunc) Process(ctx context.Context) error {
	return f(ctx)
}

// Pool runs queued jobs on a fixed number of goroutines
type Pool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once

	// ctx is handed to every job and cancelled on Stop
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		quit:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			p.run(id, job)
		case <-p.quit:
			return
		}
	}
}

// run processes one job; a panicking job is logged and the worker keeps going
func (p *Pool) run(id int, job Job) {
	log := logger.FromContext(p.ctx)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error(LogMsgWorkerJobPanicked, "worker", id, "panic", r)
		}
	}()

	if err := job.Process(p.ctx); err != nil {
		log.Error(LogMsgWorkerJobFailed, "worker", id, "error", err, "duration", time.Since(start))
		return
	}
	log.Debug(LogMsgWorkerJobDone, "worker", id, "duration", time.Since(start))
}

// Enqueue adds a job to the queue, blocking while it is full.
// It returns false once the pool is stopping.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-p.quit:
		return false
	}
}

// TryEnqueue adds a job without blocking and reports whether it was queued
func (p *Pool) TryEnqueue(job Job) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		logger.FromContext(p.ctx).Warn(LogMsgWorkerQueueFull, "queue_size", cap(p.jobQueue))
		return false
	}
}

// Stop cancels running jobs and waits for the workers to exit.
// Jobs still queued are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.cancel()
	})
	p.wg.Wait()
}
