package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

// Pool runs jobs on a fixed number of workers. Results are returned in
// submission order regardless of completion order.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    []Result
	closed     bool
	mu         sync.Mutex   // guards results and closed
	sendMu     sync.RWMutex // held for reading while a job is being queued
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a new worker pool bound to ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2), // Buffered to prevent blocking
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker drains the queue. Jobs queued before cancellation still run, with
// the cancelled context, so every accepted job produces a result.
func (p *Pool) worker() {
	defer p.wg.Done()

	for ij := range p.jobQueue {
		result := ij.job.Execute(p.ctx)
		p.mu.Lock()
		p.results[ij.index] = result
		p.mu.Unlock()
	}
}

// Submit queues a job and reports whether it will run. A job submitted
// after cancellation gets a result carrying the context error; a job
// submitted after Wait or Shutdown gets no result at all.
func (p *Pool) Submit(job Job) bool {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	index := len(p.results)
	p.results = append(p.results, nil)
	if err := p.ctx.Err(); err != nil {
		p.results[index] = canceledResult{err: err}
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	select {
	case p.jobQueue <- indexedJob{index: index, job: job}:
		return true
	case <-p.ctx.Done():
		p.mu.Lock()
		p.results[index] = canceledResult{err: p.ctx.Err()}
		p.mu.Unlock()
		return false
	}
}

// Wait closes the queue, waits for all jobs and returns their results in
// submission order.
func (p *Pool) Wait() []Result {
	p.close()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

// Shutdown cancels running jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.close()
	p.wg.Wait()
}

func (p *Pool) close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.sendMu.Lock()
		close(p.jobQueue)
		p.sendMu.Unlock()
	})
}

// Run executes jobs on a fresh pool and returns their ordered results
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	pool := NewPool(ctx, workers)
	pool.Start()
	defer pool.cancelFunc()

	for _, job := range jobs {
		pool.Submit(job)
	}
	return pool.Wait()
}

type canceledResult struct {
	err error
}

func (r canceledResult) GetError() error { return r.err }
