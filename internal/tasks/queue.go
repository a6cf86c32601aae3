// Package tasks runs fire-and-forget side effects off the game loop.
// Results are only logged; nothing waits on them.
package tasks

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// Job is a named unit of background work.
type Job struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Queue executes jobs on a single worker goroutine in submission order.
type Queue struct {
	jobs   chan Job
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool

	statsMu   sync.Mutex
	completed uint64
	failed    uint64
	dropped   uint64
}

// Stats is a point-in-time count of processed jobs.
type Stats struct {
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
	Pending   int    `json:"pending"`
}

const defaultJobTimeout = 10 * time.Second

// New starts a queue holding at most size pending jobs.
func New(size int, logger *log.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[TASKS] ", log.LstdFlags|log.Lshortfile)
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:   make(chan Job, size),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	q.wg.Add(1)
	go q.work()
	return q
}

// Submit enqueues a job. It never blocks: when the queue is full or
// closed the job is dropped and false is returned.
func (q *Queue) Submit(job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.countDropped(job, "closed")
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		q.countDropped(job, "full")
		return false
	}
}

// Close stops accepting jobs, runs what is already queued and waits for
// the worker. If ctx expires first the running job is cancelled.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	return Stats{
		Completed: q.completed,
		Failed:    q.failed,
		Dropped:   q.dropped,
		Pending:   len(q.jobs),
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(q.ctx, timeout)
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, job)

	q.statsMu.Lock()
	if err != nil {
		q.failed++
	} else {
		q.completed++
	}
	q.statsMu.Unlock()

	if err != nil {
		q.logger.Printf("task_failed name=%s duration=%v error=%q", job.Name, time.Since(start), err.Error())
		return
	}
	q.logger.Printf("task_completed name=%s duration=%v", job.Name, time.Since(start))
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Job: job.Name, Value: r}
		}
	}()
	if job.Run == nil {
		return nil
	}
	return job.Run(ctx)
}

func (q *Queue) countDropped(job Job, reason string) {
	q.statsMu.Lock()
	q.dropped++
	q.statsMu.Unlock()
	q.logger.Printf("task_dropped name=%s reason=%s", job.Name, reason)
}
