package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned when the in-process buffer cannot take another job.
var ErrQueueFull = errors.New("job queue is full")

// LocalQueue runs jobs in-process with the same retry policy as RedisQueue.
// Jobs are lost on restart; it serves setups without Redis.
type LocalQueue struct {
	handlers Handlers
	opts     Options
	logger   *slog.Logger
	jobs     chan *Job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	// retries holds the timers of scheduled retries; timers counts their callbacks.
	retries map[*time.Timer]struct{}
	timers  sync.WaitGroup
}

func NewLocalQueue(handlers Handlers, opts Options, logger *slog.Logger) *LocalQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalQueue{
		handlers: handlers,
		opts:     opts.withDefaults(),
		logger:   logger.With("component", "jobqueue", "backend", "local"),
		jobs:     make(chan *Job, 256),
		retries:  make(map[*time.Timer]struct{}),
	}
}

func (q *LocalQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

func (q *LocalQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	dropped := 0
	for timer := range q.retries {
		if timer.Stop() {
			q.timers.Done()
			dropped++
		}
		delete(q.retries, timer)
	}
	q.mu.Unlock()
	q.wg.Wait()
	q.timers.Wait()
	if dropped > 0 {
		q.logger.Warn("pending retries dropped on stop", "count", dropped)
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, t Type, payload any) (*Job, error) {
	job, err := newJob(t, payload, q.opts.MaxRetries)
	if err != nil {
		return nil, err
	}
	select {
	case q.jobs <- job:
		q.logger.Info("job enqueued", "job_id", job.ID, "type", job.Type)
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, ErrQueueFull
	}
}

func (q *LocalQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *LocalQueue) process(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	runCtx, cancel := context.WithTimeout(ctx, q.opts.JobTimeout)
	err := q.handlers.run(runCtx, job)
	cancel()

	switch retry := settle(job, err); {
	case err == nil:
		q.logger.Info("job completed", "job_id", job.ID, "type", job.Type)
	case retry:
		delay := q.opts.RetryDelay * time.Duration(job.RetryCount)
		q.logger.Warn("job failed, retrying", "job_id", job.ID, "type", job.Type, "attempt", job.RetryCount, "max", job.MaxRetries, "delay", delay, "err", err)
		q.scheduleRetry(ctx, job, delay)
	default:
		q.logger.Error("job permanently failed", "job_id", job.ID, "type", job.Type, "attempts", job.RetryCount, "err", err)
	}
}

func (q *LocalQueue) scheduleRetry(ctx context.Context, job *Job, delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		q.logger.Warn("queue stopped, retry dropped", "job_id", job.ID, "type", job.Type)
		return
	}
	q.timers.Add(1)
	var timer *time.Timer
	// the callback takes q.mu, so timer is assigned before it reads it
	timer = time.AfterFunc(delay, func() {
		defer q.timers.Done()
		q.mu.Lock()
		delete(q.retries, timer)
		q.mu.Unlock()
		select {
		case q.jobs <- job:
		case <-ctx.Done():
		}
	})
	q.retries[timer] = struct{}{}
}

// pendingRetries reports how many retries are waiting on their delay.
func (q *LocalQueue) pendingRetries() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.retries)
}
