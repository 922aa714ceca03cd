package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	JobKeyPrefix     = "payments:job:"
	JobQueueKey      = "payments:job_queue"
	JobProcessingKey = "payments:job_processing"
	JobStatsKey      = "payments:job_stats"

	JobTTL = 24 * time.Hour
)

// RedisQueue runs side-effect jobs stored in Redis. Job ids move atomically
// from the pending list to the processing list; a sweeper returns ids whose
// worker died mid-job.
type RedisQueue struct {
	client   *redis.Client
	handlers Handlers
	opts     Options
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRedisQueue(client *redis.Client, handlers Handlers, opts Options, logger *slog.Logger) *RedisQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisQueue{
		client:   client,
		handlers: handlers,
		opts:     opts.withDefaults(),
		logger:   logger.With("component", "jobqueue", "backend", "redis"),
	}
}

// Start launches the workers and the stuck-job sweeper.
func (q *RedisQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	ctx, q.cancel = context.WithCancel(ctx)
	q.running = true

	q.logger.Info("starting workers", "workers", q.opts.Workers)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.wg.Add(1)
	go q.stuckSweeper(ctx, 10*time.Minute, time.Minute)
}

// Stop cancels the workers and waits for in-flight jobs.
func (q *RedisQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("all workers stopped")
}

// Enqueue stores the job and pushes its id onto the pending list.
func (q *RedisQueue) Enqueue(ctx context.Context, t Type, payload any) (*Job, error) {
	job, err := newJob(t, payload, q.opts.MaxRetries)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(StatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	q.logger.Info("job enqueued", "job_id", job.ID, "type", job.Type)
	return job, nil
}

func (q *RedisQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	logger := q.logger.With("worker", id)
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := q.dequeue(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Error("dequeue failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		q.process(ctx, job)
	}
}

func (q *RedisQueue) dequeue(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return job, nil
}

func (q *RedisQueue) process(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	runCtx, cancel := context.WithTimeout(ctx, q.opts.JobTimeout)
	err := q.handlers.run(runCtx, job)
	cancel()

	retry := settle(job, err)
	switch {
	case err == nil:
		q.logger.Info("job completed", "job_id", job.ID, "type", job.Type)
		q.incrStats(ctx, StatusCompleted)
		q.client.Del(ctx, JobKeyPrefix+job.ID)
	case retry:
		delay := q.opts.RetryDelay * time.Duration(job.RetryCount)
		q.logger.Warn("job failed, retrying", "job_id", job.ID, "type", job.Type, "attempt", job.RetryCount, "max", job.MaxRetries, "delay", delay, "err", err)
		q.updateJob(ctx, job)
		time.AfterFunc(delay, func() {
			q.client.LPush(context.Background(), JobQueueKey, job.ID)
		})
	default:
		q.logger.Error("job permanently failed", "job_id", job.ID, "type", job.Type, "attempts", job.RetryCount, "err", err)
		q.updateJob(ctx, job)
		q.incrStats(ctx, StatusFailed)
	}
	q.client.LRem(ctx, JobProcessingKey, 1, job.ID)
}

// stuckSweeper requeues jobs that stayed in processing longer than maxAge.
func (q *RedisQueue) stuckSweeper(ctx context.Context, maxAge, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := q.RecoverStuck(ctx, maxAge)
			if err != nil {
				q.logger.Error("sweeper failed", "err", err)
			} else if n > 0 {
				q.logger.Warn("recovered stuck jobs", "count", n)
			}
		}
	}
}

// RecoverStuck moves jobs processing for longer than maxAge back to pending.
func (q *RedisQueue) RecoverStuck(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	recovered := 0
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			q.client.LRem(ctx, JobProcessingKey, 1, id)
			continue
		}
		if job.Status != StatusProcessing {
			q.client.LRem(ctx, JobProcessingKey, 1, id)
			continue
		}
		started := job.UpdatedAt
		if job.ProcessedAt != nil {
			started = *job.ProcessedAt
		}
		if now.Sub(started) <= maxAge {
			continue
		}
		job.Status = StatusPending
		job.ErrorMsg = "recovered by sweeper"
		job.UpdatedAt = now
		q.updateJob(ctx, job)
		q.client.LRem(ctx, JobProcessingKey, 1, id)
		q.client.RPush(ctx, JobQueueKey, id)
		recovered++
	}
	return recovered, nil
}

func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// Stats returns the counters per job status.
func (q *RedisQueue) Stats(ctx context.Context) (map[Status]int64, error) {
	raw, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[Status]int64, len(raw))
	for k, v := range raw {
		var n int64
		if _, err := fmt.Sscan(v, &n); err == nil {
			stats[Status(k)] = n
		}
	}
	return stats, nil
}

func (q *RedisQueue) updateJob(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		q.logger.Error("marshal job failed", "job_id", job.ID, "err", err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err(); err != nil {
		q.logger.Error("update job failed", "job_id", job.ID, "err", err)
	}
}

func (q *RedisQueue) incrStats(ctx context.Context, status Status) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), 1).Err(); err != nil {
		q.logger.Error("update job stats failed", "err", err)
	}
}
