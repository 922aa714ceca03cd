package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a side effect.
type Type string

const (
	TypeLegacyCharge           Type = "legacy_charge"
	TypeQuickBooksSalesReceipt Type = "quickbooks_sales_receipt"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRetrying   Status = "retrying"
)

const DefaultMaxRetries = 3

// Job is one queued side effect.
type Job struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Status      Status          `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ErrorMsg    string          `json:"error_msg,omitempty"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
}

func newJob(t Type, payload any, maxRetries int) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	now := time.Now()
	return &Job{
		ID:         uuid.NewString(),
		Type:       t,
		Status:     StatusPending,
		Payload:    raw,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: maxRetries,
	}, nil
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

func (j *Job) IsRetryable() bool {
	return j.Status == StatusFailed && j.RetryCount < j.MaxRetries
}

func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = StatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = StatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed records the error and counts the attempt.
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

func (j *Job) MarkAsRetrying() {
	j.Status = StatusRetrying
	j.UpdatedAt = time.Now()
}

// ErrPermanent wraps errors that retrying cannot fix.
var ErrPermanent = errors.New("permanent job failure")

// Handler executes one job type.
type Handler func(ctx context.Context, job *Job) error

// Enqueuer accepts side effects for later execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, t Type, payload any) (*Job, error)
}

// Handlers maps job types to their executors.
type Handlers map[Type]Handler

func (h Handlers) run(ctx context.Context, job *Job) error {
	handler, ok := h[job.Type]
	if !ok {
		return fmt.Errorf("%w: unknown job type %s", ErrPermanent, job.Type)
	}
	return handler(ctx, job)
}

// settle applies the outcome of one attempt to job and reports whether it
// should be retried.
func settle(job *Job, err error) (retry bool) {
	if err == nil {
		job.MarkAsCompleted()
		return false
	}
	job.MarkAsFailed(err.Error())
	if errors.Is(err, ErrPermanent) {
		job.RetryCount = job.MaxRetries
		return false
	}
	if job.IsRetryable() {
		job.MarkAsRetrying()
		return true
	}
	return false
}

// Options tunes both queue implementations.
type Options struct {
	Workers    int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number before a retry.
	RetryDelay time.Duration
	// JobTimeout bounds one attempt.
	JobTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 3
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Minute
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 30 * time.Second
	}
	return o
}
