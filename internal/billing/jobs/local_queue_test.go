package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalQueueRetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan struct{})
	handlers := Handlers{
		TypeLegacyCharge: func(ctx context.Context, job *Job) error {
			if attempts.Add(1) < 3 {
				return errors.New("database unavailable")
			}
			close(done)
			return nil
		},
	}

	q := NewLocalQueue(handlers, Options{Workers: 1, RetryDelay: 10 * time.Millisecond}, nil)
	q.Start(t.Context())
	defer q.Stop()

	_, err := q.Enqueue(t.Context(), TypeLegacyCharge, LegacyChargePayload{PaymentID: "p-1"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
	}
	assert.Equal(t, int32(3), attempts.Load())
}

func TestLocalQueuePermanentFailureIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	handlers := Handlers{
		TypeQuickBooksSalesReceipt: func(ctx context.Context, job *Job) error {
			attempts.Add(1)
			return ErrPermanent
		},
	}

	q := NewLocalQueue(handlers, Options{Workers: 1, RetryDelay: time.Millisecond}, nil)
	q.Start(t.Context())
	defer q.Stop()

	_, err := q.Enqueue(t.Context(), TypeQuickBooksSalesReceipt, QuickBooksReceiptPayload{PaymentID: "p-1"})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestLocalQueueStopCancelsPendingRetries(t *testing.T) {
	var attempts atomic.Int32
	handlers := Handlers{
		TypeLegacyCharge: func(ctx context.Context, job *Job) error {
			attempts.Add(1)
			return errors.New("database unavailable")
		},
	}

	q := NewLocalQueue(handlers, Options{Workers: 1, RetryDelay: time.Hour}, nil)
	q.Start(t.Context())

	_, err := q.Enqueue(t.Context(), TypeLegacyCharge, LegacyChargePayload{PaymentID: "p-1"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return q.pendingRetries() == 1 }, 2*time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop waited on a retry delay")
	}
	assert.Equal(t, 0, q.pendingRetries())
	assert.Equal(t, int32(1), attempts.Load())
}
