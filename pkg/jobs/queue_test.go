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

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan error, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond, OnDone: func(_ Job, err error) { done <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "notify"}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	done := make(chan error, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, OnDone: func(_ Job, err error) { done <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1"}))

	select {
	case err := <-done:
		assert.EqualError(t, err, "permanent")
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "j1"})
	assert.True(t, errors.Is(err, ErrQueueStopped))

	q.Start(context.Background())
	q.Stop()
	err = q.Enqueue(Job{ID: "j2"})
	assert.True(t, errors.Is(err, ErrQueueStopped))
}

func TestQueueAppliesJobTimeout(t *testing.T) {
	done := make(chan error, 1)
	q := NewQueue("slow", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{JobTimeout: 10 * time.Millisecond, OnDone: func(_ Job, err error) { done <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1"}))

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("job did not time out")
	}
}
