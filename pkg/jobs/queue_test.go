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

func TestQueueProcessesJobs(t *testing.T) {
	var handled atomic.Int32
	done := make(chan struct{}, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		handled.Add(1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(2), handled.Load())
}

func TestQueueAppliesJobTimeout(t *testing.T) {
	result := make(chan error, 1)
	q := NewQueue("timeout", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		result <- ctx.Err()
		return nil
	}, QueueConfig{Workers: 1, JobTimeout: 20 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "slow"}))
	select {
	case err := <-result:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("job timeout not applied")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	attempts := make(chan int, 4)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt < 1 {
			return errors.New("boom")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	seen := []int{}
	for len(seen) < 2 {
		select {
		case a := <-attempts:
			seen = append(seen, a)
		case <-time.After(2 * time.Second):
			t.Fatal("retry not observed")
		}
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestQueueDropsPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 4)
	q := NewQueue("permanent", func(ctx context.Context, job Job) error {
		calls.Add(1)
		done <- struct{}{}
		return Permanent(errors.New("bad payload"))
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "broken"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
	require.Eventually(t, func() bool { return q.Stats().Dropped == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, q.Stats().Retried)
}

func TestMuxRoutesByType(t *testing.T) {
	mux := NewMux()
	var got string
	mux.Handle("report_export", func(ctx context.Context, job Job) error {
		got = job.ID
		return nil
	})

	require.NoError(t, mux.Dispatch(context.Background(), Job{ID: "r1", Type: "report_export"}))
	assert.Equal(t, "r1", got)

	err := mux.Dispatch(context.Background(), Job{ID: "x", Type: "unknown"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestPermanentNilAndUnwrap(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	base := errors.New("root")
	wrapped := Permanent(base)
	assert.True(t, errors.Is(wrapped, base))
	assert.False(t, IsPermanent(base))
}
