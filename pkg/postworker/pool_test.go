package postworker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DispatchNonBlocking(t *testing.T) {
	pool := NewPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	start := time.Now()
	pool.Dispatch(Job{
		ChannelID: 1,
		GroupKey:  "g1",
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 10*time.Millisecond, "Dispatch must not block the caller")
}

func TestPool_SameGroupSequentialProcessing(t *testing.T) {
	pool := NewPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var mu sync.Mutex
	var results []int

	for i := 1; i <= 5; i++ {
		val := i
		pool.Dispatch(Job{
			ChannelID: 77,
			GroupKey:  "album-1",
			Handler: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		})
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3, 4, 5}, results, "events of one group must process in arrival order")
}

func TestPool_PanicContained(t *testing.T) {
	pool := NewPool(1, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var processed int64
	pool.Dispatch(Job{ChannelID: 1, GroupKey: "a", Handler: func(ctx context.Context) error {
		panic("boom")
	}})
	pool.Dispatch(Job{ChannelID: 1, GroupKey: "a", Handler: func(ctx context.Context) error {
		atomic.AddInt64(&processed, 1)
		return nil
	}})

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(1), atomic.LoadInt64(&processed), "a panicking job must not kill the worker")
	assert.Equal(t, int64(1), pool.GetStats().TotalErrors)
}

func TestPool_StopDrainsQueuedJobs(t *testing.T) {
	pool := NewPool(2, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)

	var processed int64
	for i := 0; i < 20; i++ {
		pool.Dispatch(Job{ChannelID: int64(i), GroupKey: "g", Handler: func(ctx context.Context) error {
			atomic.AddInt64(&processed, 1)
			return nil
		}})
	}

	pool.Stop()
	assert.Equal(t, int64(20), atomic.LoadInt64(&processed), "Stop must let queued jobs finish")

	ok := pool.TryDispatch(Job{ChannelID: 1, GroupKey: "g", Handler: func(ctx context.Context) error { return nil }})
	assert.False(t, ok, "dispatch after Stop must be rejected")
}
