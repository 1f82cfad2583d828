package taskpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPool(t *testing.T, workers, queue int) *TaskPool {
	t.Helper()
	pool := NewTaskPool(workers, queue)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		pool.Stop()
		cancel()
	})
	return pool
}

func TestPool_DispatchDoesNotBlock(t *testing.T) {
	pool := startPool(t, 2, 10)

	start := time.Now()
	pool.Dispatch(Task{
		Partition: "agent-1",
		Name:      "slow",
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})

	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestPool_SamePartitionRunsInOrder(t *testing.T) {
	pool := startPool(t, 4, 100)

	var mu sync.Mutex
	var results []int
	var wg sync.WaitGroup

	for i := 1; i <= 5; i++ {
		val := i
		wg.Add(1)
		pool.Dispatch(Task{
			Partition: "agent-1",
			Handler: func(ctx context.Context) error {
				defer wg.Done()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		})
	}
	wg.Wait()

	require.Equal(t, []int{1, 2, 3, 4, 5}, results)
}

func TestPool_DifferentPartitionsRunInParallel(t *testing.T) {
	pool := startPool(t, 8, 100)

	var active, peak int32
	var wg sync.WaitGroup

	partitions := distinctShardPartitions(pool, 3)
	for _, partition := range partitions {
		wg.Add(1)
		pool.Dispatch(Task{
			Partition: partition,
			Handler: func(ctx context.Context) error {
				defer wg.Done()
				current := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if current <= p || atomic.CompareAndSwapInt32(&peak, p, current) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			},
		})
	}
	wg.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPool_FullQueueDropsTask(t *testing.T) {
	pool := startPool(t, 1, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	blocker := Task{Partition: "p", Handler: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}
	require.True(t, pool.TryDispatch(blocker))
	<-started

	noop := Task{Partition: "p", Handler: func(ctx context.Context) error { return nil }}
	require.True(t, pool.TryDispatch(noop)) // fills the single slot
	assert.False(t, pool.TryDispatch(noop))

	close(release)
	assert.Equal(t, int64(1), pool.GetStats().TotalDropped)
}

func TestPool_ErrorsAndPanicsAreCounted(t *testing.T) {
	pool := startPool(t, 1, 10)

	var wg sync.WaitGroup
	wg.Add(2)
	pool.Dispatch(Task{Partition: "p", Handler: func(ctx context.Context) error {
		defer wg.Done()
		return errors.New("smtp down")
	}})
	pool.Dispatch(Task{Partition: "p", Handler: func(ctx context.Context) error {
		defer wg.Done()
		panic("boom")
	}})
	wg.Wait()

	assert.Eventually(t, func() bool {
		stats := pool.GetStats()
		return stats.TotalErrors == 2 && stats.TotalProcessed == 2
	}, time.Second, 5*time.Millisecond)
}

func TestPool_StopCompletesQueuedTasks(t *testing.T) {
	pool := NewTaskPool(2, 10)
	pool.Start(context.Background())

	var completed int32
	for i := 0; i < 4; i++ {
		pool.Dispatch(Task{
			Partition: fmt.Sprintf("agent-%d", i),
			Handler: func(ctx context.Context) error {
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
				return nil
			},
		})
	}

	pool.Stop()
	assert.Equal(t, int32(4), atomic.LoadInt32(&completed))
	assert.False(t, pool.TryDispatch(Task{Partition: "late", Handler: func(ctx context.Context) error { return nil }}))
}

func TestPool_ConsistentSharding(t *testing.T) {
	pool := NewTaskPool(4, 10)

	first := pool.shardFor("agent-123")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, pool.shardFor("agent-123"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 4)
}

func TestPool_FairDistribution(t *testing.T) {
	pool := NewTaskPool(4, 10)

	counts := make(map[int]int)
	for i := 0; i < 400; i++ {
		counts[pool.shardFor(fmt.Sprintf("agent-%d", i))]++
	}

	for shard, count := range counts {
		assert.Greater(t, count, 60, "worker %d underloaded", shard)
		assert.Less(t, count, 140, "worker %d overloaded", shard)
	}
}

func distinctShardPartitions(pool *TaskPool, n int) []string {
	seen := make(map[int]bool)
	var out []string
	for i := 0; len(out) < n && i < 1000; i++ {
		key := fmt.Sprintf("agent-%d", i)
		shard := pool.shardFor(key)
		if !seen[shard] {
			seen[shard] = true
			out = append(out, key)
		}
	}
	return out
}
