package worker

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePreservesOrder(t *testing.T) {
	inputs := []int{5, 3, 8, 1, 9, 2}

	pool := NewPool[int, string](4, func(ctx context.Context, n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})

	results := pool.Execute(context.Background(), inputs)
	require.Len(t, results, len(inputs))
	for i, n := range inputs {
		assert.Equal(t, n, results[i].Input)
		assert.Equal(t, strconv.Itoa(n*10), results[i].Result)
		assert.NoError(t, results[i].Err)
	}
}

func TestExecuteCapturesErrors(t *testing.T) {
	boom := errors.New("boom")
	pool := NewPool[int, int](2, func(ctx context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, boom
		}
		return n, nil
	})

	results := pool.Execute(context.Background(), []int{1, 2, 3})
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
}

func TestSingleWorkerIsSequential(t *testing.T) {
	var running, maxRunning int32

	pool := NewPool[int, int](1, func(ctx context.Context, n int) (int, error) {
		cur := atomic.AddInt32(&running, 1)
		if cur > atomic.LoadInt32(&maxRunning) {
			atomic.StoreInt32(&maxRunning, cur)
		}
		defer atomic.AddInt32(&running, -1)
		return n, nil
	})

	pool.Execute(context.Background(), []int{1, 2, 3, 4, 5})
	assert.Equal(t, int32(1), maxRunning)
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool[int, int](2, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})

	results := pool.Execute(ctx, []int{1, 2, 3})
	// Workers exit without processing; slots keep zero values.
	assert.Len(t, results, 3)
}

func TestNewPoolClampsWorkers(t *testing.T) {
	pool := NewPool[int, int](0, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	assert.Equal(t, 1, pool.workers)
}
