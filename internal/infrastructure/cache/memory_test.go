package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedScore struct {
	Overall int    `json:"overall"`
	Method  string `json:"method"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, nil)

	require.NoError(t, c.Set(ctx, "score:org-1:abc", cachedScore{Overall: 85, Method: "calculation"}, 0))

	var got cachedScore
	require.NoError(t, c.Get(ctx, "score:org-1:abc", &got))
	assert.Equal(t, 85, got.Overall)

	err := c.Get(ctx, "score:org-1:missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	c := NewMemoryCache(time.Minute, nil).(*memoryCache)
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set(ctx, "k", cachedScore{Overall: 1}, 10*time.Second))

	var got cachedScore
	require.NoError(t, c.Get(ctx, "k", &got))

	clock = clock.Add(11 * time.Second)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, nil)

	require.NoError(t, c.Set(ctx, "score:org-1:a", cachedScore{}, 0))
	require.NoError(t, c.Set(ctx, "score:org-1:b", cachedScore{}, 0))
	require.NoError(t, c.Set(ctx, "score:org-2:a", cachedScore{}, 0))

	deleted, err := c.DeleteByPrefix(ctx, "score:org-1:")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	var got cachedScore
	assert.ErrorIs(t, c.Get(ctx, "score:org-1:a", &got), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "score:org-2:a", &got))
}

// Concurrent misses on one key must collapse into a single compute.
func TestMemoryCache_GetOrCompute_SingleFlight(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, nil)

	var computes int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&computes, 1)
		<-release
		return cachedScore{Overall: 91, Method: "calculation"}, nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([]cachedScore, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.GetOrCompute(ctx, "score:org-1:hot", &results[i], 0, compute)
		}(i)
	}

	// Give every goroutine time to reach the single-flight gate.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&computes))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 91, results[i].Overall)
	}

	// Subsequent call hits the cache without computing.
	var again cachedScore
	require.NoError(t, c.GetOrCompute(ctx, "score:org-1:hot", &again, 0, func(context.Context) (interface{}, error) {
		t.Fatal("compute ran on a warm cache")
		return nil, nil
	}))
	assert.Equal(t, 91, again.Overall)
}

func TestMemoryCache_GetOrCompute_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, nil)

	var calls int
	boom := fmt.Errorf("store down")
	compute := func(context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return cachedScore{Overall: 50}, nil
	}

	var got cachedScore
	err := c.GetOrCompute(ctx, "k", &got, 0, compute)
	assert.ErrorIs(t, err, boom)

	// The failure was not cached; the next call computes again and succeeds.
	require.NoError(t, c.GetOrCompute(ctx, "k", &got, 0, compute))
	assert.Equal(t, 50, got.Overall)
	assert.Equal(t, 2, calls)
}
