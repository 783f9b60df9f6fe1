package ratelimit

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *manualClock {
	return &manualClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func TestMemoryStore_WindowLifecycle(t *testing.T) {
	clock := newClock()
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	count, ttl, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	clock.Advance(20 * time.Second)
	count, ttl, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 40*time.Second, ttl, "later hits do not extend the window")

	clock.Advance(40 * time.Second)
	count, ttl, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStoreWithClock(newClock().Now)
	ctx := context.Background()

	_, _, _ = store.Incr(ctx, "a", time.Minute)
	_, _, _ = store.Incr(ctx, "a", time.Minute)
	count, _, err := store.Incr(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func liveCounters(s *MemoryStore) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	clock := newClock()
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, _, err := store.Incr(ctx, key, time.Second)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, liveCounters(store))

	clock.Advance(2 * time.Minute)
	_, _, err := store.Incr(ctx, "d", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, liveCounters(store))
}

func TestMemoryStore_ConcurrentIncrementsAreExact(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers, perWorker = 16, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, _, _ = store.Incr(ctx, "shared", time.Hour)
			}
		}()
	}
	wg.Wait()

	count, _, err := store.Incr(ctx, "shared", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker+1), count)
}

// TestRedisStore runs against a live server when REDIS_TEST_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client)
	key := "test:" + uuid.NewString()
	defer client.Del(ctx, redisKeyPrefix+key)

	count, ttl, err := store.Incr(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 1)

	count, ttl, err = store.Incr(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.LessOrEqual(t, ttl, time.Minute)
}
