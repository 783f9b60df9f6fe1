package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore is a keyed counter with per-window expiry. Incr atomically increments
// key, starting a fresh window of the given length when the key is absent or expired,
// and returns the new count and the time left in the window.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is a process-local CounterStore. Counters are not shared between
// replicas; use RedisStore when running more than one.
type MemoryStore struct {
	mu        sync.Mutex
	counters  map[string]*memoryCounter
	now       func() time.Time
	lastSweep time.Time
}

// sweepEvery bounds how often expired counters are dropped.
const sweepEvery = time.Minute

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock builds a store reading time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{counters: make(map[string]*memoryCounter), now: now}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	counter, ok := s.counters[key]
	if !ok || !now.Before(counter.expiresAt) {
		counter = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.count++
	return counter.count, counter.expiresAt.Sub(now), nil
}

func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	s.lastSweep = now
	for key, counter := range s.counters {
		if !now.Before(counter.expiresAt) {
			delete(s.counters, key)
		}
	}
}
