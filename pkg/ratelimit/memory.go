package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is a process-local fixed-window counter. Access to the bucket
// map is serialized by a single mutex; counts are small and held briefly, so
// per-key locking is not worth the bookkeeping.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock allows deterministic windows in tests.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	return b.count, b.resetAt, nil
}

// Sweep evicts buckets whose window has already ended. Housekeeping only;
// Incr replaces expired buckets on its own.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for key, b := range s.buckets {
		if !now.Before(b.resetAt) {
			delete(s.buckets, key)
			evicted++
		}
	}
	return evicted
}

// StartJanitor sweeps on the given interval until the returned stop function
// is called.
func (s *MemoryStore) StartJanitor(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func (s *MemoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
