package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is a single-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, length time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		s.sweep(now)
		w = &window{expiresAt: now.Add(length)}
		s.windows[key] = w
	}
	w.count++

	return w.count, w.expiresAt.Sub(now), nil
}

// sweep drops expired windows. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for k, w := range s.windows {
		if !now.Before(w.expiresAt) {
			delete(s.windows, k)
		}
	}
}
