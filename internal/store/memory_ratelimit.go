package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/linkmark/internal/ratelimit"
)

// RateLimitMemoryStore is an in-memory sliding-window ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Record prunes timestamps that fell out of the window, then appends now.
func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.requests[key][:0]

	for _, ts := range s.requests[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	kept = append(kept, now)
	s.requests[key] = kept

	return int64(len(kept)), nil
}

// Sweep drops keys with no request newer than maxAge.
func (s *RateLimitMemoryStore) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	dropped := 0

	for key, stamps := range s.requests {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(s.requests, key)
			dropped++
		}
	}

	return dropped
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
