// Package memory holds process-local stores used in tests and single-instance
// deployments without a shared backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type counterKey struct {
	identifier string
	endpoint   string
}

type RateLimitStore struct {
	mu       sync.Mutex
	counters map[counterKey]*domain.RateLimitCounter
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{counters: make(map[counterKey]*domain.RateLimitCounter)}
}

func (s *RateLimitStore) Consume(_ context.Context, identifier, endpoint string, quota domain.Quota, now time.Time) (bool, error) {
	if quota.Max <= 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey{identifier: identifier, endpoint: endpoint}
	c, ok := s.counters[key]
	if !ok || c.Expired(quota.Window, now) {
		s.counters[key] = &domain.RateLimitCounter{
			Identifier:   identifier,
			Endpoint:     endpoint,
			WindowStart:  now,
			RequestCount: 1,
		}
		return true, nil
	}

	if c.RequestCount >= quota.Max {
		return false, nil
	}
	c.RequestCount++
	return true, nil
}

func (s *RateLimitStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, c := range s.counters {
		if c.WindowStart.Before(cutoff) {
			delete(s.counters, k)
			n++
		}
	}
	return n, nil
}

// Count returns the current request count of a pair, 0 when absent.
func (s *RateLimitStore) Count(identifier, endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[counterKey{identifier: identifier, endpoint: endpoint}]; ok {
		return c.RequestCount
	}
	return 0
}
