package service

import (
	"context"
	"time"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/logging"
)

// RateLimitStore atomically checks and increments a fixed-window counter.
type RateLimitStore interface {
	Consume(ctx context.Context, identifier, endpoint string, quota domain.Quota, now time.Time) (bool, error)
}

// RateLimiter admits requests against per-endpoint quotas.
// A failing store admits the request.
type RateLimiter struct {
	store RateLimitStore
	now   func() time.Time
}

func NewRateLimiter(store RateLimitStore) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

// CheckAndConsume reports whether the request is admitted. Admission
// consumes one unit of the quota; a rejection consumes nothing.
func (l *RateLimiter) CheckAndConsume(ctx context.Context, identifier, endpoint string, quota domain.Quota) bool {
	ok, err := l.store.Consume(ctx, identifier, endpoint, quota, l.now().UTC())
	if err != nil {
		logging.FromContext(ctx).Error().
			Err(err).
			Str("event", "rate_limit_store_error").
			Str("endpoint", endpoint).
			Msg("rate limit check failed, allowing request")
		return true
	}
	return ok
}
