package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// MinRateLimitRetention is the shortest age at which counter rows are pruned.
const MinRateLimitRetention = 24 * time.Hour

// RateLimitRetention returns the pruning age for counters of the given quota
// windows. A counter is never removed while its window can still be open.
func RateLimitRetention(windows ...time.Duration) time.Duration {
	age := MinRateLimitRetention
	for _, w := range windows {
		if w > age {
			age = w
		}
	}
	return age
}

type ConversationPruner interface {
	DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

type RateLimitPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionProcessor deletes conversations idle for longer than the retention
// period and rate-limit counters older than the longest quota window, with a
// one-day floor. The rate-limit pruner is nil when the backend expires keys
// on its own.
type RetentionProcessor struct {
	conversations ConversationPruner
	rateLimits    RateLimitPruner
	retention     time.Duration
	rateLimitAge  time.Duration
	now           func() time.Time
}

// NewRetentionProcessor builds a processor. quotaWindows are the windows of
// every configured quota.
func NewRetentionProcessor(conversations ConversationPruner, rateLimits RateLimitPruner, retention time.Duration, quotaWindows ...time.Duration) *RetentionProcessor {
	return &RetentionProcessor{
		conversations: conversations,
		rateLimits:    rateLimits,
		retention:     retention,
		rateLimitAge:  RateLimitRetention(quotaWindows...),
		now:           time.Now,
	}
}

func (p *RetentionProcessor) ProcessJobs(ctx context.Context) error {
	now := p.now().UTC()
	var errs []error

	if p.conversations != nil && p.retention > 0 {
		n, err := p.conversations.DeleteInactiveSince(ctx, now.Add(-p.retention))
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			log.Info().Int64("deleted", n).Msg("expired conversations removed")
		}
	}

	if p.rateLimits != nil {
		n, err := p.rateLimits.DeleteOlderThan(ctx, now.Add(-p.rateLimitAge))
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			log.Info().Int64("deleted", n).Msg("stale rate limit counters removed")
		}
	}

	return errors.Join(errs...)
}
