package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noscite/noscite-assistant/internal/domain"
)

const rateLimitPrefix = "ratelimit:"

// consumeScript admits a request when the counter is below ARGV[1] and
// starts the window with a PEXPIRE of ARGV[2] ms on the first hit.
// Rejected requests leave the counter unchanged.
var consumeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RateLimitStore keeps fixed-window counters in Redis, shared by every replica.
type RateLimitStore struct {
	client *Client
}

func NewRateLimitStore(client *Client) *RateLimitStore {
	return &RateLimitStore{client: client}
}

// Consume ignores now: Redis key expiry drives the window.
func (s *RateLimitStore) Consume(ctx context.Context, identifier, endpoint string, quota domain.Quota, _ time.Time) (bool, error) {
	if quota.Max <= 0 {
		return false, nil
	}

	window := quota.Window.Milliseconds()
	if window <= 0 {
		window = 1
	}

	res, err := consumeScript.Run(ctx, s.client.rdb, []string{rateLimitKey(identifier, endpoint)}, quota.Max, window).Int()
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit script: %w", err)
	}
	return res == 1, nil
}

// Reset resets the counter of an (identifier, endpoint) pair
func (s *RateLimitStore) Reset(ctx context.Context, identifier, endpoint string) error {
	return s.client.rdb.Del(ctx, rateLimitKey(identifier, endpoint)).Err()
}

func rateLimitKey(identifier, endpoint string) string {
	return rateLimitPrefix + endpoint + ":" + identifier
}
