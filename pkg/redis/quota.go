package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuotaCounter implements sliding-window request quota accounting in Redis,
// so a daily provider ceiling is shared across screener instances.
// ⭐ SSOT: distributed quota accounting lives only here
type QuotaCounter struct {
	client *Client
	prefix string
}

// QuotaConfig defines a quota window for one provider
type QuotaConfig struct {
	Provider string        // provider id, e.g. "alpha_vantage"
	Limit    int           // maximum requests allowed in the window
	Window   time.Duration // rolling window, typically 24h
}

// NewQuotaCounter creates a new quota counter
func NewQuotaCounter(client *Client, prefix string) *QuotaCounter {
	return &QuotaCounter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks whether one more request fits inside the provider's window.
// Returns (allowed, remaining, error). When Redis is disabled the caller
// falls back to its in-process counter, so everything is allowed here.
func (q *QuotaCounter) Allow(ctx context.Context, cfg QuotaConfig) (bool, int, error) {
	if !q.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:quota:%s", q.prefix, cfg.Provider)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	rdb := q.client.Redis()

	// Lua script keeps trim+count+add atomic
	script := redis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])
		local window_ms = tonumber(ARGV[4])

		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

		local count = redis.call('ZCARD', key)

		if count < limit then
			redis.call('ZADD', key, now, now)
			redis.call('PEXPIRE', key, window_ms)
			return {1, limit - count - 1}
		else
			return {0, 0}
		end
	`)

	result, err := script.Run(ctx, rdb, []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("quota script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}
