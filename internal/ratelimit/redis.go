package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "snipbox:ratelimit"

// The window starts with the first admitted request and the key expires with it.
// Rejected requests leave the counter untouched.
var fixedWindowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if count >= limit then
  local ttl = redis.call("PTTL", KEYS[1])
  if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], window)
    ttl = window
  end
  return {count, ttl, 0}
end
count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], window)
end
return {count, redis.call("PTTL", KEYS[1]), 1}
`)

// RedisLimiter shares fixed windows between processes through Redis.
type RedisLimiter struct {
	client  redis.Scripter
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter. The caller owns client and closes it.
func NewRedisLimiter(client redis.Scripter, prefix string, limit int, window time.Duration) (*RedisLimiter, error) {
	if limit <= 0 || window < time.Millisecond {
		return nil, ErrInvalidConfig
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLimiter{
		client:  client,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		timeout: 2 * time.Second,
		now:     time.Now,
	}, nil
}

// Allow implements Limiter. Redis failures are returned; callers decide whether to fail closed.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = UnknownKey
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, l.limit, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis rate limit: unexpected reply of length %d", len(res))
	}

	count, ttl, allowed := int(res[0]), time.Duration(res[1])*time.Millisecond, res[2] == 1
	if ttl < 0 {
		ttl = l.window
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: max(0, l.limit-count),
		ResetAt:   l.now().Add(ttl),
	}, nil
}
