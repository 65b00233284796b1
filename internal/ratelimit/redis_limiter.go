package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the counter and starts the window only when the key
// is created. Denied calls still increment, but they never extend the TTL, so
// the key always expires one window after the first allowed call and retries
// cannot push recovery out indefinitely.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter counts events in Redis so several instances of the service
// share one budget per key. It approximates the sliding window with a
// fixed-window counter; the window starts when the key first appears.
// Redis being unreachable fails open: auth traffic keeps flowing and the
// error is logged.
type RedisLimiter struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisLimiter(client redis.UniversalClient, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &RedisLimiter{client: client, keyPrefix: keyPrefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	redisKey := l.keyPrefix + ":" + key

	count, err := allowScript.Run(ctx, l.client, []string{redisKey}, window.Milliseconds()).Int64()
	if err != nil {
		log.Printf("ratelimit: redis script failed for %s: %v", redisKey, err)
		return true, err
	}

	return count <= int64(limit), nil
}
