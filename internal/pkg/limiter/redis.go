package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter over Redis INCR + PEXPIRE,
// one counter per (rule, key, window bucket).
type RedisLimiter struct {
	rdb  *redis.Client
	rule Rule
}

func NewRedis(rdb *redis.Client, rule Rule) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, rule: rule}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().UnixMilli() / l.rule.Window.Milliseconds()
	counter := fmt.Sprintf("folio:rl:%s:%s:%d", l.rule.Name, key, bucket)

	count, err := l.rdb.Incr(ctx, counter).Result()
	if err != nil {
		// err open: a Redis outage must not turn into a sitewide lockout
		return true, err
	}
	if count == 1 {
		l.rdb.PExpire(ctx, counter, l.rule.Window+time.Second)
	}
	return count <= int64(l.rule.Max), nil
}
