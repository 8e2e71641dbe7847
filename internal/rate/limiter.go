// Package rate implementa rate limiting de ventana fija, en Redis (compartido
// entre réplicas) o en memoria.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Limit       int64
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(hits, max int64, left time.Duration) Result {
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: hits <= max, Limit: max, Remaining: remaining, CurrentHits: hits}
	if !res.Allowed {
		res.RetryAfter = left
		if res.RetryAfter <= 0 {
			res.RetryAfter = time.Second
		}
	}
	return res
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE).
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis: %w", err)
	}
	return result(incr.Val(), l.max, winStart.Add(l.window).Sub(now)), nil
}

// MemoryLimiter: misma ventana fija sobre go-cache, por proceso.
type MemoryLimiter struct {
	c      *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// Add falla si la key ya existe; en ese caso sólo se incrementa.
	_ = l.c.Add(k, int64(0), l.window)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, fmt.Errorf("rate: memory: %w", err)
	}
	return result(hits, l.max, winStart.Add(l.window).Sub(now)), nil
}
