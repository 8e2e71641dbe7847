package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/cache"
	rdb "github.com/redis/go-redis/v9"
)

// Client implementa cache.Client sobre Redis.
type Client struct {
	c      *rdb.Client
	prefix string
}

var _ cache.Client = (*Client)(nil)

// New crea un cliente Redis y verifica la conexión.
func New(ctx context.Context, cfg cache.Config) (*Client, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	c := rdb.NewClient(&rdb.Options{Addr: addr, DB: cfg.DB})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return &Client{c: c, prefix: cfg.Prefix}, nil
}

// Wrap usa un *redis.Client existente (compartido con el rate limiter).
func Wrap(c *rdb.Client, prefix string) *Client {
	return &Client{c: c, prefix: prefix}
}

// Raw expone el cliente subyacente.
func (r *Client) Raw() *rdb.Client { return r.c }

func (r *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, cache.PrefixedKey(r.prefix, key)).Result()
	if errors.Is(err, rdb.Nil) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, cache.PrefixedKey(r.prefix, key), value, ttl).Err()
}

func (r *Client) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, cache.PrefixedKey(r.prefix, key)).Err()
}

func (r *Client) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
func (r *Client) Close() error                   { return r.c.Close() }
