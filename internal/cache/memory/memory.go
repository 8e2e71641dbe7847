package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/cache"
	gocache "github.com/patrickmn/go-cache"
)

// Client implementa cache.Client en memoria sobre go-cache.
type Client struct {
	c      *gocache.Cache
	prefix string
}

var _ cache.Client = (*Client)(nil)

// New crea un cliente en memoria. Las entradas sin TTL no expiran.
func New(prefix string) *Client {
	return &Client{c: gocache.New(gocache.NoExpiration, time.Minute), prefix: prefix}
}

func (m *Client) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(cache.PrefixedKey(m.prefix, key))
	if !ok {
		return "", cache.ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Client) Set(_ context.Context, key, value string, ttl time.Duration) error {
	exp := gocache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	m.c.Set(cache.PrefixedKey(m.prefix, key), value, exp)
	return nil
}

func (m *Client) Delete(_ context.Context, key string) error {
	m.c.Delete(cache.PrefixedKey(m.prefix, key))
	return nil
}

func (m *Client) Ping(context.Context) error { return nil }
func (m *Client) Close() error               { return nil }

// Len devuelve la cantidad de entradas (incluye expiradas aún no purgadas).
func (m *Client) Len() int { return m.c.ItemCount() }
