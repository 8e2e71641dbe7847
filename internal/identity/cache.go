package identity

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

const DefaultCacheSize = 10_000

// UserCache es un LRU acotado externalID -> User, seguro para uso concurrente.
type UserCache struct {
	lru *lru.Cache[string, store.User]
}

func NewUserCache(size int) (*UserCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, store.User](size)
	if err != nil {
		return nil, fmt.Errorf("identity: user cache: %w", err)
	}
	return &UserCache{lru: c}, nil
}

func (c *UserCache) Get(externalID string) (store.User, bool) {
	return c.lru.Get(externalID)
}

// Add guarda una copia del usuario. Reporta si hubo desalojo.
func (c *UserCache) Add(u store.User) bool {
	return c.lru.Add(u.ExternalID, u)
}

func (c *UserCache) Remove(externalID string) {
	c.lru.Remove(externalID)
}

func (c *UserCache) Len() int { return c.lru.Len() }
