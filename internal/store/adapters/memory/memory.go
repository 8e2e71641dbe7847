// Package memory implementa un UserRepository en memoria. Útil para
// desarrollo y tests; no sobrevive reinicios.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(context.Context, store.AdapterConfig) (store.UserRepository, error) {
	return New(), nil
}

// Repo guarda usuarios indexados por identidad externa.
type Repo struct {
	mu         sync.RWMutex
	byExternal map[string]store.User
	ids        map[string]struct{}
}

func New() *Repo {
	return &Repo{
		byExternal: make(map[string]store.User),
		ids:        make(map[string]struct{}),
	}
}

func (r *Repo) FindByExternalID(_ context.Context, externalID string) (*store.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byExternal[externalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r *Repo) Insert(_ context.Context, u *store.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byExternal[u.ExternalID]; ok {
		return store.ErrConflict
	}
	if _, ok := r.ids[u.ID]; ok {
		return store.ErrConflict
	}
	r.byExternal[u.ExternalID] = *u
	r.ids[u.ID] = struct{}{}
	return nil
}

func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byExternal)
}

func (r *Repo) Ping(context.Context) error { return nil }
func (r *Repo) Close() error               { return nil }
