// Package store define el repositorio persistente de usuarios y el registry
// de adaptadores (memory, postgres, mongo).
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound: no existe un usuario con esa identidad externa.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict: ya existe un usuario con esa identidad externa (o ese id).
	ErrConflict = errors.New("store: conflict")
)

// User es el registro interno asociado a una identidad externa.
// ExternalID es único en todo el store.
type User struct {
	ID         string
	ExternalID string
	TenantID   string
	Name       string
	Email      string
	CreatedAt  time.Time
}

// UserRepository es la capacidad mínima que necesita el resolver.
// Cualquier error distinto de ErrNotFound/ErrConflict significa que el store
// no está disponible.
type UserRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	Insert(ctx context.Context, u *User) error
	Ping(ctx context.Context) error
	Close() error
}
