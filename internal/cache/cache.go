// Package cache define un cliente key/value mínimo con backends intercambiables.
//
// Backends:
//   - memory (in-process, go-cache; desarrollo y tests)
//   - redis (compartido entre réplicas)
//
// El KeySetCache lo usa como tier compartido para documentos JWKS.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind   string // "memory" | "redis"
	Addr   string // host:port (redis)
	DB     int
	Prefix string // prefijo para todas las keys
}

// ErrNotFound indica que la key no existe (o expiró).
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// PrefixedKey aplica el prefijo de configuración a una key.
func PrefixedKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
