package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter crea repositorios para un backend concreto.
type Adapter interface {
	// Name retorna el nombre del adapter (ej: "memory", "postgres", "mongo").
	Name() string

	// Connect establece conexión con el almacenamiento.
	Connect(ctx context.Context, cfg AdapterConfig) (UserRepository, error)
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "memory", "postgres", "mongo"
	Name string

	// DSN connection string (postgres) o URI (mongo)
	DSN string

	// Database nombre de la base (mongo)
	Database string

	// MaxConns tamaño máximo del pool (postgres, 0 = default del driver)
	MaxConns int32

	// Migrate aplica las migraciones embebidas al conectar (postgres)
	Migrate bool
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter abre una conexión usando el adapter especificado en la config.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (UserRepository, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (have %v)", cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
