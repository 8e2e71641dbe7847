// Package pg implementa el UserRepository sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

func init() {
	store.RegisterAdapter(&pgAdapter{})
}

// DB es el subconjunto de *pgxpool.Pool que usa el repositorio.
// pgxmock.PgxPoolIface también lo satisface.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type pgAdapter struct{}

func (a *pgAdapter) Name() string { return "postgres" }

func (a *pgAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.UserRepository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pg: empty dsn")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	if cfg.Migrate {
		if _, err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return NewUserRepo(pool), nil
}
