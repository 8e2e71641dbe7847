package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

// uniqueViolation es el SQLSTATE de violación de constraint UNIQUE.
const uniqueViolation = "23505"

// UserRepo implementa store.UserRepository.
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindByExternalID(ctx context.Context, externalID string) (*store.User, error) {
	const query = `
		SELECT id, external_id, tenant_id, COALESCE(name, ''), COALESCE(email, ''), created_at
		FROM app_user WHERE external_id = $1
	`
	var u store.User
	err := r.db.QueryRow(ctx, query, externalID).Scan(
		&u.ID, &u.ExternalID, &u.TenantID, &u.Name, &u.Email, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Insert(ctx context.Context, u *store.User) error {
	const query = `
		INSERT INTO app_user (id, external_id, tenant_id, name, email, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`
	_, err := r.db.Exec(ctx, query, u.ID, u.ExternalID, u.TenantID, u.Name, u.Email, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrConflict
		}
		return fmt.Errorf("pg: insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

func (r *UserRepo) Close() error {
	r.db.Close()
	return nil
}
