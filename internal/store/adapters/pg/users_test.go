package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

const (
	findQuery   = `SELECT id, external_id, tenant_id, (.+) FROM app_user WHERE external_id = \$1`
	insertQuery = `INSERT INTO app_user \(id, external_id, tenant_id, name, email, created_at\)`
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepo_FindByExternalID(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "external_id", "tenant_id", "name", "email", "created_at"}).
		AddRow("u1", "auth0|1", "t1", "Ada", "ada@example.com", created)
	mock.ExpectQuery(findQuery).WithArgs("auth0|1").WillReturnRows(rows)

	u, err := NewUserRepo(mock).FindByExternalID(context.Background(), "auth0|1")
	require.NoError(t, err)
	require.Equal(t, store.User{
		ID: "u1", ExternalID: "auth0|1", TenantID: "t1",
		Name: "Ada", Email: "ada@example.com", CreatedAt: created,
	}, *u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_FindNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(findQuery).WithArgs("auth0|404").WillReturnError(pgx.ErrNoRows)

	_, err := NewUserRepo(mock).FindByExternalID(context.Background(), "auth0|404")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_FindUnavailable(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(findQuery).WithArgs("auth0|1").WillReturnError(errors.New("connection refused"))

	_, err := NewUserRepo(mock).FindByExternalID(context.Background(), "auth0|1")
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrNotFound)
}

func TestUserRepo_Insert(t *testing.T) {
	mock := newMock(t)
	u := &store.User{ID: "u1", ExternalID: "auth0|1", TenantID: "t1", Name: "Ada", CreatedAt: time.Now()}
	mock.ExpectExec(insertQuery).
		WithArgs(u.ID, u.ExternalID, u.TenantID, u.Name, u.Email, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewUserRepo(mock).Insert(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_InsertUniqueViolation(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(insertQuery).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "app_user_external_id_uq"})

	err := NewUserRepo(mock).Insert(context.Background(), &store.User{ID: "u2", ExternalID: "auth0|1", TenantID: "t2"})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestUserRepo_InsertOtherError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(insertQuery).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "57P01"})

	err := NewUserRepo(mock).Insert(context.Background(), &store.User{ID: "u2", ExternalID: "auth0|1", TenantID: "t2"})
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrConflict)
}
