package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

func TestUserRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find existing", func(mt *mtest.T) {
		created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "hellotodo.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "external_id", Value: "auth0|1"},
			{Key: "tenant_id", Value: "t1"},
			{Key: "name", Value: "Ada"},
			{Key: "created_at", Value: created},
		}))

		u, err := NewUserRepo(mt.Coll).FindByExternalID(context.Background(), "auth0|1")
		require.NoError(mt, err)
		require.Equal(mt, "u1", u.ID)
		require.Equal(mt, "t1", u.TenantID)
		require.Equal(mt, "Ada", u.Name)
		require.True(mt, created.Equal(u.CreatedAt))
	})

	mt.Run("find missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hellotodo.users", mtest.FirstBatch))

		_, err := NewUserRepo(mt.Coll).FindByExternalID(context.Background(), "auth0|404")
		require.ErrorIs(mt, err, store.ErrNotFound)
	})

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := NewUserRepo(mt.Coll).Insert(context.Background(), &store.User{ID: "u1", ExternalID: "auth0|1", TenantID: "t1"})
		require.NoError(mt, err)
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: hellotodo.users index: external_id_uq",
		}))

		err := NewUserRepo(mt.Coll).Insert(context.Background(), &store.User{ID: "u2", ExternalID: "auth0|1", TenantID: "t2"})
		require.ErrorIs(mt, err, store.ErrConflict)
	})

	mt.Run("command error is not conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "shutting down",
		}))

		_, err := NewUserRepo(mt.Coll).FindByExternalID(context.Background(), "auth0|1")
		require.Error(mt, err)
		require.NotErrorIs(mt, err, store.ErrNotFound)
	})
}
