// Package mongo implementa el UserRepository sobre MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

const (
	defaultDatabase = "hellotodo"
	usersCollection = "users"
)

func init() {
	store.RegisterAdapter(&mongoAdapter{})
}

type mongoAdapter struct{}

func (a *mongoAdapter) Name() string { return "mongo" }

func (a *mongoAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.UserRepository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = defaultDatabase
	}
	repo := NewUserRepo(client.Database(dbName).Collection(usersCollection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

type userDoc struct {
	ID         string    `bson:"_id"`
	ExternalID string    `bson:"external_id"`
	TenantID   string    `bson:"tenant_id"`
	Name       string    `bson:"name,omitempty"`
	Email      string    `bson:"email,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

// UserRepo implementa store.UserRepository.
type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(coll *mongo.Collection) *UserRepo {
	return &UserRepo{coll: coll}
}

// EnsureIndexes crea el índice único sobre external_id.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("external_id_uq"),
	})
	if err != nil {
		return fmt.Errorf("mongo: create index: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByExternalID(ctx context.Context, externalID string) (*store.User, error) {
	var d userDoc
	err := r.coll.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return &store.User{
		ID:         d.ID,
		ExternalID: d.ExternalID,
		TenantID:   d.TenantID,
		Name:       d.Name,
		Email:      d.Email,
		CreatedAt:  d.CreatedAt,
	}, nil
}

func (r *UserRepo) Insert(ctx context.Context, u *store.User) error {
	_, err := r.coll.InsertOne(ctx, userDoc{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		TenantID:   u.TenantID,
		Name:       u.Name,
		Email:      u.Email,
		CreatedAt:  u.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("mongo: insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *UserRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.coll.Database().Client().Disconnect(ctx)
}
