package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/finlake/warehouse-transfer/lib/config"
)

type Store struct {
	client   *mongo.Client
	database string
}

func LoadStore(ctx context.Context, cfg config.MongoDB) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.URI())
	if cfg.Username != "" {
		opts = opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to validate the mongodb connection: %w", err)
	}

	return &Store{
		client:   client,
		database: cfg.Database,
	}, nil
}

// Find returns every document in the collection matching filter.
// A nil filter fetches the whole collection.
func (s *Store) Find(ctx context.Context, collection string, filter any) ([]bson.M, error) {
	if filter == nil {
		filter = bson.D{}
	}

	cursor, err := s.client.Database(s.database).Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", collection, err)
	}

	var documents []bson.M
	if err = cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("failed to read cursor for collection %q: %w", collection, err)
	}

	return documents, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
