package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// MongoBackend stores each top-level collection as one document in a
// MongoDB collection
type MongoBackend struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoBackend connects to MongoDB and pings the server
func NewMongoBackend(ctx context.Context, cfg MongoConfig) (*MongoBackend, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	database := cfg.Database
	if database == "" {
		database = "camnotify"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "documents"
	}
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(
		options.Client().
			ApplyURI(cfg.URI).
			SetConnectTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info().Str("database", database).Str("collection", collection).Msg("Mongo storage initialized")

	return &MongoBackend{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Load reads every stored collection
func (m *MongoBackend) Load(ctx context.Context) (State, error) {
	cursor, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	var docs []mongoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	state := make(State, len(docs))
	for _, doc := range docs {
		state[doc.Key] = json.RawMessage(doc.Value)
	}
	return state, nil
}

// Save upserts every collection and removes keys no longer present
func (m *MongoBackend) Save(ctx context.Context, state State) error {
	keys := make([]string, 0, len(state))
	for key, value := range state {
		keys = append(keys, key)
		_, err := m.collection.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: key}},
			mongoDocument{Key: key, Value: string(value)},
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to write document %q: %w", key, err)
		}
	}

	if _, err := m.collection.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: keys}}}}); err != nil {
		return fmt.Errorf("failed to prune documents: %w", err)
	}
	return nil
}

// Close disconnects the client
func (m *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
