package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMongoBackend(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping Mongo integration test (set INTEGRATION_TEST=true to run)")
	}

	ctx := context.Background()
	backend, err := NewMongoBackend(ctx, MongoConfig{
		URI:        envOr("MONGO_URI", "mongodb://localhost:27017"),
		Database:   "camnotify_test",
		Collection: "documents_" + bson.NewObjectID().Hex(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = backend.collection.Drop(ctx)
		_ = backend.Close()
	})

	testBackendInterface(t, backend)
}
