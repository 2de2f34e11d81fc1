package storage

import (
	"context"
	"fmt"
)

// NewBackend creates a storage backend based on the configuration
func NewBackend(ctx context.Context, config *StorageConfig) (Backend, error) {
	switch config.Type {
	case "memory", "":
		return NewMemoryBackend(nil), nil

	case "file":
		if config.FilePath == "" {
			config.FilePath = "./db.json"
		}
		return NewFileBackend(config.FilePath)

	case "s3":
		return NewS3Backend(ctx, config.S3)

	case "sqlite":
		if config.SQLite.DSN == "" {
			config.SQLite.DSN = "./camnotify.db"
		}
		return NewSQLiteBackend(config.SQLite.DSN)

	case "mongo":
		return NewMongoBackend(ctx, config.Mongo)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
