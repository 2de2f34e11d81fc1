package storage

import (
	"context"
	"encoding/json"
)

// State is the whole persisted document keyed by top-level collection name
// (for example "notifications", "cameras" or "settings").
type State map[string]json.RawMessage

// Clone returns a shallow copy of the state. Values are never mutated in
// place, so sharing the underlying byte slices is safe.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Backend defines the interface for document persistence
type Backend interface {
	// Load reads the full document. A backend with nothing stored yet
	// returns an empty state and no error.
	Load(ctx context.Context) (State, error)

	// Save replaces the full document
	Save(ctx context.Context, state State) error

	// Close cleans up any resources
	Close() error
}

// StorageConfig holds configuration for storage backends
type StorageConfig struct {
	Type string `json:"type" mapstructure:"type"` // "memory", "file", "s3", "sqlite", "mongo"

	// File storage config
	FilePath string `json:"file_path,omitempty" mapstructure:"file_path"`

	S3     S3Config     `json:"s3" mapstructure:"s3"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Mongo  MongoConfig  `json:"mongo" mapstructure:"mongo"`
}

// S3Config holds S3 backend settings
type S3Config struct {
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	Region    string `json:"region" mapstructure:"region"`
	Key       string `json:"key" mapstructure:"key"`
	Endpoint  string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	AccessKey string `json:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" mapstructure:"secret_key"`
}

// SQLiteConfig holds SQLite backend settings
type SQLiteConfig struct {
	DSN string `json:"dsn" mapstructure:"dsn"`
}

// MongoConfig holds MongoDB backend settings
type MongoConfig struct {
	URI            string `json:"uri" mapstructure:"uri"`
	Database       string `json:"database" mapstructure:"database"`
	Collection     string `json:"collection" mapstructure:"collection"`
	ConnectTimeout int    `json:"connect_timeout_seconds" mapstructure:"connect_timeout_seconds"`
}
