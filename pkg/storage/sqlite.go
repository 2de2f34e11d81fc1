package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS documents (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

type documentRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SQLiteBackend stores each top-level collection as one row in a local
// SQLite database.
type SQLiteBackend struct {
	db *sqlx.DB
}

// NewSQLiteBackend opens (or creates) the database at dsn and ensures the
// documents table exists. Use ":memory:" for a throwaway database.
func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load reads every stored collection
func (s *SQLiteBackend) Load(ctx context.Context) (State, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM documents`); err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	state := make(State, len(rows))
	for _, row := range rows {
		if !json.Valid([]byte(row.Value)) {
			return nil, fmt.Errorf("document %q is not valid JSON", row.Key)
		}
		state[row.Key] = json.RawMessage(row.Value)
	}
	return state, nil
}

// Save replaces every stored collection in a single transaction
func (s *SQLiteBackend) Save(ctx context.Context, state State) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	for key, value := range state {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO documents (key, value) VALUES (:key, :value)`,
			documentRow{Key: key, Value: string(value)},
		); err != nil {
			return fmt.Errorf("failed to write document %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// Close closes the underlying database connection
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
