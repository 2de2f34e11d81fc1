package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrReadOnly is returned when a write is attempted inside View
var ErrReadOnly = errors.New("transaction is read-only")

// DB is a document database on top of a Backend. The document is loaded
// once and cached; Update writes the whole document back through the
// backend only when something changed. A failed callback or save leaves
// both the cache and the backend untouched.
type DB struct {
	backend Backend
	state   State
	loaded  bool
	mu      sync.RWMutex
}

// Open wraps a backend. The document is read lazily on first use.
func Open(backend Backend) *DB {
	return &DB{backend: backend}
}

// Reload discards the cached document and reads it from the backend again
func (db *DB) Reload(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.loaded = false
	return db.ensureLoaded(ctx)
}

func (db *DB) ensureLoaded(ctx context.Context) error {
	if db.loaded {
		return nil
	}
	state, err := db.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if state == nil {
		state = State{}
	}
	db.state = state
	db.loaded = true
	return nil
}

// View runs fn against a read-only snapshot of the document
func (db *DB) View(ctx context.Context, fn func(tx *Tx) error) error {
	db.mu.RLock()
	if !db.loaded {
		db.mu.RUnlock()
		db.mu.Lock()
		err := db.ensureLoaded(ctx)
		db.mu.Unlock()
		if err != nil {
			return err
		}
		db.mu.RLock()
	}
	defer db.mu.RUnlock()

	return fn(&Tx{state: db.state})
}

// Update runs fn with exclusive access. Changes made by fn are persisted
// only if fn returns nil.
func (db *DB) Update(ctx context.Context, fn func(tx *Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.ensureLoaded(ctx); err != nil {
		return err
	}

	tx := &Tx{state: db.state.Clone(), writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	if err := db.backend.Save(ctx, tx.state); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	db.state = tx.state
	return nil
}

// Close closes the backend
func (db *DB) Close() error {
	return db.backend.Close()
}

// Tx gives path-based access to the document. Paths are dot separated,
// for example "settings.cameras".
type Tx struct {
	state    State
	writable bool
	dirty    bool
}

// Get decodes the value at path into v. It reports false when nothing
// (or JSON null) is stored there.
func (tx *Tx) Get(path string, v any) (bool, error) {
	raw, ok, err := tx.lookup(path)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

// Set encodes v and stores it at path, creating intermediate objects
func (tx *Tx) Set(path string, v any) error {
	if !tx.writable {
		return ErrReadOnly
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	keys, err := splitPath(path)
	if err != nil {
		return err
	}
	updated, err := setIn(tx.state[keys[0]], keys[1:], data)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}

	tx.state[keys[0]] = updated
	tx.dirty = true
	return nil
}

func (tx *Tx) lookup(path string) (json.RawMessage, bool, error) {
	keys, err := splitPath(path)
	if err != nil {
		return nil, false, err
	}

	raw, ok := tx.state[keys[0]]
	for i, key := range keys[1:] {
		if !ok || isNull(raw) {
			return nil, false, nil
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false, fmt.Errorf("%s is not an object: %w", strings.Join(keys[:i+1], "."), err)
		}
		raw, ok = obj[key]
	}
	if !ok || isNull(raw) {
		return nil, false, nil
	}
	return raw, true, nil
}

func setIn(parent json.RawMessage, keys []string, value json.RawMessage) (json.RawMessage, error) {
	if len(keys) == 0 {
		return value, nil
	}

	obj := map[string]json.RawMessage{}
	if len(parent) > 0 && !isNull(parent) {
		if err := json.Unmarshal(parent, &obj); err != nil {
			return nil, err
		}
	}

	child, err := setIn(obj[keys[0]], keys[1:], value)
	if err != nil {
		return nil, err
	}
	obj[keys[0]] = child
	return json.Marshal(obj)
}

func splitPath(path string) ([]string, error) {
	keys := strings.Split(path, ".")
	for _, key := range keys {
		if key == "" {
			return nil, fmt.Errorf("invalid path %q", path)
		}
	}
	return keys, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
