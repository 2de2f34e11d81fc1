package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend implements file-based document persistence
type FileBackend struct {
	filePath string
	mu       sync.Mutex
}

// NewFileBackend creates a new file backend. The parent directory is created
// if it doesn't exist; the file itself is created on the first save.
func NewFileBackend(filePath string) (*FileBackend, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileBackend{filePath: filePath}, nil
}

// Path returns the file the backend writes to
func (fb *FileBackend) Path() string {
	return fb.filePath
}

// Load reads the document from disk
func (fb *FileBackend) Load(ctx context.Context) (State, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	data, err := os.ReadFile(fb.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, nil
	}

	state := State{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode storage file %s: %w", fb.filePath, err)
	}

	return state, nil
}

// Save writes the document to disk atomically
func (fb *FileBackend) Save(ctx context.Context, state State) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	tempFile := fb.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(state); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := file.Sync(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := os.Rename(tempFile, fb.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Close is a no-op; every save is already flushed
func (fb *FileBackend) Close() error {
	return nil
}
