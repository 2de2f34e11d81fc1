package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

// DocumentCameraRepository implements CameraRepository on a storage.DB
// document. Camera records may carry fields beyond the name; they are
// preserved on write.
type DocumentCameraRepository struct {
	db *storage.DB
}

// NewDocumentCameraRepository creates a new DocumentCameraRepository
func NewDocumentCameraRepository(db *storage.DB) *DocumentCameraRepository {
	return &DocumentCameraRepository{db: db}
}

func decodeCamera(raw json.RawMessage) (*entities.Camera, bool) {
	var camera entities.Camera
	if err := json.Unmarshal(raw, &camera); err != nil || camera.Name == "" {
		return nil, false
	}
	return &camera, true
}

// FindByName retrieves a camera by its exact name
func (r *DocumentCameraRepository) FindByName(ctx context.Context, name string) (*entities.Camera, error) {
	var found *entities.Camera
	err := r.db.View(ctx, func(tx *storage.Tx) error {
		c, err := storage.Get[json.RawMessage](tx, CollectionCameras)
		if err != nil {
			return fmt.Errorf("failed to read cameras: %w", err)
		}
		for _, raw := range c.Value() {
			if camera, ok := decodeCamera(raw); ok && camera.Name == name {
				found = camera
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindAll retrieves every registered camera in stored order
func (r *DocumentCameraRepository) FindAll(ctx context.Context) ([]*entities.Camera, error) {
	var result []*entities.Camera
	err := r.db.View(ctx, func(tx *storage.Tx) error {
		c, err := storage.Get[json.RawMessage](tx, CollectionCameras)
		if err != nil {
			return fmt.Errorf("failed to read cameras: %w", err)
		}
		result = make([]*entities.Camera, 0, c.Len())
		for _, raw := range c.Value() {
			if camera, ok := decodeCamera(raw); ok {
				result = append(result, camera)
			}
		}
		return nil
	})
	return result, err
}

// Save registers a new camera
func (r *DocumentCameraRepository) Save(ctx context.Context, camera *entities.Camera) error {
	if camera.Name == "" {
		return fmt.Errorf("camera name is required")
	}

	return r.db.Update(ctx, func(tx *storage.Tx) error {
		c, err := storage.Get[json.RawMessage](tx, CollectionCameras)
		if err != nil {
			return fmt.Errorf("failed to read cameras: %w", err)
		}
		if _, exists := c.Find(func(raw json.RawMessage) bool {
			existing, ok := decodeCamera(raw)
			return ok && existing.Name == camera.Name
		}); exists {
			return fmt.Errorf("camera %q: %w", camera.Name, repositories.ErrAlreadyExists)
		}

		data, err := json.Marshal(camera)
		if err != nil {
			return fmt.Errorf("failed to encode camera: %w", err)
		}
		c.Push(data)
		return c.Write()
	})
}
