package repositories

import (
	"context"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
)

// CameraRepository defines the interface for the camera registry
type CameraRepository interface {
	// FindByName retrieves a camera, returning ErrNotFound if absent
	FindByName(ctx context.Context, name string) (*entities.Camera, error)

	// FindAll retrieves every registered camera
	FindAll(ctx context.Context) ([]*entities.Camera, error)

	// Save registers a camera, returning ErrAlreadyExists for a taken name
	Save(ctx context.Context, camera *entities.Camera) error
}
