package repositories

import (
	"context"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
)

// SettingsRepository defines the interface for per-camera settings
type SettingsRepository interface {
	// FindCameraSetting retrieves the setting for a camera, returning
	// ErrNotFound if the camera has none
	FindCameraSetting(ctx context.Context, cameraName string) (*entities.CameraSetting, error)

	// ListCameraSettings retrieves every camera setting
	ListCameraSettings(ctx context.Context) ([]*entities.CameraSetting, error)

	// SaveCameraSetting creates or updates the setting for setting.Name
	SaveCameraSetting(ctx context.Context, setting *entities.CameraSetting) error
}
