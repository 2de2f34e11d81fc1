package camera

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
)

// ErrInvalidName is returned for blank camera names
var ErrInvalidName = errors.New("camera name is required")

// View is a camera together with the room it is assigned to
type View struct {
	Name string `json:"name" yaml:"name"`
	Room string `json:"room" yaml:"room"`
}

// AddCameraUseCase registers cameras and assigns their rooms
type AddCameraUseCase struct {
	cameras  repositories.CameraRepository
	settings repositories.SettingsRepository
	logger   zerolog.Logger
}

// NewAddCameraUseCase creates a new AddCameraUseCase
func NewAddCameraUseCase(
	cameras repositories.CameraRepository,
	settings repositories.SettingsRepository,
	logger zerolog.Logger,
) *AddCameraUseCase {
	return &AddCameraUseCase{
		cameras:  cameras,
		settings: settings,
		logger:   logger.With().Str("component", "cameras").Logger(),
	}
}

// Execute registers a camera. An already registered camera is not an
// error, so the call can be used to move a camera to another room. An empty
// room leaves the room setting untouched.
func (uc *AddCameraUseCase) Execute(ctx context.Context, name, room string) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	err := uc.cameras.Save(ctx, &entities.Camera{Name: name})
	switch {
	case err == nil:
		uc.logger.Info().Str("camera", name).Msg("Camera registered")
	case errors.Is(err, repositories.ErrAlreadyExists):
	default:
		return nil, fmt.Errorf("failed to save camera %q: %w", name, err)
	}

	if room != "" {
		if err := uc.settings.SaveCameraSetting(ctx, &entities.CameraSetting{Name: name, Room: room}); err != nil {
			return nil, fmt.Errorf("failed to save settings for camera %q: %w", name, err)
		}
		uc.logger.Info().Str("camera", name).Str("room", room).Msg("Camera room assigned")
	}

	view := &View{Name: name, Room: room}
	if room == "" {
		if setting, err := uc.settings.FindCameraSetting(ctx, name); err == nil {
			view.Room = setting.Room
		}
	}
	return view, nil
}

// ListCamerasUseCase lists registered cameras with their rooms
type ListCamerasUseCase struct {
	cameras     repositories.CameraRepository
	settings    repositories.SettingsRepository
	defaultRoom string
}

// NewListCamerasUseCase creates a new ListCamerasUseCase. Cameras without
// a room setting are reported in defaultRoom.
func NewListCamerasUseCase(
	cameras repositories.CameraRepository,
	settings repositories.SettingsRepository,
	defaultRoom string,
) *ListCamerasUseCase {
	return &ListCamerasUseCase{
		cameras:     cameras,
		settings:    settings,
		defaultRoom: defaultRoom,
	}
}

// Execute lists every camera in registration order
func (uc *ListCamerasUseCase) Execute(ctx context.Context) ([]*View, error) {
	cameras, err := uc.cameras.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	settings, err := uc.settings.ListCameraSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list camera settings: %w", err)
	}

	rooms := make(map[string]string, len(settings))
	for _, s := range settings {
		if _, seen := rooms[s.Name]; !seen && s.Room != "" {
			rooms[s.Name] = s.Room
		}
	}

	views := make([]*View, 0, len(cameras))
	for _, c := range cameras {
		room, ok := rooms[c.Name]
		if !ok {
			room = uc.defaultRoom
		}
		views = append(views, &View{Name: c.Name, Room: room})
	}
	return views, nil
}
