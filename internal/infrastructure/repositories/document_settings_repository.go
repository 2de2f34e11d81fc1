package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

// DocumentSettingsRepository implements SettingsRepository on the
// settings.cameras array of a storage.DB document. Null entries in that
// array are skipped.
type DocumentSettingsRepository struct {
	db *storage.DB
}

// NewDocumentSettingsRepository creates a new DocumentSettingsRepository
func NewDocumentSettingsRepository(db *storage.DB) *DocumentSettingsRepository {
	return &DocumentSettingsRepository{db: db}
}

func decodeCameraSetting(raw json.RawMessage) (*entities.CameraSetting, bool) {
	var setting *entities.CameraSetting
	if err := json.Unmarshal(raw, &setting); err != nil || setting == nil {
		return nil, false
	}
	return setting, true
}

// FindCameraSetting retrieves the first setting entry for cameraName
func (r *DocumentSettingsRepository) FindCameraSetting(ctx context.Context, cameraName string) (*entities.CameraSetting, error) {
	var found *entities.CameraSetting
	err := r.db.View(ctx, func(tx *storage.Tx) error {
		c, err := storage.Get[json.RawMessage](tx, CollectionCameraSettings)
		if err != nil {
			return fmt.Errorf("failed to read camera settings: %w", err)
		}
		for _, raw := range c.Value() {
			if setting, ok := decodeCameraSetting(raw); ok && setting.Name == cameraName {
				found = setting
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

// ListCameraSettings retrieves every camera setting
func (r *DocumentSettingsRepository) ListCameraSettings(ctx context.Context) ([]*entities.CameraSetting, error) {
	var result []*entities.CameraSetting
	err := r.db.View(ctx, func(tx *storage.Tx) error {
		c, err := storage.Get[json.RawMessage](tx, CollectionCameraSettings)
		if err != nil {
			return fmt.Errorf("failed to read camera settings: %w", err)
		}
		result = make([]*entities.CameraSetting, 0, c.Len())
		for _, raw := range c.Value() {
			if setting, ok := decodeCameraSetting(raw); ok {
				result = append(result, setting)
			}
		}
		return nil
	})
	return result, err
}

// SaveCameraSetting creates or updates the setting for setting.Name. Fields
// of an existing entry other than name and room are kept.
func (r *DocumentSettingsRepository) SaveCameraSetting(ctx context.Context, setting *entities.CameraSetting) error {
	if setting.Name == "" {
		return fmt.Errorf("camera setting name is required")
	}

	return r.db.Update(ctx, func(tx *storage.Tx) error {
		c, err := storage.Get[json.RawMessage](tx, CollectionCameraSettings)
		if err != nil {
			return fmt.Errorf("failed to read camera settings: %w", err)
		}

		items := c.Value()
		for i, raw := range items {
			existing, ok := decodeCameraSetting(raw)
			if !ok || existing.Name != setting.Name {
				continue
			}
			merged, err := mergeSetting(raw, setting)
			if err != nil {
				return err
			}
			items[i] = merged
			c.Clear()
			c.Push(items...)
			return c.Write()
		}

		data, err := json.Marshal(setting)
		if err != nil {
			return fmt.Errorf("failed to encode camera setting: %w", err)
		}
		c.Push(data)
		return c.Write()
	})
}

func mergeSetting(raw json.RawMessage, setting *entities.CameraSetting) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode camera setting: %w", err)
	}
	name, _ := json.Marshal(setting.Name)
	room, _ := json.Marshal(setting.Room)
	fields["name"] = name
	fields["room"] = room
	return json.Marshal(fields)
}
