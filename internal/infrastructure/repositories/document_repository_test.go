package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

func newTestDB(t *testing.T, seed string) (*storage.DB, *storage.MemoryBackend) {
	t.Helper()
	state := storage.State{}
	if seed != "" {
		require.NoError(t, json.Unmarshal([]byte(seed), &state))
	}
	backend := storage.NewMemoryBackend(state)
	return storage.Open(backend), backend
}

func systemNotification(id string) *entities.Notification {
	return entities.NewSystemNotification(id, "no label", 1700000000, time.UTC, "title", "message")
}

func TestDocumentNotificationRepository_AppendAndFind(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "")
	repo := NewDocumentNotificationRepository(db)

	for i := 0; i < 3; i++ {
		evicted, err := repo.Append(ctx, systemNotification(fmt.Sprintf("id%d", i)), 10)
		require.NoError(t, err)
		assert.Empty(t, evicted)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "id2", all[0].ID, "most recent first")
	assert.Equal(t, "id0", all[2].ID)

	found, err := repo.FindByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "id1", found.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDocumentNotificationRepository_AppendDuplicate(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "")
	repo := NewDocumentNotificationRepository(db)

	_, err := repo.Append(ctx, systemNotification("dup"), 10)
	require.NoError(t, err)

	_, err = repo.Append(ctx, systemNotification("dup"), 10)
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDocumentNotificationRepository_AppendRejectsInvalid(t *testing.T) {
	db, _ := newTestDB(t, "")
	repo := NewDocumentNotificationRepository(db)

	_, err := repo.Append(context.Background(), &entities.Notification{ID: "x"}, 10)
	assert.Error(t, err)
}

func TestDocumentNotificationRepository_AppendEvictsOldest(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "")
	repo := NewDocumentNotificationRepository(db)

	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, systemNotification(fmt.Sprintf("id%d", i)), 3)
		require.NoError(t, err)
	}

	evicted, err := repo.Append(ctx, systemNotification("id3"), 3)
	require.NoError(t, err)
	require.Len(t, evicted, 1)
	assert.Equal(t, "id0", evicted[0].ID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"id3", "id2", "id1"}, ids(all))
}

func TestDocumentNotificationRepository_Trim(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "")
	repo := NewDocumentNotificationRepository(db)

	for i := 0; i < 5; i++ {
		_, err := repo.Append(ctx, systemNotification(fmt.Sprintf("id%d", i)), 0)
		require.NoError(t, err)
	}

	evicted, err := repo.Trim(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id0", "id1", "id2"}, ids(evicted))

	evicted, err = repo.Trim(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, evicted)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id4", "id3"}, ids(all))
}

func TestDocumentNotificationRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, "")
	repo := NewDocumentNotificationRepository(db)

	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.Append(ctx, systemNotification(id), 10)
		require.NoError(t, err)
	}

	removed, err := repo.DeleteByID(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteByID(ctx, "b")
	require.NoError(t, err)
	assert.False(t, removed)

	count, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDocumentNotificationRepository_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewSQLiteBackend(filepath.Join(t.TempDir(), "camnotify.db"))
	require.NoError(t, err)
	db := storage.Open(backend)
	defer db.Close()

	repo := NewDocumentNotificationRepository(db)
	camera := entities.NewCameraNotification("abc123def0", "no label", 1700000000, time.UTC, "Front Door", "Standard", entities.TriggerMotion, entities.RecordTypeVideo)
	_, err = repo.Append(ctx, camera, 100)
	require.NoError(t, err)

	// A fresh DB on the same backend sees the persisted record
	reopened := NewDocumentNotificationRepository(storage.Open(backend))
	found, err := reopened.FindByID(ctx, "abc123def0")
	require.NoError(t, err)
	require.True(t, found.IsCamera())
	assert.Equal(t, "Front_Door-abc123def0-1700000000_m_CUI.mp4", found.FileName)
}

func TestDocumentCameraRepository(t *testing.T) {
	ctx := context.Background()
	db, backend := newTestDB(t, `{"cameras":[{"name":"Front Door","videoConfig":{"source":"rtsp://cam"}},null]}`)
	repo := NewDocumentCameraRepository(db)

	camera, err := repo.FindByName(ctx, "Front Door")
	require.NoError(t, err)
	assert.Equal(t, "Front Door", camera.Name)

	_, err = repo.FindByName(ctx, "front door")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &entities.Camera{Name: "Garage"}))
	err = repo.Save(ctx, &entities.Camera{Name: "Garage"})
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)
	assert.Error(t, repo.Save(ctx, &entities.Camera{}))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Garage", all[1].Name)

	state, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(state["cameras"]), `"videoConfig"`, "unknown camera fields are preserved")
}

func TestDocumentSettingsRepository(t *testing.T) {
	ctx := context.Background()
	db, backend := newTestDB(t, `{"settings":{"theme":"dark","cameras":[null,{"name":"Front Door","room":"Hallway","rotate":90}]}}`)
	repo := NewDocumentSettingsRepository(db)

	setting, err := repo.FindCameraSetting(ctx, "Front Door")
	require.NoError(t, err)
	assert.Equal(t, "Hallway", setting.Room)

	_, err = repo.FindCameraSetting(ctx, "Garage")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.SaveCameraSetting(ctx, &entities.CameraSetting{Name: "Front Door", Room: "Porch"}))
	require.NoError(t, repo.SaveCameraSetting(ctx, &entities.CameraSetting{Name: "Garage", Room: "Outside"}))
	assert.Error(t, repo.SaveCameraSetting(ctx, &entities.CameraSetting{}))

	settings, err := repo.ListCameraSettings(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "Porch", settings[0].Room)
	assert.Equal(t, "Outside", settings[1].Room)

	state, err := backend.Load(ctx)
	require.NoError(t, err)
	var stored struct {
		Theme   string                       `json:"theme"`
		Cameras []map[string]json.RawMessage `json:"cameras"`
	}
	require.NoError(t, json.Unmarshal(state["settings"], &stored))
	assert.Equal(t, "dark", stored.Theme)
	require.Len(t, stored.Cameras, 3)
	assert.Nil(t, stored.Cameras[0])
	assert.JSONEq(t, `90`, string(stored.Cameras[1]["rotate"]))
}

func TestDocumentSettingsRepository_MissingSettings(t *testing.T) {
	db, _ := newTestDB(t, "")
	repo := NewDocumentSettingsRepository(db)

	_, err := repo.FindCameraSetting(context.Background(), "Front Door")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	settings, err := repo.ListCameraSettings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings)
}

func ids(notifications []*entities.Notification) []string {
	out := make([]string, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, n.ID)
	}
	return out
}
