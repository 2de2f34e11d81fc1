package camera

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	infraRepos "github.com/takutakahashi/camnotify/internal/infrastructure/repositories"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

func newUseCases() (*AddCameraUseCase, *ListCamerasUseCase) {
	db := storage.Open(storage.NewMemoryBackend(nil))
	cameras := infraRepos.NewDocumentCameraRepository(db)
	settings := infraRepos.NewDocumentSettingsRepository(db)
	return NewAddCameraUseCase(cameras, settings, zerolog.Nop()),
		NewListCamerasUseCase(cameras, settings, "Standard")
}

func TestAddAndListCameras(t *testing.T) {
	ctx := context.Background()
	add, list := newUseCases()

	view, err := add.Execute(ctx, " Front Door ", "Hallway")
	require.NoError(t, err)
	assert.Equal(t, &View{Name: "Front Door", Room: "Hallway"}, view)

	view, err = add.Execute(ctx, "Garage", "")
	require.NoError(t, err)
	assert.Equal(t, "", view.Room)

	views, err := list.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*View{
		{Name: "Front Door", Room: "Hallway"},
		{Name: "Garage", Room: "Standard"},
	}, views)
}

func TestAddCamera_Existing(t *testing.T) {
	ctx := context.Background()
	add, list := newUseCases()

	_, err := add.Execute(ctx, "Front Door", "Hallway")
	require.NoError(t, err)

	// Re-adding moves the camera without duplicating it
	view, err := add.Execute(ctx, "Front Door", "Porch")
	require.NoError(t, err)
	assert.Equal(t, "Porch", view.Room)

	// An empty room keeps the current one
	view, err = add.Execute(ctx, "Front Door", "")
	require.NoError(t, err)
	assert.Equal(t, "Porch", view.Room)

	views, err := list.Execute(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Porch", views[0].Room)
}

func TestAddCamera_InvalidName(t *testing.T) {
	add, _ := newUseCases()

	_, err := add.Execute(context.Background(), "   ", "Hallway")
	assert.ErrorIs(t, err, ErrInvalidName)
}
