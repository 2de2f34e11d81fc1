package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/camnotify/internal/usecases/camera"
)

var cameraRoom string

var CamerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage registered cameras",
	Long:  "Register cameras and assign them to rooms. Camera events are only accepted for registered cameras.",
}

var listCamerasCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered cameras and their rooms",
	Args:  cobra.NoArgs,
	RunE:  runListCameras,
}

var addCameraCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a camera or move it to another room",
	Long: `Register a camera. Adding a camera that already exists only updates its room.

Examples:
  camnotify cameras add "Front Door" --room Hallway`,
	Args: cobra.ExactArgs(1),
	RunE: runAddCamera,
}

func init() {
	addCameraCmd.Flags().StringVar(&cameraRoom, "room", "", "Room the camera belongs to")

	CamerasCmd.AddCommand(listCamerasCmd)
	CamerasCmd.AddCommand(addCameraCmd)
}

type cameraList []*camera.View

func (l cameraList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]*camera.View(l))
}

func (l cameraList) headers() []string {
	return []string{"NAME", "ROOM"}
}

func (l cameraList) rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{c.Name, c.Room})
	}
	return rows
}

func runListCameras(cmd *cobra.Command, args []string) error {
	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	views, err := container.ListCamerasUC.Execute(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, cameraList(views))
}

func runAddCamera(cmd *cobra.Command, args []string) error {
	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	view, err := container.AddCameraUC.Execute(cmd.Context(), args[0], cameraRoom)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, single[*camera.View]{value: view, table: cameraList{view}})
}
