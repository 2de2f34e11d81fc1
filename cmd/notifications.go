package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/notification"
)

var (
	filterFrom    string
	filterTo      string
	filterCameras string
	filterLabels  string
	filterRooms   string
	filterTypes   string

	eventID        string
	eventLabel     string
	eventTimestamp int64
	eventSystem    bool
	eventTitle     string
	eventMessage   string
	eventSubtext   string
	eventCamera    string
	eventTrigger   string
	eventType      string

	confirmClear bool
)

var NotificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Manage stored notifications",
	Long:    "List, inspect, create and remove camera and system notifications",
}

var listNotificationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, most recent first",
	Long: `List stored notifications, most recent first.

Filters are combined. Allow lists are comma separated. A notification passes
the date filter when its calendar date is after --from and on or before --to.

Examples:
  camnotify notifications list --cameras "Front Door,Garage"
  camnotify notifications list --from 2024-01-01 --to 2024-01-31 -o json`,
	Args: cobra.NoArgs,
	RunE: runListNotifications,
}

var getNotificationCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one notification",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetNotification,
}

var cameraNotificationsCmd = &cobra.Command{
	Use:   "camera <name>",
	Short: "List the notifications of one camera",
	Args:  cobra.ExactArgs(1),
	RunE:  runCameraNotifications,
}

var createNotificationCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a camera or system event",
	Long: `Record a camera or system event and dispatch its alert.

Examples:
  camnotify notifications create --camera "Front Door" --trigger motion --type Video
  camnotify notifications create --system --title "Update" --message "Version 2.0 is ready"`,
	Args: cobra.NoArgs,
	RunE: runCreateNotification,
}

var removeNotificationCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a notification",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemoveNotification,
}

var clearNotificationsCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every notification",
	Args:  cobra.NoArgs,
	RunE:  runClearNotifications,
}

func init() {
	listNotificationsCmd.Flags().StringVar(&filterFrom, "from", "", "Only notifications dated after this day (YYYY-MM-DD)")
	listNotificationsCmd.Flags().StringVar(&filterTo, "to", "", "Only notifications dated on or before this day (YYYY-MM-DD, default today)")
	listNotificationsCmd.Flags().StringVar(&filterCameras, "cameras", "", "Comma separated camera names")
	listNotificationsCmd.Flags().StringVar(&filterLabels, "labels", "", "Comma separated labels")
	listNotificationsCmd.Flags().StringVar(&filterRooms, "rooms", "", "Comma separated rooms")
	listNotificationsCmd.Flags().StringVar(&filterTypes, "types", "", "Comma separated record types")

	flags := createNotificationCmd.Flags()
	flags.StringVar(&eventID, "id", "", "Notification id (generated when empty)")
	flags.StringVar(&eventLabel, "label", "", "Label (default from config)")
	flags.Int64Var(&eventTimestamp, "timestamp", 0, "Event time in epoch seconds (default now)")
	flags.BoolVar(&eventSystem, "system", false, "Record a system notification instead of a camera event")
	flags.StringVar(&eventTitle, "title", "", "System notification title")
	flags.StringVar(&eventMessage, "message", "", "System notification message")
	flags.StringVar(&eventSubtext, "subtext", "", "System notification subtext")
	flags.StringVar(&eventCamera, "camera", "", "Camera name")
	flags.StringVar(&eventTrigger, "trigger", string(entities.TriggerMotion), "Trigger (motion, doorbell, continuous)")
	flags.StringVar(&eventType, "type", string(entities.RecordTypeVideo), "Record type (Video, Snapshot)")

	clearNotificationsCmd.Flags().BoolVar(&confirmClear, "confirm", false, "Skip the confirmation prompt")

	NotificationsCmd.AddCommand(listNotificationsCmd)
	NotificationsCmd.AddCommand(getNotificationCmd)
	NotificationsCmd.AddCommand(cameraNotificationsCmd)
	NotificationsCmd.AddCommand(createNotificationCmd)
	NotificationsCmd.AddCommand(removeNotificationCmd)
	NotificationsCmd.AddCommand(clearNotificationsCmd)
}

// notificationList renders notifications as a table, JSON array or YAML list
type notificationList []*entities.Notification

func (l notificationList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]*entities.Notification(l))
}

func (l notificationList) headers() []string {
	return []string{"ID", "TIME", "KIND", "CAMERA", "ROOM", "LABEL", "TYPE", "DETAIL"}
}

func (l notificationList) rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, n := range l {
		detail := ""
		if n.IsCamera() {
			detail = n.FileName
		} else if n.SystemDetails != nil {
			detail = n.Title
		}
		rows = append(rows, []string{
			n.ID, n.Time, string(n.Kind()), n.CameraName(), n.RoomName(), n.Label, string(n.Type()), detail,
		})
	}
	return rows
}

func runListNotifications(cmd *cobra.Command, args []string) error {
	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	notifications, err := container.Store.List(cmd.Context(), notification.Filter{
		From:    filterFrom,
		To:      filterTo,
		Cameras: filterCameras,
		Labels:  filterLabels,
		Rooms:   filterRooms,
		Types:   filterTypes,
	})
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, notificationList(notifications))
}

func runGetNotification(cmd *cobra.Command, args []string) error {
	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	n, ok, err := container.Store.FindByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification not found: %s", args[0])
	}
	return render(cmd.OutOrStdout(), outputFormat, single[*entities.Notification]{value: n, table: notificationList{n}})
}

func runCameraNotifications(cmd *cobra.Command, args []string) error {
	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	notifications, err := container.Store.ListByCameraName(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, notificationList(notifications))
}

func runCreateNotification(cmd *cobra.Command, args []string) error {
	if !eventSystem && eventCamera == "" {
		return fmt.Errorf("either --camera or --system is required")
	}

	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := container.Store.Create(cmd.Context(), notification.RawEvent{
		ID:        eventID,
		Label:     eventLabel,
		Timestamp: eventTimestamp,
		System:    eventSystem,
		Title:     eventTitle,
		Message:   eventMessage,
		Subtext:   eventSubtext,
		Camera:    eventCamera,
		Trigger:   entities.Trigger(eventTrigger),
		Type:      entities.RecordType(eventType),
	})
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, single[*entities.Notification]{value: n, table: notificationList{n}})
}

func runRemoveNotification(cmd *cobra.Command, args []string) error {
	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := container.Store.RemoveByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed notification %s\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Notification %s does not exist\n", args[0])
	}
	return nil
}

func runClearNotifications(cmd *cobra.Command, args []string) error {
	if !confirmClear {
		fmt.Fprint(cmd.OutOrStdout(), "Remove every notification? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := container.Store.RemoveAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d notifications\n", count)
	return nil
}

// single renders one value as an object in json and yaml, and as a one row
// table otherwise
type single[T any] struct {
	value T
	table tabular
}

func (s single[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

func (s single[T]) headers() []string { return s.table.headers() }
func (s single[T]) rows() [][]string  { return s.table.rows() }
