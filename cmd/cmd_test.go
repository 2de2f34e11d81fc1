package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "camnotify", SilenceUsage: true, SilenceErrors: true}
	RegisterGlobalFlags(root)
	root.AddCommand(RunCmd, NotificationsCmd, CamerasCmd)
	resetFlags(root)
	return root
}

// execute runs the CLI against a document file in dir
func execute(t *testing.T, ctx context.Context, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--storage", "file",
		"--storage-path", filepath.Join(dir, "db.json"),
		"--timezone", "UTC",
		"--log-level", "error",
	}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range NotificationsCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "get", "camera", "create", "remove", "clear"}, names)

	names = nil
	for _, c := range CamerasCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "add"}, names)

	trigger := createNotificationCmd.Flags().Lookup("trigger")
	require.NotNil(t, trigger)
	assert.Equal(t, "motion", trigger.DefValue)
}

func TestNotificationLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	out, err := execute(t, ctx, dir, "", "cameras", "add", "Front Door", "--room", "Hallway", "-o", "json")
	require.NoError(t, err)
	var view map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Hallway", view["room"])

	out, err = execute(t, ctx, dir, "", "notifications", "create",
		"--camera", "Front Door", "--id", "abc123def0", "--timestamp", "1700000000", "-o", "json")
	require.NoError(t, err)
	var created entities.Notification
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Front_Door-abc123def0-1700000000_m_CUI.mp4", created.FileName)
	assert.Equal(t, "2023-11-14 22:13:20", created.Time)
	assert.Equal(t, "Hallway", created.Room)

	_, err = execute(t, ctx, dir, "", "notifications", "create", "--system", "--title", "Update", "--message", "ready", "--id", "sys0000001")
	require.NoError(t, err)

	out, err = execute(t, ctx, dir, "", "notifications", "list", "-o", "json")
	require.NoError(t, err)
	var listed []entities.Notification
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "sys0000001", listed[0].ID)

	out, err = execute(t, ctx, dir, "", "notifications", "list", "--cameras", "Front Door", "-o", "json")
	require.NoError(t, err)
	listed = nil
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "abc123def0", listed[0].ID)

	out, err = execute(t, ctx, dir, "", "notifications", "camera", "Garage", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = execute(t, ctx, dir, "", "notifications", "get", "abc123def0")
	require.NoError(t, err)
	assert.Contains(t, out, "abc123def0")
	assert.Contains(t, out, "Hallway")

	_, err = execute(t, ctx, dir, "", "notifications", "get", "missing")
	assert.Error(t, err)

	out, err = execute(t, ctx, dir, "", "notifications", "remove", "abc123def0")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed notification abc123def0")

	out, err = execute(t, ctx, dir, "", "notifications", "remove", "abc123def0")
	require.NoError(t, err)
	assert.Contains(t, out, "does not exist")

	out, err = execute(t, ctx, dir, "n\n", "notifications", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = execute(t, ctx, dir, "", "notifications", "clear", "--confirm")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 notifications")

	out, err = execute(t, ctx, dir, "", "notifications", "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestCreateNotificationErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := execute(t, ctx, dir, "", "notifications", "create")
	assert.Error(t, err)

	_, err = execute(t, ctx, dir, "", "notifications", "create", "--camera", "Garage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera not found")
}

func TestCamerasListFormats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := execute(t, ctx, dir, "", "cameras", "add", "Garage")
	require.NoError(t, err)

	out, err := execute(t, ctx, dir, "", "cameras", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Garage")
	assert.Contains(t, out, "Standard")

	out, err = execute(t, ctx, dir, "", "cameras", "list", "-o", "yaml")
	require.NoError(t, err)
	var views []map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, map[string]string{"name": "Garage", "room": "Standard"}, views[0])

	_, err = execute(t, ctx, dir, "", "cameras", "list", "-o", "xml")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, context.Background(), t.TempDir(), "", "--timezone", "Mars/Olympus", "cameras", "list")
	assert.Error(t, err)

	_, err = execute(t, context.Background(), t.TempDir(), "", "--config", "/nonexistent/camnotify.yaml", "cameras", "list")
	assert.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, t.TempDir(), "", "run", "--shutdown-timeout", "1s")
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestToYAMLKeepsFieldOrder(t *testing.T) {
	n := entities.NewSystemNotification("abc", "no label", 1700000000, time.UTC, "true", "hello")
	out, err := toYAML(n)
	require.NoError(t, err)

	text := string(out)
	assert.Less(t, strings.Index(text, "id:"), strings.Index(text, "label:"))
	assert.Contains(t, text, `title: "true"`)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "true", decoded["title"])
	assert.Equal(t, 1700000000, decoded["timestamp"])
}
