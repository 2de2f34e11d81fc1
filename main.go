package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/camnotify/cmd"
)

var rootCmd = &cobra.Command{
	Use:           "camnotify",
	Short:         "Camera notification event store",
	Long:          "Records camera and system events, serves filtered queries over them and expires them on schedule",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cmd.RegisterGlobalFlags(rootCmd)
	rootCmd.AddCommand(cmd.RunCmd)
	rootCmd.AddCommand(cmd.NotificationsCmd)
	rootCmd.AddCommand(cmd.CamerasCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
