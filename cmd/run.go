package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the notification expiry service",
	Long: `Run the notification expiry service.

On start, expiry timers are restored for every stored notification. Expired
notifications are removed and the retention bound is enforced on the
configured schedule until SIGINT or SIGTERM is received.`,
	Args: cobra.NoArgs,
	RunE: runService,
}

func init() {
	RunCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Time allowed for running jobs to finish on shutdown")
}

func runService(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := openContainer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := container.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	container.Logger.Info().Msg("Shutdown signal received, shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	container.Scheduler.Stop(shutdownCtx)

	container.Logger.Info().Msg("Service exited")
	return nil
}
