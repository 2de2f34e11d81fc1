package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/takutakahashi/camnotify/internal/di"
	"github.com/takutakahashi/camnotify/pkg/config"
	"github.com/takutakahashi/camnotify/pkg/logger"
)

var (
	cfgFile      string
	verbose      bool
	logLevel     string
	outputFormat string
	storageType  string
	storagePath  string
	timezone     string
)

// flagBindings maps persistent flags to configuration keys. A flag that is
// set on the command line overrides the file and the environment.
var flagBindings = map[string]string{
	"log-level":    "log.level",
	"storage":      "storage.type",
	"storage-path": "storage.file_path",
	"timezone":     "notifications.timezone",
}

// RegisterGlobalFlags adds the flags shared by every command to root
func RegisterGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (yaml, json or toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	flags.StringVar(&storageType, "storage", "file", "Storage backend (memory, file, s3, sqlite, mongo)")
	flags.StringVar(&storagePath, "storage-path", "./data/db.json", "Document path for the file backend")
	flags.StringVar(&timezone, "timezone", "", "Timezone used to render notification times")
}

// loadConfig resolves configuration from defaults, the config file, the
// environment and the command line, in increasing precedence
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for flag, key := range flagBindings {
		f := cmd.Flag(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind %s flag: %w", flag, err)
		}
	}

	cfg, err := config.LoadConfig(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// openContainer loads configuration, builds the logger and wires the
// application. The returned cleanup must be called when the command ends.
func openContainer(cmd *cobra.Command) (*di.Container, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log, logCloser := logger.New(cfg.Log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := container.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to close container")
		}
		closeQuietly(log, logCloser)
	}
	return container, cleanup, nil
}

func closeQuietly(log zerolog.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close log file")
	}
}
