package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where and how verbosely the service logs
type Config struct {
	Level      string `json:"level" mapstructure:"level"`
	Console    bool   `json:"console" mapstructure:"console"`
	File       string `json:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
}

// New builds a logger writing to stderr and, when File is set, to a
// rotating log file. The result also becomes the package-level zerolog
// logger so libraries logging through github.com/rs/zerolog/log share it.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var stderr io.Writer = os.Stderr
	if cfg.Console {
		stderr = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	output := stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    withDefault(cfg.MaxSizeMB, 100),
			MaxBackups: withDefault(cfg.MaxBackups, 3),
			MaxAge:     cfg.MaxAgeDays,
		}
		output = zerolog.MultiLevelWriter(fileLogger, stderr)
		closer = fileLogger
	}

	logger := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "camnotify").
		Logger()

	log.Logger = logger
	return logger, closer
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
