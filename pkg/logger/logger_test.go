package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_WritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "camnotify.log")

	logger, closer := New(Config{Level: "debug", File: file})
	logger.Info().Str("camera", "Front Door").Msg("notification stored")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"camera":"Front Door"`)
	assert.Contains(t, string(data), `"service":"camnotify"`)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNew_WithoutFile(t *testing.T) {
	logger, closer := New(Config{Level: "warn", Console: true})
	assert.NoError(t, closer.Close())
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}
