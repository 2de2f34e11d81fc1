package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
)

// LogAlertSink writes alerts to the structured log
type LogAlertSink struct {
	logger zerolog.Logger
}

// NewLogAlertSink creates a new LogAlertSink
func NewLogAlertSink(logger zerolog.Logger) *LogAlertSink {
	return &LogAlertSink{logger: logger.With().Str("component", "alerts").Logger()}
}

// Notify logs the alert
func (s *LogAlertSink) Notify(ctx context.Context, alert *entities.Alert) error {
	event := s.logger.Info().
		Str("id", alert.ID).
		Str("title", alert.Title).
		Str("message", alert.Message).
		Bool("is_notification", alert.IsNotification)
	if alert.Subtext != "" {
		event = event.Str("subtxt", alert.Subtext)
	}
	if alert.MediaSource != "" {
		event = event.Str("media_source", alert.MediaSource)
	}
	event.Msg("Notify")
	return nil
}
