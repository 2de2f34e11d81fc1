package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/pkg/config"
)

// SlackAlertSink posts alerts to a Slack incoming webhook
type SlackAlertSink struct {
	cfg        config.SlackConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewSlackAlertSink creates a new SlackAlertSink
func NewSlackAlertSink(cfg config.SlackConfig, logger zerolog.Logger) (*SlackAlertSink, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack webhook_url is required")
	}
	return &SlackAlertSink{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("component", "slack").Logger(),
	}, nil
}

// WithHTTPClient overrides the client used to reach the webhook
func (s *SlackAlertSink) WithHTTPClient(client *http.Client) *SlackAlertSink {
	s.httpClient = client
	return s
}

// buildMessage renders the alert as a webhook message with one attachment
func (s *SlackAlertSink) buildMessage(alert *entities.Alert) *slack.WebhookMessage {
	fields := []slack.AttachmentField{
		{Title: "Label", Value: alert.Label, Short: true},
		{Title: "Time", Value: alert.Time, Short: true},
	}
	if alert.CameraDetails != nil {
		fields = append(fields,
			slack.AttachmentField{Title: "Camera", Value: alert.Camera, Short: true},
			slack.AttachmentField{Title: "Room", Value: alert.Room, Short: true},
		)
	}

	color := "#439FE0"
	if alert.CameraDetails != nil {
		color = "warning"
	}

	attachment := slack.Attachment{
		Color:    color,
		Title:    alert.Title,
		Text:     alert.Message,
		Footer:   alert.Subtext,
		Fields:   fields,
		ImageURL: alert.MediaSource,
		Ts:       json.Number(strconv.FormatInt(alert.Timestamp, 10)),
	}

	return &slack.WebhookMessage{
		Username:    s.cfg.Username,
		Channel:     s.cfg.Channel,
		Text:        fmt.Sprintf("*%s*: %s", alert.Title, alert.Message),
		Attachments: []slack.Attachment{attachment},
	}
}

// Notify posts the alert
func (s *SlackAlertSink) Notify(ctx context.Context, alert *entities.Alert) error {
	msg := s.buildMessage(alert)
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.cfg.WebhookURL, s.httpClient, msg); err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	s.logger.Debug().Str("id", alert.ID).Msg("Slack alert posted")
	return nil
}
