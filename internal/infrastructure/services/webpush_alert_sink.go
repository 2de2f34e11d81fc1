package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/pkg/config"
)

// WebPushAlertSink sends alerts as web push notifications to a fixed set of
// browser subscriptions
type WebPushAlertSink struct {
	cfg        config.WebPushConfig
	httpClient webpush.HTTPClient
	logger     zerolog.Logger
}

// NewWebPushAlertSink creates a new WebPushAlertSink
func NewWebPushAlertSink(cfg config.WebPushConfig, logger zerolog.Logger) (*WebPushAlertSink, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" || cfg.ContactEmail == "" {
		return nil, fmt.Errorf("VAPID configuration required: set vapid_public_key, vapid_private_key and contact_email")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400 // 24 hours
	}
	return &WebPushAlertSink{
		cfg:    cfg,
		logger: logger.With().Str("component", "webpush").Logger(),
	}, nil
}

// WithHTTPClient overrides the client used to reach push services
func (s *WebPushAlertSink) WithHTTPClient(client webpush.HTTPClient) *WebPushAlertSink {
	s.httpClient = client
	return s
}

func urgencyOf(urgency string) webpush.Urgency {
	switch urgency {
	case "very-low":
		return webpush.UrgencyVeryLow
	case "low":
		return webpush.UrgencyLow
	case "high":
		return webpush.UrgencyHigh
	default:
		return webpush.UrgencyNormal
	}
}

// Notify delivers the alert to every configured subscription
func (s *WebPushAlertSink) Notify(ctx context.Context, alert *entities.Alert) error {
	payload := map[string]interface{}{
		"title": alert.Title,
		"body":  alert.Message,
		"icon":  "/icon-192x192.png",
		"data":  alert,
	}
	if alert.MediaSource != "" {
		payload["image"] = alert.MediaSource
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var errs []error
	for _, sub := range s.cfg.Subscriptions {
		if err := s.send(ctx, payloadBytes, sub); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sub.Endpoint, err))
			continue
		}
		s.logger.Debug().Str("endpoint", sub.Endpoint).Str("id", alert.ID).Msg("Push notification sent")
	}
	return errors.Join(errs...)
}

func (s *WebPushAlertSink) send(ctx context.Context, payload []byte, sub config.WebPushSubscription) error {
	webpushSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	options := &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.cfg.ContactEmail,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
		Urgency:         urgencyOf(s.cfg.Urgency),
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, webpushSub, options)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}
