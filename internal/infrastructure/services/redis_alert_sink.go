package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/pkg/config"
)

// RedisAlertSink publishes alerts as JSON on a Redis pub/sub channel
type RedisAlertSink struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisAlertSink creates a new RedisAlertSink. The connection is not
// checked until the first publish.
func NewRedisAlertSink(cfg config.RedisConfig, logger zerolog.Logger) *RedisAlertSink {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisAlertSink{
		client:  client,
		channel: cfg.Channel,
		logger:  logger.With().Str("component", "redis").Logger(),
	}
}

// Notify publishes the alert
func (s *RedisAlertSink) Notify(ctx context.Context, alert *entities.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	receivers, err := s.client.Publish(ctx, s.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", s.channel, err)
	}
	s.logger.Debug().Str("id", alert.ID).Int64("receivers", receivers).Msg("Alert published")
	return nil
}

// Close closes the Redis client
func (s *RedisAlertSink) Close() error {
	return s.client.Close()
}
