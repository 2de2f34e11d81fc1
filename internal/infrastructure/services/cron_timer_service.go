package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/pkg/schedule"
)

// ExpireFunc is called when a notification's time to live has passed
type ExpireFunc func(ctx context.Context, id string)

// CronTimerService implements TimerService on an ExpiryScheduler. A
// notification expires ttl after its timestamp; a zero ttl disables expiry.
type CronTimerService struct {
	scheduler *schedule.ExpiryScheduler
	ttl       time.Duration
	timeout   time.Duration
	logger    zerolog.Logger

	onExpire ExpireFunc
	mu       sync.RWMutex
}

// NewCronTimerService creates a new CronTimerService
func NewCronTimerService(scheduler *schedule.ExpiryScheduler, ttl time.Duration, logger zerolog.Logger) *CronTimerService {
	return &CronTimerService{
		scheduler: scheduler,
		ttl:       ttl,
		timeout:   30 * time.Second,
		logger:    logger.With().Str("component", "timer").Logger(),
	}
}

// OnExpire sets the callback run for expired notifications
func (s *CronTimerService) OnExpire(fn ExpireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Enabled reports whether notifications expire at all
func (s *CronTimerService) Enabled() bool {
	return s.ttl > 0
}

// SetNotification schedules expiry of id at timestamp + ttl
func (s *CronTimerService) SetNotification(ctx context.Context, id string, timestamp int64) {
	if !s.Enabled() {
		return
	}

	at := time.Unix(timestamp, 0).Add(s.ttl)
	s.scheduler.Schedule(id, at, func() { s.expire(id) })
	s.logger.Debug().Str("id", id).Time("expires_at", at).Msg("Notification timer set")
}

func (s *CronTimerService) expire(id string) {
	s.mu.RLock()
	fn := s.onExpire
	s.mu.RUnlock()

	if fn == nil {
		s.logger.Warn().Str("id", id).Msg("Notification expired but no handler is registered")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info().Str("id", id).Msg("Notification expired")
	fn(ctx, id)
}

// RemoveNotificationTimer cancels the expiry of id
func (s *CronTimerService) RemoveNotificationTimer(id string) {
	if s.scheduler.Cancel(id) {
		s.logger.Debug().Str("id", id).Msg("Notification timer removed")
	}
}

// StopNotifications cancels every pending expiry
func (s *CronTimerService) StopNotifications() {
	n := s.scheduler.CancelAll()
	s.logger.Debug().Int("count", n).Msg("Notification timers cleared")
}

// HasNotificationTimer reports whether an expiry is pending for id
func (s *CronTimerService) HasNotificationTimer(id string) bool {
	return s.scheduler.Pending(id)
}

// PendingNotifications returns the ids with a pending expiry
func (s *CronTimerService) PendingNotifications() []string {
	return s.scheduler.Keys()
}
