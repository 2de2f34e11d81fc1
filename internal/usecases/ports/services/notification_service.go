package services

import (
	"context"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
)

// TimerService schedules the expiry of stored notifications
type TimerService interface {
	// SetNotification schedules expiry of notification id created at
	// timestamp, replacing any earlier schedule for the same id
	SetNotification(ctx context.Context, id string, timestamp int64)

	// RemoveNotificationTimer cancels the expiry of id. Unknown ids are ignored.
	RemoveNotificationTimer(id string)

	// StopNotifications cancels every pending expiry
	StopNotifications()

	// HasNotificationTimer reports whether an expiry is pending for id
	HasNotificationTimer(id string) bool

	// PendingNotifications returns the ids with a pending expiry
	PendingNotifications() []string
}

// AlertSink delivers a human-readable copy of a notification
type AlertSink interface {
	Notify(ctx context.Context, alert *entities.Alert) error
}
