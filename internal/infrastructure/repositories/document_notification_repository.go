package repositories

import (
	"context"
	"fmt"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

const (
	// CollectionNotifications holds notifications, oldest first
	CollectionNotifications = "notifications"
	// CollectionCameras holds registered cameras
	CollectionCameras = "cameras"
	// CollectionCameraSettings holds per-camera settings
	CollectionCameraSettings = "settings.cameras"
)

// DocumentNotificationRepository implements NotificationRepository on a
// storage.DB document
type DocumentNotificationRepository struct {
	db *storage.DB
}

// NewDocumentNotificationRepository creates a new DocumentNotificationRepository
func NewDocumentNotificationRepository(db *storage.DB) *DocumentNotificationRepository {
	return &DocumentNotificationRepository{db: db}
}

func notificationsIn(tx *storage.Tx) (*storage.Collection[*entities.Notification], error) {
	c, err := storage.Get[*entities.Notification](tx, CollectionNotifications)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return c, nil
}

func notNil(n *entities.Notification) bool { return n != nil }

// FindAll returns every stored notification, most recent first
func (r *DocumentNotificationRepository) FindAll(ctx context.Context) ([]*entities.Notification, error) {
	var result []*entities.Notification
	err := r.db.View(ctx, func(tx *storage.Tx) error {
		c, err := notificationsIn(tx)
		if err != nil {
			return err
		}
		result = make([]*entities.Notification, 0, c.Len())
		for _, n := range c.Reverse() {
			if notNil(n) {
				result = append(result, n)
			}
		}
		return nil
	})
	return result, err
}

// FindByID retrieves a notification by its ID
func (r *DocumentNotificationRepository) FindByID(ctx context.Context, id string) (*entities.Notification, error) {
	var found *entities.Notification
	err := r.db.View(ctx, func(tx *storage.Tx) error {
		c, err := notificationsIn(tx)
		if err != nil {
			return err
		}
		n, ok := c.Find(func(n *entities.Notification) bool { return notNil(n) && n.ID == id })
		if !ok {
			return repositories.ErrNotFound
		}
		found = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Append stores n and trims the collection to limit in one transaction
func (r *DocumentNotificationRepository) Append(ctx context.Context, n *entities.Notification, limit int) ([]*entities.Notification, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notification: %w", err)
	}

	var evicted []*entities.Notification
	err := r.db.Update(ctx, func(tx *storage.Tx) error {
		c, err := notificationsIn(tx)
		if err != nil {
			return err
		}
		if _, exists := c.Find(func(existing *entities.Notification) bool { return notNil(existing) && existing.ID == n.ID }); exists {
			return fmt.Errorf("notification %s: %w", n.ID, repositories.ErrAlreadyExists)
		}

		c.Push(n)
		evicted = dropOverflow(c, limit)
		return c.Write()
	})
	if err != nil {
		return nil, err
	}
	return evicted, nil
}

// Trim evicts the oldest notifications beyond limit
func (r *DocumentNotificationRepository) Trim(ctx context.Context, limit int) ([]*entities.Notification, error) {
	var evicted []*entities.Notification
	err := r.db.Update(ctx, func(tx *storage.Tx) error {
		c, err := notificationsIn(tx)
		if err != nil {
			return err
		}
		evicted = dropOverflow(c, limit)
		if len(evicted) == 0 {
			return nil
		}
		return c.Write()
	})
	if err != nil {
		return nil, err
	}
	return evicted, nil
}

func dropOverflow(c *storage.Collection[*entities.Notification], limit int) []*entities.Notification {
	if limit <= 0 || c.Len() <= limit {
		return nil
	}
	dropped := c.DropFirst(c.Len() - limit)
	out := make([]*entities.Notification, 0, len(dropped))
	for _, n := range dropped {
		if notNil(n) {
			out = append(out, n)
		}
	}
	return out
}

// DeleteByID removes a notification
func (r *DocumentNotificationRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := r.db.Update(ctx, func(tx *storage.Tx) error {
		c, err := notificationsIn(tx)
		if err != nil {
			return err
		}
		gone := c.Remove(func(n *entities.Notification) bool { return notNil(n) && n.ID == id })
		if len(gone) == 0 {
			return nil
		}
		removed = true
		return c.Write()
	})
	return removed, err
}

// DeleteAll removes every notification
func (r *DocumentNotificationRepository) DeleteAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.Update(ctx, func(tx *storage.Tx) error {
		c, err := notificationsIn(tx)
		if err != nil {
			return err
		}
		count = len(c.Clear())
		return c.Write()
	})
	return count, err
}
