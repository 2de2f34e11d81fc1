package repositories

import (
	"context"
	"errors"

	"github.com/takutakahashi/camnotify/internal/domain/entities"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record with the same key is stored
	ErrAlreadyExists = errors.New("record already exists")
)

// NotificationRepository defines the interface for notification persistence.
// Records are kept in insertion order, oldest first.
type NotificationRepository interface {
	// FindAll returns every stored notification, most recent first
	FindAll(ctx context.Context) ([]*entities.Notification, error)

	// FindByID retrieves a notification, returning ErrNotFound if absent
	FindByID(ctx context.Context, id string) (*entities.Notification, error)

	// Append stores n and then evicts the oldest records beyond limit, in a
	// single transaction. It returns ErrAlreadyExists if n.ID is taken and
	// the evicted records otherwise. A limit <= 0 disables eviction.
	Append(ctx context.Context, n *entities.Notification, limit int) ([]*entities.Notification, error)

	// Trim evicts the oldest records beyond limit and returns them
	Trim(ctx context.Context, limit int) ([]*entities.Notification, error)

	// DeleteByID removes a notification and reports whether it existed
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteAll removes every notification and returns how many were removed
	DeleteAll(ctx context.Context) (int, error)
}
