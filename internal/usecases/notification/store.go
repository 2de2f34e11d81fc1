package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
	"github.com/takutakahashi/camnotify/internal/usecases/ports/services"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrCameraNotFound is returned when a camera event names an unknown camera
	ErrCameraNotFound = errors.New("camera not found")
	// ErrDuplicateID is returned when a caller-supplied id is already stored
	ErrDuplicateID = errors.New("notification id already exists")
)

const (
	DefaultLimit = 100
	DefaultRoom  = "Standard"
	DefaultLabel = "no label"

	maxIDAttempts = 5
)

// Options configures a Store
type Options struct {
	// Limit is the retention bound of the collection
	Limit        int
	DefaultRoom  string
	DefaultLabel string
	// Location renders the time field and evaluates date filters
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.DefaultRoom == "" {
		o.DefaultRoom = DefaultRoom
	}
	if o.DefaultLabel == "" {
		o.DefaultLabel = DefaultLabel
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = NewID
	}
	return o
}

// RawEvent is the caller's description of a new notification
type RawEvent struct {
	// ID is generated when empty
	ID    string
	Label string
	// Timestamp in epoch seconds; zero means now
	Timestamp int64

	// System selects the system variant
	System  bool
	Title   string
	Message string
	Subtext string

	Camera  string
	Trigger entities.Trigger
	Type    entities.RecordType
}

// Store records, queries and expires notifications. It is the only writer
// of the notifications collection.
type Store struct {
	notifications repositories.NotificationRepository
	cameras       repositories.CameraRepository
	settings      repositories.SettingsRepository
	timer         services.TimerService
	alerts        services.AlertSink
	opts          Options
	logger        zerolog.Logger
}

// NewStore creates a new Store
func NewStore(
	notifications repositories.NotificationRepository,
	cameras repositories.CameraRepository,
	settings repositories.SettingsRepository,
	timer services.TimerService,
	alerts services.AlertSink,
	opts Options,
	logger zerolog.Logger,
) *Store {
	return &Store{
		notifications: notifications,
		cameras:       cameras,
		settings:      settings,
		timer:         timer,
		alerts:        alerts,
		opts:          opts.withDefaults(),
		logger:        logger.With().Str("component", "notifications").Logger(),
	}
}

// Limit returns the retention bound
func (s *Store) Limit() int {
	return s.opts.Limit
}

// List returns the notifications passing filter, most recent first
func (s *Store) List(ctx context.Context, filter Filter) ([]*entities.Notification, error) {
	all, err := s.notifications.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return applyFilters(all, filter.predicates(s.opts.Location, s.opts.Now(), s.logger)), nil
}

// ListByCameraName returns the notifications of one camera, most recent first
func (s *Store) ListByCameraName(ctx context.Context, name string) ([]*entities.Notification, error) {
	all, err := s.notifications.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*entities.Notification, 0)
	for _, n := range all {
		if n.IsCamera() && n.CameraName() == name {
			out = append(out, n)
		}
	}
	return out, nil
}

// FindByID looks up a notification. Absence is reported with ok=false.
func (s *Store) FindByID(ctx context.Context, id string) (*entities.Notification, bool, error) {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find notification %s: %w", id, err)
	}
	return n, true, nil
}

// Create builds, stores and announces a notification. Camera events for
// unknown cameras fail with ErrCameraNotFound before anything is written.
func (s *Store) Create(ctx context.Context, ev RawEvent) (*entities.Notification, error) {
	label := ev.Label
	if label == "" {
		label = s.opts.DefaultLabel
	}
	timestamp := ev.Timestamp
	if timestamp == 0 {
		timestamp = s.opts.Now().Unix()
	}

	var build func(id string) *entities.Notification
	if ev.System {
		build = func(id string) *entities.Notification {
			return entities.NewSystemNotification(id, label, timestamp, s.opts.Location, ev.Title, ev.Message)
		}
	} else {
		camera, err := s.cameras.FindByName(ctx, ev.Camera)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %q", ErrCameraNotFound, ev.Camera)
			}
			return nil, fmt.Errorf("failed to look up camera %q: %w", ev.Camera, err)
		}

		room, err := s.roomFor(ctx, camera.Name)
		if err != nil {
			return nil, err
		}

		build = func(id string) *entities.Notification {
			return entities.NewCameraNotification(id, label, timestamp, s.opts.Location, camera.Name, room, ev.Trigger, ev.Type)
		}
	}

	n, evicted, err := s.persist(ctx, ev.ID, build)
	if err != nil {
		return nil, err
	}

	s.cancelTimers(evicted)
	s.timer.SetNotification(ctx, n.ID, n.Timestamp)

	s.logger.Info().
		Str("id", n.ID).
		Str("kind", string(n.Kind())).
		Str("camera", n.CameraName()).
		Int("evicted", len(evicted)).
		Msg("Notification stored")

	s.dispatch(ctx, n, ev.Subtext)
	return n, nil
}

// roomFor resolves the configured room of a camera, falling back to the
// default room when no usable setting exists
func (s *Store) roomFor(ctx context.Context, cameraName string) (string, error) {
	setting, err := s.settings.FindCameraSetting(ctx, cameraName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.opts.DefaultRoom, nil
		}
		return "", fmt.Errorf("failed to look up settings for camera %q: %w", cameraName, err)
	}
	if setting.Room == "" {
		return s.opts.DefaultRoom, nil
	}
	return setting.Room, nil
}

// persist appends the notification, retrying generated ids on collision
func (s *Store) persist(ctx context.Context, suppliedID string, build func(id string) *entities.Notification) (*entities.Notification, []*entities.Notification, error) {
	if suppliedID != "" {
		n := build(suppliedID)
		evicted, err := s.notifications.Append(ctx, n, s.opts.Limit)
		if err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateID, suppliedID)
			}
			return nil, nil, fmt.Errorf("failed to store notification: %w", err)
		}
		return n, evicted, nil
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		n := build(s.opts.NewID())
		evicted, err := s.notifications.Append(ctx, n, s.opts.Limit)
		if err == nil {
			return n, evicted, nil
		}
		if !errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("failed to store notification: %w", err)
		}
		s.logger.Debug().Str("id", n.ID).Int("attempt", attempt).Msg("Generated id collided, retrying")
	}
	return nil, nil, fmt.Errorf("failed to allocate a unique notification id after %d attempts", maxIDAttempts)
}

// dispatch hands the alert to the sink. Delivery problems are logged only.
func (s *Store) dispatch(ctx context.Context, n *entities.Notification, subtext string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Notify(ctx, BuildAlert(n, subtext)); err != nil {
		s.logger.Warn().Err(err).Str("id", n.ID).Msg("Failed to dispatch alert")
	}
}

// BuildAlert renders the alert for a stored notification. subtext is only
// used for system notifications; camera alerts carry the room.
func BuildAlert(n *entities.Notification, subtext string) *entities.Alert {
	alert := &entities.Alert{
		ID:        n.ID,
		Label:     n.Label,
		Time:      n.Time,
		Timestamp: n.Timestamp,
		Count:     true,
	}

	if n.IsCamera() {
		details := *n.CameraDetails
		trigger := cases.Title(language.Und, cases.NoLower).String(string(details.Trigger))

		alert.Title = details.Camera
		alert.Message = fmt.Sprintf("%s Event - %s", trigger, n.Time)
		alert.Subtext = details.Room
		alert.MediaSource = n.MediaSource()
		alert.IsNotification = true
		alert.CameraDetails = &details
		return alert
	}

	if n.SystemDetails != nil {
		alert.Title = n.SystemDetails.Title
		alert.Message = n.SystemDetails.Message
	}
	alert.Subtext = subtext
	return alert
}

// RemoveByID cancels the expiry of id and deletes it. Removing an unknown
// id is not an error.
func (s *Store) RemoveByID(ctx context.Context, id string) (bool, error) {
	s.timer.RemoveNotificationTimer(id)

	removed, err := s.notifications.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove notification %s: %w", id, err)
	}
	if removed {
		s.logger.Info().Str("id", id).Msg("Notification removed")
	}
	return removed, nil
}

// RemoveAll cancels every expiry and clears the collection
func (s *Store) RemoveAll(ctx context.Context) (int, error) {
	s.timer.StopNotifications()

	n, err := s.notifications.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to remove notifications: %w", err)
	}
	s.logger.Info().Int("count", n).Msg("All notifications removed")
	return n, nil
}

// EnforceRetention evicts the oldest notifications beyond the retention
// bound and cancels their expiry
func (s *Store) EnforceRetention(ctx context.Context) ([]*entities.Notification, error) {
	evicted, err := s.notifications.Trim(ctx, s.opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to enforce retention: %w", err)
	}
	s.cancelTimers(evicted)
	if len(evicted) > 0 {
		s.logger.Info().Int("evicted", len(evicted)).Int("limit", s.opts.Limit).Msg("Retention enforced")
	}
	return evicted, nil
}

// RestoreTimers registers expiry for every stored notification. It is run
// at startup since schedules live only in memory.
func (s *Store) RestoreTimers(ctx context.Context) (int, error) {
	all, err := s.notifications.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to restore timers: %w", err)
	}
	for _, n := range all {
		s.timer.SetNotification(ctx, n.ID, n.Timestamp)
	}
	s.logger.Info().Int("count", len(all)).Msg("Notification timers restored")
	return len(all), nil
}

// SyncTimers brings timers in line with stored notifications written by
// other processes: missing expiries are set and expiries of notifications
// that are gone are cancelled.
func (s *Store) SyncTimers(ctx context.Context) (added, removed int, err error) {
	all, err := s.notifications.FindAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sync timers: %w", err)
	}

	stored := make(map[string]struct{}, len(all))
	for _, n := range all {
		stored[n.ID] = struct{}{}
		if s.timer.HasNotificationTimer(n.ID) {
			continue
		}
		s.timer.SetNotification(ctx, n.ID, n.Timestamp)
		added++
	}

	for _, id := range s.timer.PendingNotifications() {
		if _, ok := stored[id]; ok {
			continue
		}
		s.timer.RemoveNotificationTimer(id)
		removed++
	}

	if added > 0 || removed > 0 {
		s.logger.Info().Int("added", added).Int("removed", removed).Msg("Notification timers synced")
	}
	return added, removed, nil
}

func (s *Store) cancelTimers(notifications []*entities.Notification) {
	for _, n := range notifications {
		s.timer.RemoveNotificationTimer(n.ID)
	}
}
