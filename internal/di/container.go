package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/infrastructure/repositories"
	"github.com/takutakahashi/camnotify/internal/infrastructure/services"
	"github.com/takutakahashi/camnotify/internal/usecases/camera"
	"github.com/takutakahashi/camnotify/internal/usecases/notification"
	repositories_ports "github.com/takutakahashi/camnotify/internal/usecases/ports/repositories"
	services_ports "github.com/takutakahashi/camnotify/internal/usecases/ports/services"
	"github.com/takutakahashi/camnotify/pkg/config"
	"github.com/takutakahashi/camnotify/pkg/schedule"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

const sweepTimeout = 5 * time.Minute

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger zerolog.Logger

	// Storage
	Backend storage.Backend
	DB      *storage.DB

	// Repositories
	NotificationRepo repositories_ports.NotificationRepository
	CameraRepo       repositories_ports.CameraRepository
	SettingsRepo     repositories_ports.SettingsRepository

	// Services
	Scheduler *schedule.ExpiryScheduler
	Timer     *services.CronTimerService
	Alerts    services_ports.AlertSink

	// Use Cases
	Store         *notification.Store
	AddCameraUC   *camera.AddCameraUseCase
	ListCamerasUC *camera.ListCamerasUseCase

	alertWorker *services.AsyncAlertSink
	closers     []io.Closer
}

// NewContainer creates and configures a new dependency injection container.
// The scheduler is not started; call Start for long running processes.
func NewContainer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initStorage(ctx); err != nil {
		return nil, err
	}

	c.initRepositories()

	if err := c.initServices(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	c.initUseCases()

	return c, nil
}

// initStorage opens the configured document backend
func (c *Container) initStorage(ctx context.Context) error {
	backend, err := storage.NewBackend(ctx, &c.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Backend = backend
	c.DB = storage.Open(backend)
	c.Logger.Debug().Str("type", c.Config.Storage.Type).Msg("Storage initialized")
	return nil
}

// initRepositories initializes all repository dependencies
func (c *Container) initRepositories() {
	c.NotificationRepo = repositories.NewDocumentNotificationRepository(c.DB)
	c.CameraRepo = repositories.NewDocumentCameraRepository(c.DB)
	c.SettingsRepo = repositories.NewDocumentSettingsRepository(c.DB)
}

// initServices initializes the scheduler, timer and alert sinks
func (c *Container) initServices() error {
	loc, err := c.Config.Location()
	if err != nil {
		return err
	}

	c.Scheduler = schedule.NewExpiryScheduler(loc, c.Logger)
	c.Timer = services.NewCronTimerService(c.Scheduler, c.Config.Timer.TTL, c.Logger)

	sinks, err := c.buildAlertSinks()
	if err != nil {
		return err
	}
	fanOut := services.NewFanOutAlertSink(sinks...)
	c.alertWorker = services.NewAsyncAlertSink(fanOut, c.Config.Alerts.QueueSize, c.Logger)
	c.alertWorker.Start()
	c.Alerts = c.alertWorker

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name)
	}
	c.Logger.Debug().Int("count", fanOut.Len()).Strs("sinks", names).Msg("Alert sinks initialized")
	return nil
}

func (c *Container) buildAlertSinks() ([]services.NamedSink, error) {
	alerts := c.Config.Alerts
	var sinks []services.NamedSink

	if alerts.Log {
		sinks = append(sinks, services.NamedSink{Name: "log", Sink: services.NewLogAlertSink(c.Logger)})
	}

	if alerts.WebPush.Enabled {
		sink, err := services.NewWebPushAlertSink(alerts.WebPush, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize web push alerts: %w", err)
		}
		sinks = append(sinks, services.NamedSink{Name: "webpush", Sink: sink})
	}

	if alerts.Slack.Enabled {
		sink, err := services.NewSlackAlertSink(alerts.Slack, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize slack alerts: %w", err)
		}
		sinks = append(sinks, services.NamedSink{Name: "slack", Sink: sink})
	}

	if alerts.Redis.Enabled {
		sink := services.NewRedisAlertSink(alerts.Redis, c.Logger)
		c.closers = append(c.closers, sink)
		sinks = append(sinks, services.NamedSink{Name: "redis", Sink: sink})
	}

	return sinks, nil
}

// initUseCases initializes all use case dependencies
func (c *Container) initUseCases() {
	loc, _ := c.Config.Location()

	c.Store = notification.NewStore(
		c.NotificationRepo,
		c.CameraRepo,
		c.SettingsRepo,
		c.Timer,
		c.Alerts,
		notification.Options{
			Limit:        c.Config.Notifications.Limit,
			DefaultRoom:  c.Config.Notifications.DefaultRoom,
			DefaultLabel: c.Config.Notifications.DefaultLabel,
			Location:     loc,
		},
		c.Logger,
	)

	// Other processes may write the document, so expiry works on fresh state
	c.Timer.OnExpire(func(ctx context.Context, id string) {
		if err := c.DB.Reload(ctx); err != nil {
			c.Logger.Warn().Err(err).Msg("Failed to reload storage before expiry")
		}
		if _, err := c.Store.RemoveByID(ctx, id); err != nil {
			c.Logger.Error().Err(err).Str("id", id).Msg("Failed to remove expired notification")
		}
	})

	c.AddCameraUC = camera.NewAddCameraUseCase(c.CameraRepo, c.SettingsRepo, c.Logger)
	c.ListCamerasUC = camera.NewListCamerasUseCase(c.CameraRepo, c.SettingsRepo, c.Config.Notifications.DefaultRoom)
}

// Start restores expiry timers for stored notifications, registers the
// retention sweep and timer sync jobs and starts the scheduler
func (c *Container) Start(ctx context.Context) error {
	restored, err := c.Store.RestoreTimers(ctx)
	if err != nil {
		return err
	}

	loc, _ := c.Config.Location()
	var nextSweep time.Time

	if spec := c.Config.Timer.RetentionSweep; spec != "" {
		err := c.Scheduler.Every(spec, func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			defer cancel()
			c.sweep(sweepCtx)
		})
		if err != nil {
			return fmt.Errorf("invalid retention sweep schedule %q: %w", spec, err)
		}
		if next, err := schedule.NewCronParser().Next(spec, loc, time.Now()); err == nil {
			nextSweep = next
		}
	}

	// Notifications created by other commands only reach this scheduler
	// through the shared document
	if spec := c.Config.Timer.Sync; spec != "" && c.Timer.Enabled() {
		err := c.Scheduler.Every(spec, func() {
			syncCtx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			defer cancel()
			c.syncTimers(syncCtx)
		})
		if err != nil {
			return fmt.Errorf("invalid timer sync schedule %q: %w", spec, err)
		}
	}

	c.Scheduler.Start()
	c.Logger.Info().
		Int("timers", restored).
		Time("next_sweep", nextSweep).
		Dur("ttl", c.Config.Timer.TTL).
		Str("retention_sweep", c.Config.Timer.RetentionSweep).
		Str("timer_sync", c.Config.Timer.Sync).
		Msg("Notification service started")
	return nil
}

func (c *Container) sweep(ctx context.Context) {
	if err := c.DB.Reload(ctx); err != nil {
		c.Logger.Warn().Err(err).Msg("Failed to reload storage before retention sweep")
		return
	}
	if _, err := c.Store.EnforceRetention(ctx); err != nil {
		c.Logger.Error().Err(err).Msg("Retention sweep failed")
	}
}

func (c *Container) syncTimers(ctx context.Context) {
	if err := c.DB.Reload(ctx); err != nil {
		c.Logger.Warn().Err(err).Msg("Failed to reload storage before timer sync")
		return
	}
	if _, _, err := c.Store.SyncTimers(ctx); err != nil {
		c.Logger.Error().Err(err).Msg("Timer sync failed")
		return
	}
	c.Logger.Debug().Int("pending", c.Scheduler.Len()).Msg("Timer sync finished")
}

// Close stops the scheduler, delivers queued alerts and releases storage
func (c *Container) Close(ctx context.Context) error {
	if c.Scheduler != nil {
		c.Scheduler.Stop(ctx)
	}
	if c.alertWorker != nil {
		c.alertWorker.Stop()
	}

	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
