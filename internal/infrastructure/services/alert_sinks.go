package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
	portServices "github.com/takutakahashi/camnotify/internal/usecases/ports/services"
)

// NamedSink pairs an AlertSink with a name used in logs and errors
type NamedSink struct {
	Name string
	Sink portServices.AlertSink
}

// FanOutAlertSink delivers every alert to all of its sinks. A failing sink
// does not stop delivery to the others.
type FanOutAlertSink struct {
	sinks []NamedSink
}

// NewFanOutAlertSink creates a new FanOutAlertSink
func NewFanOutAlertSink(sinks ...NamedSink) *FanOutAlertSink {
	return &FanOutAlertSink{sinks: sinks}
}

// Len returns the number of sinks
func (f *FanOutAlertSink) Len() int {
	return len(f.sinks)
}

// Notify delivers alert to every sink and joins their errors
func (f *FanOutAlertSink) Notify(ctx context.Context, alert *entities.Alert) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Sink.Notify(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// AsyncAlertSink queues alerts and delivers them from a background worker,
// so a slow sink never blocks event creation. Alerts that arrive while the
// queue is full are dropped.
type AsyncAlertSink struct {
	next    portServices.AlertSink
	queue   chan *entities.Alert
	timeout time.Duration
	logger  zerolog.Logger

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// ErrQueueFull is returned when an alert cannot be queued
var ErrQueueFull = errors.New("alert queue is full")

// NewAsyncAlertSink creates a new AsyncAlertSink in front of next
func NewAsyncAlertSink(next portServices.AlertSink, queueSize int, logger zerolog.Logger) *AsyncAlertSink {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &AsyncAlertSink{
		next:    next,
		queue:   make(chan *entities.Alert, queueSize),
		timeout: 30 * time.Second,
		logger:  logger.With().Str("component", "alert_worker").Logger(),
		stopCh:  make(chan struct{}),
	}
}

// Notify queues the alert
func (a *AsyncAlertSink) Notify(ctx context.Context, alert *entities.Alert) error {
	select {
	case a.queue <- alert:
		return nil
	default:
		a.logger.Warn().Str("id", alert.ID).Msg("Alert queue full, dropping alert")
		return ErrQueueFull
	}
}

// Start begins the delivery loop
func (a *AsyncAlertSink) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true

	a.wg.Add(1)
	go a.run()
	a.logger.Debug().Int("queue_size", cap(a.queue)).Msg("Started")
}

// Stop delivers the alerts still queued, then stops the delivery loop
func (a *AsyncAlertSink) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	close(a.stopCh)
	a.wg.Wait()
	a.logger.Debug().Msg("Stopped")
}

func (a *AsyncAlertSink) run() {
	defer a.wg.Done()

	for {
		select {
		case alert := <-a.queue:
			a.deliver(alert)
		case <-a.stopCh:
			for {
				select {
				case alert := <-a.queue:
					a.deliver(alert)
				default:
					return
				}
			}
		}
	}
}

func (a *AsyncAlertSink) deliver(alert *entities.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.next.Notify(ctx, alert); err != nil {
		a.logger.Warn().Err(err).Str("id", alert.ID).Msg("Failed to deliver alert")
	}
}
