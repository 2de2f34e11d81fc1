package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cronLogger adapts zerolog to cron.Logger. Cron's chatty info output goes
// to debug.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// onceSchedule fires a single time at the given instant, or immediately if
// that instant has already passed.
type onceSchedule struct {
	at    time.Time
	fired bool
}

// Next is only ever called from the cron run loop
func (s *onceSchedule) Next(t time.Time) time.Time {
	if s.fired {
		return time.Time{}
	}
	s.fired = true
	if s.at.After(t) {
		return s.at
	}
	return t
}

type expiryEntry struct {
	id  cron.EntryID
	gen uint64
}

// ExpiryScheduler runs one-shot callbacks keyed by an identifier, plus
// optional recurring jobs. Scheduling a key that is already pending
// replaces the earlier callback.
type ExpiryScheduler struct {
	cron   *cron.Cron
	parser *CronParser
	logger zerolog.Logger

	entries map[string]expiryEntry
	gen     uint64
	running bool
	mu      sync.Mutex
}

// NewExpiryScheduler creates a scheduler evaluating times in loc
func NewExpiryScheduler(loc *time.Location, logger zerolog.Logger) *ExpiryScheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	return &ExpiryScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		parser:  NewCronParser(),
		logger:  logger,
		entries: make(map[string]expiryEntry),
	}
}

// Schedule registers fn to run once at the given time under key
func (s *ExpiryScheduler) Schedule(key string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.cron.Remove(old.id)
	}

	s.gen++
	gen := s.gen
	id := s.cron.Schedule(&onceSchedule{at: at}, cron.FuncJob(func() {
		s.fire(key, gen, fn)
	}))
	s.entries[key] = expiryEntry{id: id, gen: gen}
}

func (s *ExpiryScheduler) fire(key string, gen uint64, fn func()) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok || entry.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()

	s.cron.Remove(entry.id)
	fn()
}

// Cancel removes the pending callback for key. It reports whether one existed.
func (s *ExpiryScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	s.cron.Remove(entry.id)
	return true
}

// CancelAll removes every pending one-shot callback and returns how many
// were removed. Recurring jobs are kept.
func (s *ExpiryScheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	for key, entry := range s.entries {
		s.cron.Remove(entry.id)
		delete(s.entries, key)
	}
	return n
}

// Pending reports whether a callback is registered for key
func (s *ExpiryScheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	return ok
}

// Keys returns the keys of pending one-shot callbacks in no particular order
func (s *ExpiryScheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of pending one-shot callbacks
func (s *ExpiryScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Every registers a recurring job using a cron expression or descriptor
func (s *ExpiryScheduler) Every(spec string, fn func()) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return err
	}
	s.cron.Schedule(schedule, cron.FuncJob(fn))
	return nil
}

// Start begins dispatching callbacks
func (s *ExpiryScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info().Int("pending", len(s.entries)).Msg("Expiry scheduler started")
}

// Stop halts dispatching and waits for running callbacks to finish or ctx
// to expire
func (s *ExpiryScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Expiry scheduler stopped")
}
