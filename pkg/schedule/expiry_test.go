package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *ExpiryScheduler {
	t.Helper()
	s := NewExpiryScheduler(time.UTC, zerolog.Nop())
	s.Start()
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

func TestOnceSchedule(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	future := &onceSchedule{at: now.Add(time.Hour)}
	assert.Equal(t, now.Add(time.Hour), future.Next(now))
	assert.True(t, future.Next(now).IsZero(), "fires only once")

	past := &onceSchedule{at: now.Add(-time.Hour)}
	assert.Equal(t, now, past.Next(now))
}

func TestExpiryScheduler_Fires(t *testing.T) {
	s := newTestScheduler(t)

	var calls int32
	s.Schedule("a", time.Now().Add(50*time.Millisecond), func() { atomic.AddInt32(&calls, 1) })
	assert.True(t, s.Pending("a"))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.False(t, s.Pending("a"))
	assert.Equal(t, 0, s.Len())
}

func TestExpiryScheduler_PastTimeFiresImmediately(t *testing.T) {
	s := newTestScheduler(t)

	done := make(chan struct{})
	s.Schedule("old", time.Now().Add(-time.Hour), func() { close(done) })

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("callback for past time did not fire")
	}
}

func TestExpiryScheduler_RescheduleReplaces(t *testing.T) {
	s := newTestScheduler(t)

	var first, second int32
	s.Schedule("a", time.Now().Add(100*time.Millisecond), func() { atomic.AddInt32(&first, 1) })
	s.Schedule("a", time.Now().Add(150*time.Millisecond), func() { atomic.AddInt32(&second, 1) })
	assert.Equal(t, 1, s.Len())

	require.Eventually(t, func() bool { return atomic.LoadInt32(&second) == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
}

func TestExpiryScheduler_Cancel(t *testing.T) {
	s := newTestScheduler(t)

	var calls int32
	s.Schedule("a", time.Now().Add(100*time.Millisecond), func() { atomic.AddInt32(&calls, 1) })
	assert.True(t, s.Cancel("a"))
	assert.False(t, s.Cancel("a"))
	assert.False(t, s.Cancel("missing"))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestExpiryScheduler_CancelAll(t *testing.T) {
	s := newTestScheduler(t)

	var calls int32
	for _, key := range []string{"a", "b", "c"} {
		s.Schedule(key, time.Now().Add(100*time.Millisecond), func() { atomic.AddInt32(&calls, 1) })
	}
	assert.Equal(t, 3, s.CancelAll())
	assert.Equal(t, 0, s.CancelAll())

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestExpiryScheduler_ScheduledBeforeStart(t *testing.T) {
	s := NewExpiryScheduler(time.UTC, zerolog.Nop())

	done := make(chan struct{})
	s.Schedule("a", time.Now().Add(20*time.Millisecond), func() { close(done) })

	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("callback scheduled before start did not fire")
	}
}

func TestExpiryScheduler_PanicRecovered(t *testing.T) {
	s := newTestScheduler(t)

	done := make(chan struct{})
	s.Schedule("boom", time.Now(), func() { panic("boom") })
	s.Schedule("ok", time.Now().Add(50*time.Millisecond), func() { close(done) })

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler stopped after a panicking callback")
	}
}

func TestExpiryScheduler_Every(t *testing.T) {
	s := NewExpiryScheduler(time.UTC, zerolog.Nop())
	assert.Error(t, s.Every("not a spec", func() {}))
	assert.NoError(t, s.Every("@hourly", func() {}))
	assert.Equal(t, 0, s.Len(), "recurring jobs are not counted as pending expiries")
}

func TestExpiryScheduler_Keys(t *testing.T) {
	s := NewExpiryScheduler(time.UTC, zerolog.Nop())
	assert.Empty(t, s.Keys())

	s.Schedule("a", time.Now().Add(time.Hour), func() {})
	s.Schedule("b", time.Now().Add(time.Hour), func() {})
	s.Schedule("a", time.Now().Add(2*time.Hour), func() {})
	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())

	s.Cancel("a")
	assert.Equal(t, []string{"b"}, s.Keys())
}
