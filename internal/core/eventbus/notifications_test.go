package eventbus_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toaster/internal/core/config"
	"github.com/colonyops/toaster/internal/core/eventbus"
	"github.com/colonyops/toaster/internal/core/eventbus/testbus"
	"github.com/colonyops/toaster/internal/core/toast"
)

// storeRecorder collects store events published from the bus goroutine.
type storeRecorder struct {
	mu     sync.Mutex
	events []toast.Event
}

func newRouter(t *testing.T) (*testbus.Bus, *storeRecorder) {
	t.Helper()

	tb := testbus.New(t)
	store := toast.NewStore()
	rec := &storeRecorder{}
	store.Subscribe(func(e toast.Event) {
		rec.mu.Lock()
		rec.events = append(rec.events, e)
		rec.mu.Unlock()
	})

	eventbus.NewNotificationRouter(tb.EventBus, store).Register()
	return tb, rec
}

func (r *storeRecorder) wait(t *testing.T, n int) []toast.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.events) >= n
	}, time.Second, 5*time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]toast.Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestNotificationRouter_ConfigReloaded(t *testing.T) {
	tb, rec := newRouter(t)

	tb.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Config: &config.Config{}})
	events := rec.wait(t, 2)

	assert.Equal(t, toast.Event{Kind: toast.EventDismiss, ID: "config.invalid"}, events[0])
	assert.Equal(t, toast.EventAdd, events[1].Kind)
	assert.Equal(t, toast.TypeSuccess, events[1].Notification.Type)
	assert.Equal(t, "config.reloaded", events[1].ID)
}

func TestNotificationRouter_ConfigInvalid_is_persistent_error(t *testing.T) {
	tb, rec := newRouter(t)

	tb.PublishConfigInvalid(eventbus.ConfigInvalidPayload{
		Path: "/tmp/config.yaml",
		Err:  errors.New("unknown theme \"neon\"\nmore detail"),
	})
	events := rec.wait(t, 1)

	n := events[0].Notification
	assert.Equal(t, toast.TypeError, n.Type)
	assert.True(t, n.Persist)
	assert.Equal(t, `invalid configuration: unknown theme "neon"`, n.Message)
}

func TestNotificationRouter_ScheduleFired(t *testing.T) {
	tb, rec := newRouter(t)

	tb.PublishScheduleFired(eventbus.ScheduleFiredPayload{
		Schedule: config.Schedule{
			Name:     "standup",
			Type:     "warn",
			Message:  "standup in 5 minutes",
			Duration: 10 * time.Second,
		},
		FiredAt: time.Now(),
	})
	events := rec.wait(t, 1)

	n := events[0].Notification
	assert.Equal(t, "schedule.standup", n.ID)
	assert.Equal(t, toast.TypeWarn, n.Type)
	assert.Equal(t, "standup in 5 minutes", n.Message)
	assert.Equal(t, 10*time.Second, n.Duration)
}

func TestNotificationRouter_TuiEvents_doNotNotify(t *testing.T) {
	tb, rec := newRouter(t)

	tb.PublishTuiStarted(eventbus.TUIStartedPayload{})
	tb.AssertPublished(t, eventbus.EventTuiStarted)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.events)
}

func TestNotificationRouter_nil_safe(t *testing.T) {
	var r *eventbus.NotificationRouter
	assert.NotPanics(t, r.Register)
	assert.NotPanics(t, eventbus.NewNotificationRouter(nil, nil).Register)
}
