package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toaster/internal/core/clock/fakeclock"
	"github.com/colonyops/toaster/internal/core/toast"
)

const testExitAnimation = 300 * time.Millisecond

type harness struct {
	store  *toast.Store
	engine *toast.Engine
	clock  *fakeclock.Clock
	ctrl   *ToastController
	buffer *UpdateBuffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := fakeclock.New(time.Time{})
	store := toast.NewStore()
	engine := toast.NewEngine(store, toast.WithClock(clk))
	t.Cleanup(engine.Close)

	buffer := NewUpdateBuffer()
	t.Cleanup(engine.Subscribe(buffer.Push))

	return &harness{
		store:  store,
		engine: engine,
		clock:  clk,
		ctrl:   NewToastController(store, engine, clk, testExitAnimation),
		buffer: buffer,
	}
}

// sync applies whatever the engine published since the last call.
func (h *harness) sync() {
	if u, ok := h.buffer.Drain(); ok {
		h.ctrl.Apply(u)
	}
}

func (h *harness) add(id string, d time.Duration) {
	h.store.Add(toast.Notification{ID: id, Message: id, Duration: d})
	h.sync()
}

func itemIDs(items []ToastItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Notification.ID)
	}
	return out
}

func TestToastController_mirrors_engine(t *testing.T) {
	h := newHarness(t)

	for i := range toast.MaxVisible + 2 {
		h.add(fmt.Sprintf("n%d", i+1), time.Second)
	}

	assert.True(t, h.ctrl.HasToasts())
	assert.Equal(t, []string{"n1", "n2", "n3", "n4", "n5"}, itemIDs(h.ctrl.Toasts()))
	assert.Equal(t, 2, h.ctrl.Pending())
}

func TestToastController_seeds_from_engine_state(t *testing.T) {
	h := newHarness(t)
	h.store.Add(toast.Notification{ID: "early", Duration: time.Second})

	ctrl := NewToastController(h.store, h.engine, h.clock, testExitAnimation)
	assert.Equal(t, []string{"early"}, itemIDs(ctrl.Toasts()))
}

func TestToastController_exit_animation_then_confirm(t *testing.T) {
	h := newHarness(t)
	h.add("a", time.Second)
	h.add("b", time.Minute)

	h.clock.Advance(time.Second)
	h.sync()

	items := h.ctrl.Toasts()
	require.Len(t, items, 2)
	assert.True(t, items[0].Exiting)
	assert.Zero(t, items[0].ExitProgress)
	assert.False(t, items[1].Exiting)

	h.clock.Advance(testExitAnimation / 2)
	assert.Zero(t, h.ctrl.Tick())
	assert.InDelta(t, 0.5, h.ctrl.Toasts()[0].ExitProgress, 0.001)

	h.clock.Advance(testExitAnimation / 2)
	assert.Equal(t, 1, h.ctrl.Tick())
	h.sync()

	assert.Equal(t, []string{"b"}, itemIDs(h.ctrl.Toasts()))
	assert.False(t, h.engine.State().Visible[0].Dismissed)
}

func TestToastController_confirm_promotes_pending(t *testing.T) {
	h := newHarness(t)
	for i := range toast.MaxVisible + 1 {
		h.add(fmt.Sprintf("n%d", i+1), time.Minute)
	}

	h.store.Dismiss("n2")
	h.sync()
	assert.Equal(t, 1, h.ctrl.Pending(), "slot is held during the animation")

	h.clock.Advance(testExitAnimation)
	h.ctrl.Tick()
	h.sync()

	assert.Equal(t, []string{"n1", "n3", "n4", "n5", "n6"}, itemIDs(h.ctrl.Toasts()))
	assert.Zero(t, h.ctrl.Pending())
}

func TestToastController_zero_exit_animation_confirms_on_next_tick(t *testing.T) {
	h := newHarness(t)
	h.ctrl = NewToastController(h.store, h.engine, h.clock, 0)

	h.add("a", 0)
	require.True(t, h.ctrl.Toasts()[0].Exiting)
	assert.InDelta(t, 1, h.ctrl.Toasts()[0].ExitProgress, 0)

	assert.Equal(t, 1, h.ctrl.Tick())
	h.sync()
	assert.False(t, h.ctrl.HasToasts())
}

func TestToastController_focus_pauses_countdown(t *testing.T) {
	h := newHarness(t)
	h.add("a", 2*time.Second)
	h.add("b", 2*time.Second)

	h.clock.Advance(500 * time.Millisecond)
	h.ctrl.FocusNext()
	h.sync()
	assert.Equal(t, "a", h.ctrl.Focused())

	h.clock.Advance(10 * time.Second)
	h.sync()

	items := h.ctrl.Toasts()
	require.Len(t, items, 2)
	assert.True(t, items[0].Paused)
	assert.True(t, items[0].Focused)
	assert.Equal(t, 1500*time.Millisecond, items[0].Remaining)
	assert.True(t, items[1].Exiting, "unfocused toast expired")

	h.ctrl.Blur()
	assert.Empty(t, h.ctrl.Focused())

	h.clock.Advance(1500 * time.Millisecond)
	h.sync()
	assert.True(t, h.ctrl.Toasts()[0].Exiting, "countdown resumed with the banked time")
}

func TestToastController_focus_cycles_live_toasts(t *testing.T) {
	h := newHarness(t)
	h.add("a", time.Minute)
	h.add("b", time.Minute)
	h.add("c", time.Minute)
	h.store.Dismiss("b")
	h.sync()

	h.ctrl.FocusNext()
	assert.Equal(t, "a", h.ctrl.Focused())
	h.ctrl.FocusNext()
	assert.Equal(t, "c", h.ctrl.Focused(), "dismissed toasts are skipped")
	h.ctrl.FocusNext()
	assert.Equal(t, "a", h.ctrl.Focused())
	h.ctrl.FocusPrev()
	assert.Equal(t, "c", h.ctrl.Focused())

	timer, _ := h.engine.TimerState("a")
	assert.NotEqual(t, toast.TimerPaused, timer, "leaving resumes the previous toast")
}

func TestToastController_DismissFocused(t *testing.T) {
	h := newHarness(t)
	h.add("a", time.Minute)

	assert.False(t, h.ctrl.DismissFocused())

	h.ctrl.FocusNext()
	assert.True(t, h.ctrl.DismissFocused())
	h.sync()

	assert.Empty(t, h.ctrl.Focused())
	assert.True(t, h.ctrl.Toasts()[0].Exiting)
}

func TestToastController_ActivateFocused(t *testing.T) {
	h := newHarness(t)

	activated := 0
	h.store.Notify(toast.TypeSuccess, "open me", toast.WithID("a"), toast.OnActivate(func() { activated++ }))
	h.sync()

	assert.False(t, h.ctrl.ActivateFocused())

	h.ctrl.FocusNext()
	assert.True(t, h.ctrl.ActivateFocused())
	assert.Equal(t, 1, activated)
}

func TestToastController_focus_drops_when_toast_dismissed_elsewhere(t *testing.T) {
	h := newHarness(t)
	h.add("a", time.Minute)
	h.ctrl.FocusNext()

	h.store.DismissAll()
	h.sync()

	assert.Empty(t, h.ctrl.Focused())
}

func TestToastController_persistent_has_no_countdown(t *testing.T) {
	h := newHarness(t)
	h.store.Add(toast.Notification{ID: "pin", Persist: true})
	h.sync()

	h.clock.Advance(time.Hour)
	h.sync()

	items := h.ctrl.Toasts()
	require.Len(t, items, 1)
	assert.False(t, items[0].Exiting)
	assert.Zero(t, items[0].Remaining)
}
