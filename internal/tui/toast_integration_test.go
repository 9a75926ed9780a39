package tui

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toaster/internal/core/clock/fakeclock"
	"github.com/colonyops/toaster/internal/core/config"
	"github.com/colonyops/toaster/internal/core/schedule"
	"github.com/colonyops/toaster/internal/core/styles"
	"github.com/colonyops/toaster/internal/core/toast"
	"github.com/colonyops/toaster/pkg/tuitest"
)

var testToastConfig = config.ToastConfig{
	Width:         40,
	ExitAnimation: 300 * time.Millisecond,
	TickInterval:  100 * time.Millisecond,
}

type fakeSchedules struct {
	entries []schedule.Entry
	fired   []string
}

func (f *fakeSchedules) Entries() []schedule.Entry { return f.entries }

func (f *fakeSchedules) Fire(name string) bool {
	f.fired = append(f.fired, name)
	return true
}

func newTestModel(t *testing.T, schedules ScheduleSource) (Model, *toast.Store, *fakeclock.Clock) {
	t.Helper()

	clk := fakeclock.New(time.Time{})
	store := toast.NewStore()
	engine := toast.NewEngine(store, toast.WithClock(clk))
	t.Cleanup(engine.Close)

	m := New(Options{
		Store:     store,
		Engine:    engine,
		Toasts:    testToastConfig,
		Schedules: schedules,
		Clock:     clk,
		Logger:    zerolog.Nop(),
		Theme:     "tokyo-night",
	})
	t.Cleanup(m.Close)
	return m, store, clk
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	result, cmd := m.Update(msg)
	next, ok := result.(Model)
	require.True(t, ok)
	return next, cmd
}

// drain delivers pending engine updates the way the WaitForSignal command
// would.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, drainUpdatesMsg{})
	return m
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	m, _ = update(t, m, tuitest.KeyPress(k))
	return drain(t, m)
}

func TestToastUpdateLoop_drain_starts_tick(t *testing.T) {
	m, store, _ := newTestModel(t, nil)

	store.Error("something broke")
	m, cmd := update(t, m, drainUpdatesMsg{})

	require.True(t, m.controller.HasToasts(), "toast should be applied")
	assert.Equal(t, "something broke", m.controller.Toasts()[0].Notification.Message)
	assert.NotNil(t, cmd)
	assert.True(t, m.controller.Ticking())
}

// TestToastUpdateLoop_full_lifecycle runs add, expiry, exit animation and
// removal through the Update loop on a fake clock.
func TestToastUpdateLoop_full_lifecycle(t *testing.T) {
	m, store, clk := newTestModel(t, nil)

	store.Add(toast.Notification{ID: "a", Message: "hello", Duration: time.Second})
	m = drain(t, m)

	tickCount := 0
	var cmd tea.Cmd
	for {
		clk.Advance(testToastConfig.TickInterval)
		m, cmd = update(t, m, toastTickMsg(clk.Now()))
		m = drain(t, m)
		tickCount++

		if cmd == nil {
			break
		}
		if tickCount > 100 {
			t.Fatal("tick chain ran for >100 ticks without settling")
		}
	}

	assert.False(t, m.controller.HasToasts())
	assert.False(t, m.controller.Ticking())
	// 10 ticks to expire, 3 for the exit animation, 1 to notice the empty stack.
	assert.Equal(t, 14, tickCount)
}

func TestToastUpdateLoop_new_toast_after_chain_stops(t *testing.T) {
	m, store, clk := newTestModel(t, nil)

	store.Add(toast.Notification{ID: "first", Duration: 0})
	m = drain(t, m)

	var cmd tea.Cmd
	for range 10 {
		clk.Advance(testToastConfig.TickInterval)
		m, cmd = update(t, m, toastTickMsg(clk.Now()))
		m = drain(t, m)
		if cmd == nil {
			break
		}
	}
	require.Nil(t, cmd)
	require.False(t, m.controller.HasToasts())

	store.Info("second")
	m, cmd = update(t, m, drainUpdatesMsg{})

	assert.True(t, m.controller.HasToasts())
	assert.NotNil(t, cmd, "should restart the tick chain")
	assert.True(t, m.controller.Ticking())
}

func TestModel_keys_spawn_and_dismiss(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	m = press(t, m, "s")
	m = press(t, m, "e")

	items := m.controller.Toasts()
	require.Len(t, items, 2)
	assert.Equal(t, toast.TypeSuccess, items[0].Notification.Type)
	assert.Equal(t, toast.TypeError, items[1].Notification.Type)

	m = press(t, m, "tab")
	assert.Equal(t, items[0].Notification.ID, m.controller.Focused())

	m = press(t, m, "x")
	assert.True(t, m.controller.Toasts()[0].Exiting)

	m = press(t, m, "X")
	for _, it := range m.controller.Toasts() {
		assert.True(t, it.Exiting, it.Notification.ID)
	}
}

func TestModel_burst_queues_overflow(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	m = press(t, m, "b")

	assert.Len(t, m.controller.Toasts(), toast.MaxVisible)
	assert.Equal(t, 2, m.controller.Pending())

	m = press(t, m, "c")
	assert.Zero(t, m.controller.Pending())
}

func TestModel_activate_spawns_follow_up(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	m = press(t, m, "i")
	m = press(t, m, "tab")
	m = press(t, m, "enter")

	items := m.controller.Toasts()
	require.Len(t, items, 2)
	assert.Contains(t, items[1].Notification.Message, "Opened")
}

func TestModel_fire_selected_schedule(t *testing.T) {
	src := &fakeSchedules{entries: []schedule.Entry{
		{Name: "backup", Spec: "@daily"},
		{Name: "standup", Spec: "0 9 * * 1-5"},
	}}
	m, _, _ := newTestModel(t, src)

	m = press(t, m, "j")
	m = press(t, m, "j")
	m = press(t, m, "f")
	m = press(t, m, "k")
	_ = press(t, m, "f")

	assert.Equal(t, []string{"standup", "backup"}, src.fired)
}

func TestModel_quit(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	m, cmd := update(t, m, tuitest.KeyPress("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, m.quitting)
}

func TestModel_theme_change_applies_on_update(t *testing.T) {
	t.Cleanup(func() { styles.SetThemeByName(styles.DefaultTheme) })
	m, _, _ := newTestModel(t, nil)

	gruvbox, ok := styles.GetPalette("gruvbox")
	require.True(t, ok)

	m, cmd := update(t, m, ThemeChangedMsg{Name: "gruvbox"})
	assert.Nil(t, cmd)

	assert.Equal(t, gruvbox, styles.CurrentPalette)
	assert.Equal(t, gruvbox.Primary, styles.ColorPrimary)
	assert.Contains(t, tuitest.StripANSI(m.renderDashboard()), "theme gruvbox")
}

func TestModel_theme_change_unknown_name(t *testing.T) {
	t.Cleanup(func() { styles.SetThemeByName(styles.DefaultTheme) })
	m, _, _ := newTestModel(t, nil)
	before := styles.CurrentPalette

	m, _ = update(t, m, ThemeChangedMsg{Name: "neon"})
	m = drain(t, m)

	assert.Equal(t, before, styles.CurrentPalette)
	assert.Contains(t, tuitest.StripANSI(m.renderDashboard()), "theme tokyo-night")

	items := m.controller.Toasts()
	require.Len(t, items, 1)
	assert.Equal(t, toast.TypeError, items[0].Notification.Type)
	assert.Contains(t, items[0].Notification.Message, `unknown theme "neon"`)
}

func TestModel_View(t *testing.T) {
	src := &fakeSchedules{entries: []schedule.Entry{{Name: "backup", Spec: "@daily"}}}
	m, store, _ := newTestModel(t, src)

	m, _ = update(t, m, tuitest.WindowSize(120, 40))
	store.Warn("disk almost full")
	m = drain(t, m)

	v := m.View()
	assert.True(t, v.AltScreen)

	content := m.toastView.Overlay(m.renderDashboard(), m.width, m.height)
	assert.Contains(t, content, "toaster")
	assert.Contains(t, content, "backup")
	assert.Contains(t, content, "disk almost full")
	assert.Contains(t, content, "visible 1/5")
}
