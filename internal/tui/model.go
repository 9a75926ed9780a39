// Package tui implements the Bubble Tea dashboard that presents toast
// notifications.
package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/toaster/internal/core/clock"
	"github.com/colonyops/toaster/internal/core/config"
	"github.com/colonyops/toaster/internal/core/schedule"
	"github.com/colonyops/toaster/internal/core/styles"
	"github.com/colonyops/toaster/internal/core/toast"
)

const dashboardRefresh = time.Second

// ScheduleSource lists and fires configured schedules.
type ScheduleSource interface {
	Entries() []schedule.Entry
	Fire(name string) bool
}

// Options configures the dashboard.
type Options struct {
	Store     *toast.Store
	Engine    *toast.Engine
	Toasts    config.ToastConfig
	Schedules ScheduleSource // optional
	Clock     clock.Clock    // defaults to the wall clock
	Logger    zerolog.Logger
	Build     BuildInfo
	Theme     string
}

// Model is the dashboard: a schedule overview with the toast stack
// composited in the lower-right corner.
type Model struct {
	opts        Options
	keys        KeyMap
	buffer      *UpdateBuffer
	controller  *ToastController
	toastView   *ToastView
	unsubscribe func()

	spawned  int
	selected int
	width    int
	height   int
	quitting bool
}

// New creates the dashboard and subscribes it to the engine. Call Close once
// the program has exited.
func New(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	buffer := NewUpdateBuffer()
	unsubscribe := opts.Engine.Subscribe(buffer.Push)

	controller := NewToastController(opts.Store, opts.Engine, opts.Clock, opts.Toasts.ExitAnimation)

	return Model{
		opts:        opts,
		keys:        DefaultKeyMap(),
		buffer:      buffer,
		controller:  controller,
		toastView:   NewToastView(controller, opts.Toasts.Width),
		unsubscribe: unsubscribe,
		width:       80,
		height:      24,
	}
}

// Close detaches the dashboard from the engine.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

type dashboardTickMsg time.Time

// ThemeChangedMsg switches the active theme. Deliver it through the program
// so styles are only rewritten on the update loop.
type ThemeChangedMsg struct {
	Name string
}

func scheduleDashboardTick() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg {
		return dashboardTickMsg(t)
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.buffer.WaitForSignal(), scheduleDashboardTick()}
	if cmd := m.ensureToastTick(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case drainUpdatesMsg:
		if u, ok := m.buffer.Drain(); ok {
			m.controller.Apply(u)
		}
		return m, tea.Batch(m.buffer.WaitForSignal(), m.ensureToastTick())

	case toastTickMsg:
		m.controller.Tick()
		if !m.controller.HasToasts() {
			m.controller.SetTicking(false)
			return m, nil
		}
		return m, scheduleToastTick(m.opts.Toasts.TickInterval)

	case dashboardTickMsg:
		return m, scheduleDashboardTick()

	case ThemeChangedMsg:
		m.applyTheme(msg.Name)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// ensureToastTick starts the tick chain when toasts are visible and no chain
// is running.
func (m Model) ensureToastTick() tea.Cmd {
	if !m.controller.HasToasts() || m.controller.Ticking() {
		return nil
	}
	m.controller.SetTicking(true)
	return scheduleToastTick(m.opts.Toasts.TickInterval)
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Success):
		m.spawn(toast.TypeSuccess)
	case key.Matches(msg, m.keys.Error):
		m.spawn(toast.TypeError)
	case key.Matches(msg, m.keys.Warn):
		m.spawn(toast.TypeWarn)
	case key.Matches(msg, m.keys.Info):
		m.spawn(toast.TypeDefault)
	case key.Matches(msg, m.keys.Persistent):
		m.spawn(toast.TypeWarn, toast.Persistent())
	case key.Matches(msg, m.keys.Burst):
		for range toast.MaxVisible + 2 {
			m.spawn(toast.TypeDefault)
		}
	case key.Matches(msg, m.keys.Next):
		m.controller.FocusNext()
	case key.Matches(msg, m.keys.Prev):
		m.controller.FocusPrev()
	case key.Matches(msg, m.keys.Blur):
		m.controller.Blur()
	case key.Matches(msg, m.keys.Activate):
		m.controller.ActivateFocused()
	case key.Matches(msg, m.keys.Dismiss):
		m.controller.DismissFocused()
	case key.Matches(msg, m.keys.DismissAll):
		m.controller.DismissAll()
	case key.Matches(msg, m.keys.Clear):
		m.controller.Blur()
		m.opts.Store.Clear()
	case key.Matches(msg, m.keys.Up):
		m.selected = max(m.selected-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.selected = min(m.selected+1, max(len(m.entries())-1, 0))
	case key.Matches(msg, m.keys.Fire):
		m.fireSelected()
	}
	return m, nil
}

var samples = map[toast.Type][]string{
	toast.TypeSuccess: {"Deploy finished", "Backup completed", "Tests passed"},
	toast.TypeError:   {"Build failed", "Connection refused", "Disk quota exceeded"},
	toast.TypeWarn:    {"Certificate expires soon", "High memory usage", "Retrying request"},
	toast.TypeDefault: {"New message", "Sync started", "3 files changed"},
}

func (m *Model) spawn(t toast.Type, opts ...toast.Option) {
	m.spawned++
	pool := samples[t]
	msg := fmt.Sprintf("#%d %s", m.spawned, pool[m.spawned%len(pool)])

	store := m.opts.Store
	opts = append(opts, toast.OnActivate(func() {
		store.Infof("Opened %q", msg)
	}))
	store.Notify(t, msg, opts...)
}

// applyTheme switches the active theme at runtime.
func (m *Model) applyTheme(name string) {
	if !styles.SetThemeByName(name) {
		m.opts.Store.Errorf("unknown theme %q, available: %v", name, styles.ThemeNames())
		return
	}
	m.opts.Theme = name
}

func (m Model) entries() []schedule.Entry {
	if m.opts.Schedules == nil {
		return nil
	}
	return m.opts.Schedules.Entries()
}

func (m Model) fireSelected() {
	entries := m.entries()
	if m.selected >= len(entries) {
		return
	}
	name := entries[m.selected].Name
	if !m.opts.Schedules.Fire(name) {
		m.opts.Logger.Warn().Str("schedule", name).Msg("schedule vanished before firing")
	}
}

// View implements tea.Model.
func (m Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	content := m.toastView.Overlay(m.renderDashboard(), m.width, m.height)

	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	title := styles.TitleStyle.Render("toaster")
	if m.opts.Build.Version != "" {
		title += " " + styles.MutedStyle.Render(m.opts.Build.Version)
	}
	b.WriteString(title + "\n\n")

	status := fmt.Sprintf("visible %d/%d  queued %d  theme %s",
		len(m.controller.Toasts()), toast.MaxVisible, m.controller.Pending(), m.opts.Theme)
	if id := m.controller.Focused(); id != "" {
		status += "  focused " + id
	}
	b.WriteString(styles.StatusStyle.Render(status) + "\n\n")

	b.WriteString(m.renderSchedules())
	b.WriteString(renderHelp(m.keys.HelpRows()))

	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderSchedules() string {
	entries := m.entries()
	if len(entries) == 0 {
		return styles.MutedStyle.Render("no schedules configured") + "\n"
	}

	now := m.opts.Clock.Now()
	var b strings.Builder
	b.WriteString(styles.CommandHeaderStyle.Render("Schedules") + "\n")
	for i, e := range entries {
		next := "not started"
		if !e.Next.IsZero() {
			next = "in " + e.Next.Sub(now).Round(time.Second).String()
		}

		cursor := "  "
		line := fmt.Sprintf("%-20s %-16s %s", e.Name, e.Spec, next)
		if i == m.selected {
			cursor = styles.TitleStyle.Render("> ")
			line = styles.CommandStyle.Render(line)
		} else {
			line = styles.MutedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}
