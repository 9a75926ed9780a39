package tui

import (
	"slices"
	"time"

	"github.com/colonyops/toaster/internal/core/clock"
	"github.com/colonyops/toaster/internal/core/toast"
)

// ToastItem is a visible notification as the view renders it.
type ToastItem struct {
	Notification toast.Notification
	Remaining    time.Duration
	Paused       bool
	Exiting      bool
	// ExitProgress runs from 0 to 1 over the exit animation.
	ExitProgress float64
	Focused      bool
}

// ToastController mirrors the engine state for the presentation surface.
// It plays exit animations and confirms removal once they finish, and maps
// keyboard focus onto pointer enter and leave signals.
//
// The controller is owned by the Update loop and is not safe for concurrent
// use.
type ToastController struct {
	store         *toast.Store
	engine        *toast.Engine
	clock         clock.Clock
	exitAnimation time.Duration

	state   toast.State
	exiting map[string]time.Time // id -> animation end
	focused string
	ticking bool
}

// NewToastController creates a controller seeded with the current engine
// state.
func NewToastController(store *toast.Store, engine *toast.Engine, clk clock.Clock, exitAnimation time.Duration) *ToastController {
	if clk == nil {
		clk = clock.Real{}
	}
	c := &ToastController{
		store:         store,
		engine:        engine,
		clock:         clk,
		exitAnimation: max(exitAnimation, 0),
		exiting:       make(map[string]time.Time),
	}
	c.Apply(toast.Update{State: engine.State()})
	return c
}

// Apply takes in an engine update. Every dismissed entry that is not yet
// animating starts its exit animation now.
func (c *ToastController) Apply(u toast.Update) {
	c.state = u.State
	now := c.clock.Now()

	for _, n := range c.state.Visible {
		if _, ok := c.exiting[n.ID]; n.Dismissed && !ok {
			c.exiting[n.ID] = now.Add(c.exitAnimation)
		}
	}
	for id := range c.exiting {
		if n, p := c.state.Lookup(id); p != toast.PlacementVisible || !n.Dismissed {
			delete(c.exiting, id)
		}
	}

	if c.focused != "" && !c.focusable(c.focused) {
		c.focused = ""
	}
}

// Tick confirms removal of every notification whose exit animation has
// finished and returns how many were confirmed.
func (c *ToastController) Tick() int {
	now := c.clock.Now()

	var done []string
	for id, end := range c.exiting {
		if !now.Before(end) {
			done = append(done, id)
		}
	}
	slices.Sort(done)

	for _, id := range done {
		delete(c.exiting, id)
		c.engine.ConfirmRemoved(id)
	}
	return len(done)
}

// FocusNext moves focus to the next live notification, wrapping around.
func (c *ToastController) FocusNext() {
	c.moveFocus(1)
}

// FocusPrev moves focus to the previous live notification, wrapping around.
func (c *ToastController) FocusPrev() {
	c.moveFocus(-1)
}

func (c *ToastController) moveFocus(delta int) {
	live := c.liveIDs()
	if len(live) == 0 {
		c.setFocus("")
		return
	}

	idx := slices.Index(live, c.focused)
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(live) - 1
	default:
		idx = (idx + delta + len(live)) % len(live)
	}
	c.setFocus(live[idx])
}

// Blur releases focus and resumes the countdown of the focused entry.
func (c *ToastController) Blur() {
	c.setFocus("")
}

func (c *ToastController) setFocus(id string) {
	if id == c.focused {
		return
	}
	if c.focused != "" {
		c.engine.PointerLeave(c.focused)
	}
	c.focused = id
	if id != "" {
		c.engine.PointerEnter(id)
	}
}

// Focused returns the id of the focused notification, if any.
func (c *ToastController) Focused() string {
	return c.focused
}

// DismissFocused dismisses the focused notification.
func (c *ToastController) DismissFocused() bool {
	if c.focused == "" {
		return false
	}
	id := c.focused
	c.focused = ""
	c.store.Dismiss(id)
	return true
}

// ActivateFocused runs the activation callback of the focused notification.
func (c *ToastController) ActivateFocused() bool {
	if c.focused == "" {
		return false
	}
	return c.engine.Activate(c.focused)
}

// DismissAll dismisses every visible notification and drops the queue.
func (c *ToastController) DismissAll() {
	c.focused = ""
	c.store.DismissAll()
}

// Toasts returns the visible notifications in display order.
func (c *ToastController) Toasts() []ToastItem {
	now := c.clock.Now()
	items := make([]ToastItem, 0, len(c.state.Visible))

	for _, n := range c.state.Visible {
		item := ToastItem{Notification: n, Focused: n.ID == c.focused}

		if end, ok := c.exiting[n.ID]; ok {
			item.Exiting = true
			item.ExitProgress = 1
			if c.exitAnimation > 0 {
				left := end.Sub(now)
				item.ExitProgress = min(max(1-float64(left)/float64(c.exitAnimation), 0), 1)
			}
		} else if !n.Persist {
			item.Remaining, _ = c.engine.Remaining(n.ID)
			state, _ := c.engine.TimerState(n.ID)
			item.Paused = state == toast.TimerPaused
		}

		items = append(items, item)
	}
	return items
}

// Pending returns the number of queued notifications.
func (c *ToastController) Pending() int {
	return len(c.state.Pending)
}

// HasToasts returns true if anything is visible.
func (c *ToastController) HasToasts() bool {
	return len(c.state.Visible) > 0
}

// Ticking returns whether the tick timer is currently running.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

// SetTicking sets the tick timer state.
func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}

func (c *ToastController) focusable(id string) bool {
	n, p := c.state.Lookup(id)
	return p == toast.PlacementVisible && !n.Dismissed
}

func (c *ToastController) liveIDs() []string {
	out := make([]string, 0, len(c.state.Visible))
	for _, n := range c.state.Visible {
		if !n.Dismissed {
			out = append(out, n.ID)
		}
	}
	return out
}
