package toast

import (
	"sync/atomic"
	"time"

	"github.com/colonyops/toaster/internal/core/clock"
)

// TimerState is the lifecycle position of a single notification's countdown.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerScheduled
	TimerPaused
	TimerDismissed
	TimerRemoved
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerScheduled:
		return "scheduled"
	case TimerPaused:
		return "paused"
	case TimerDismissed:
		return "dismissed"
	case TimerRemoved:
		return "removed"
	}
	return "unknown"
}

// generations is shared by every timer so a callback scheduled for a
// removed notification can never match a newer timer reusing its id.
var generations atomic.Uint64

// ExpireFunc is called from the clock when a scheduled countdown elapses.
// gen identifies the scheduling so stale fires can be told apart.
type ExpireFunc func(id string, gen uint64)

// Timer converts a duration into a scheduled auto-dismiss with exact
// pause/resume accounting. A Timer is owned by the Engine and is not safe
// for concurrent use; expiry callbacks re-enter through the engine.
type Timer struct {
	id      string
	persist bool
	clock   clock.Clock
	expire  ExpireFunc

	state     TimerState
	startedAt time.Time
	remaining time.Duration
	handle    clock.Timer
	gen       uint64
}

// NewTimer creates an idle timer for the notification id.
func NewTimer(id string, persist bool, c clock.Clock, expire ExpireFunc) *Timer {
	return &Timer{
		id:      id,
		persist: persist,
		clock:   c,
		expire:  expire,
	}
}

// State returns the current lifecycle position.
func (t *Timer) State() TimerState {
	return t.state
}

// Generation returns the id of the current scheduling.
func (t *Timer) Generation() uint64 {
	return t.gen
}

// Start begins the countdown. It returns true when the notification must be
// dismissed right away because d is not positive. Persistent timers enter
// the scheduled state without a countdown.
func (t *Timer) Start(d time.Duration) (expired bool) {
	if t.state != TimerIdle {
		return false
	}

	t.state = TimerScheduled
	if t.persist {
		return false
	}
	if d <= 0 {
		t.state = TimerDismissed
		return true
	}

	t.remaining = d
	t.schedule()
	return false
}

// Pause stops the countdown and banks the remaining time. Pausing a
// persistent, paused, or finished timer does nothing.
func (t *Timer) Pause() bool {
	if t.persist || t.state != TimerScheduled {
		return false
	}

	t.stop()
	elapsed := t.clock.Now().Sub(t.startedAt)
	t.remaining = max(t.remaining-elapsed, 0)
	t.state = TimerPaused
	return true
}

// Resume restarts a paused countdown with the banked remaining time. It
// returns resumed=true when the timer left the paused state, and
// expired=true when nothing was left to count down.
func (t *Timer) Resume() (resumed, expired bool) {
	if t.persist || t.state != TimerPaused {
		return false, false
	}

	if t.remaining <= 0 {
		t.state = TimerDismissed
		return true, true
	}

	t.state = TimerScheduled
	t.schedule()
	return true, false
}

// Fire validates an expiry callback. It returns true, moving the timer to
// dismissed, only when gen matches the live scheduling.
func (t *Timer) Fire(gen uint64) bool {
	if t.state != TimerScheduled || t.persist || gen != t.gen || t.handle == nil {
		return false
	}
	t.handle = nil
	t.remaining = 0
	t.state = TimerDismissed
	return true
}

// Cancel stops any pending countdown and marks the timer dismissed.
func (t *Timer) Cancel() {
	if t.state == TimerRemoved {
		return
	}
	t.stop()
	t.state = TimerDismissed
}

// Release stops the timer for good once the slot is freed.
func (t *Timer) Release() {
	t.stop()
	t.state = TimerRemoved
}

// Remaining returns the time left before expiry. Persistent timers report
// zero.
func (t *Timer) Remaining() time.Duration {
	switch {
	case t.persist:
		return 0
	case t.state == TimerScheduled:
		return max(t.remaining-t.clock.Now().Sub(t.startedAt), 0)
	case t.state == TimerPaused:
		return t.remaining
	}
	return 0
}

func (t *Timer) schedule() {
	t.gen = generations.Add(1)
	gen := t.gen
	id := t.id
	t.startedAt = t.clock.Now()
	t.handle = t.clock.AfterFunc(t.remaining, func() {
		t.expire(id, gen)
	})
}

func (t *Timer) stop() {
	// A fresh generation invalidates a callback already in flight.
	t.gen = generations.Add(1)
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
}
