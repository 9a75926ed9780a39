package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/toaster/internal/core/clock"
)

// Update is delivered to engine subscribers after every state change.
// Exiting lists the ids whose exit animation was requested by the change;
// the same ids also appear in State.Visible with Dismissed set.
type Update struct {
	State   State
	Exiting []string
}

type opKind int

const (
	opAdd opKind = iota
	opDismiss
	opClear
	opRemove
	opPause
	opResume
	opExpire
)

type op struct {
	kind         opKind
	notification Notification
	id           string
	gen          uint64
}

type outcome struct {
	changed     bool
	exiting     []string
	transitions []Transition
}

type engineSubscriber struct {
	id uint64
	fn func(Update)
}

// Engine owns the visible/pending state and one Timer per visible entry.
// Every mutation, whether it comes from the store, a timer, or the
// presentation surface, is queued and applied by a single drain loop, so
// actions are totally ordered and never interleave. Subscribers and hooks
// run outside the lock and may call back into the engine.
type Engine struct {
	clock       clock.Clock
	log         zerolog.Logger
	autoConfirm bool

	mu          sync.Mutex
	state       State
	timers      map[string]*Timer
	queue       []op
	draining    bool
	closed      bool
	subscribers []engineSubscriber
	nextSub     uint64

	hooks       hooks
	unsubscribe func()
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithAutoConfirm makes the engine confirm removal right after dismissal,
// for headless use where no exit animation is played.
func WithAutoConfirm(v bool) EngineOption {
	return func(e *Engine) { e.autoConfirm = v }
}

// NewEngine creates an engine and subscribes it to store.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{
		clock:  clock.Real{},
		log:    zerolog.Nop(),
		timers: make(map[string]*Timer),
	}
	for _, opt := range opts {
		opt(e)
	}

	if store != nil {
		e.unsubscribe = store.Subscribe(e.handleEvent)
	}
	return e
}

// Close detaches the engine from its store and cancels every timer.
// Actions arriving afterwards are dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for id, t := range e.timers {
		t.Release()
		delete(e.timers, id)
	}
	e.queue = nil
	unsubscribe := e.unsubscribe
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Subscribe registers fn for every state change and returns a function
// that removes the subscription.
func (e *Engine) Subscribe(fn func(Update)) func() {
	e.mu.Lock()
	e.nextSub++
	id := e.nextSub
	e.subscribers = append(e.subscribers, engineSubscriber{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.subscribers {
			if sub.id == id {
				e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Remaining returns the countdown left for a visible notification.
func (e *Engine) Remaining(id string) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.timers[id]
	if !ok {
		return 0, false
	}
	return t.Remaining(), true
}

// TimerState returns the lifecycle position of a visible notification.
func (e *Engine) TimerState(id string) (TimerState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.timers[id]
	if !ok {
		return TimerIdle, false
	}
	return t.State(), true
}

// PointerEnter pauses the countdown of id while the user attends to it.
func (e *Engine) PointerEnter(id string) {
	e.dispatch(op{kind: opPause, id: id})
}

// PointerLeave resumes the countdown of id.
func (e *Engine) PointerLeave(id string) {
	e.dispatch(op{kind: opResume, id: id})
}

// ConfirmRemoved frees the slot of id once its exit animation finished,
// promoting the head of the pending queue when there is room.
func (e *Engine) ConfirmRemoved(id string) {
	e.dispatch(op{kind: opRemove, id: id})
}

// Activate invokes the OnActivate callback of a visible, non-dismissed
// notification. It reports whether a callback ran.
func (e *Engine) Activate(id string) bool {
	e.mu.Lock()
	n, placement := e.state.Lookup(id)
	e.mu.Unlock()

	if placement != PlacementVisible || n.Dismissed || n.OnActivate == nil {
		return false
	}
	e.safeCall("activate", n.OnActivate)
	return true
}

func (e *Engine) handleEvent(ev Event) {
	switch ev.Kind {
	case EventAdd:
		e.dispatch(op{kind: opAdd, notification: ev.Notification})
	case EventDismiss:
		e.dispatch(op{kind: opDismiss, id: ev.ID})
	case EventClear:
		e.dispatch(op{kind: opClear})
	}
}

func (e *Engine) onExpire(id string, gen uint64) {
	e.dispatch(op{kind: opExpire, id: id, gen: gen})
}

func (e *Engine) dispatch(o op) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, o)
	if e.draining {
		e.mu.Unlock()
		return
	}

	e.draining = true
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]

		out := e.apply(next)
		if e.autoConfirm {
			for _, id := range out.exiting {
				e.queue = append(e.queue, op{kind: opRemove, id: id})
			}
		}

		var (
			update Update
			subs   []engineSubscriber
		)
		if out.changed {
			update = Update{State: e.state.Clone(), Exiting: out.exiting}
			subs = make([]engineSubscriber, len(e.subscribers))
			copy(subs, e.subscribers)
		}
		e.mu.Unlock()

		for _, tr := range out.transitions {
			e.hooks.run(tr, e.safeCall)
		}
		for _, sub := range subs {
			e.safeCall("subscriber", func() { sub.fn(update) })
		}

		e.mu.Lock()
	}
	e.draining = false
	e.mu.Unlock()
}

func (e *Engine) apply(o op) outcome {
	var out outcome
	now := e.clock.Now()

	switch o.kind {
	case opAdd:
		e.applyAdd(o.notification, &out)
	case opDismiss:
		if o.id == "" {
			e.dismissAll(ReasonManual, &out)
		} else {
			e.dismissOne(o.id, ReasonManual, &out)
		}
	case opClear:
		e.dismissAll(ReasonClear, &out)
	case opRemove:
		e.applyRemove(o.id, &out)
	case opPause:
		if t, ok := e.timers[o.id]; ok && t.Pause() {
			out.add(TransitionPaused, o.id, "", now)
		}
	case opResume:
		t, ok := e.timers[o.id]
		if !ok {
			break
		}
		resumed, expired := t.Resume()
		if resumed {
			out.add(TransitionResumed, o.id, "", now)
		}
		if expired {
			e.dismissOne(o.id, ReasonExpired, &out)
		}
	case opExpire:
		t, ok := e.timers[o.id]
		if !ok || !t.Fire(o.gen) {
			out.add(TransitionStale, o.id, "", now)
			break
		}
		e.dismissOne(o.id, ReasonExpired, &out)
	}

	return out
}

func (e *Engine) applyAdd(n Notification, out *outcome) {
	now := e.clock.Now()

	current, placement := e.state.Lookup(n.ID)
	if placement == PlacementVisible && current.Dismissed {
		out.add(TransitionRejected, n.ID, "", now)
		return
	}

	e.state = Reduce(e.state, Action{Kind: ActionAdd, Notification: n, At: now})
	out.changed = true

	if placement != PlacementNone {
		out.add(TransitionReplaced, n.ID, "", now)
		return
	}

	if _, p := e.state.Lookup(n.ID); p == PlacementPending {
		out.add(TransitionQueued, n.ID, "", now)
		return
	}

	out.add(TransitionAdmitted, n.ID, "", now)
	e.startTimer(n, out)
}

func (e *Engine) applyRemove(id string, out *outcome) {
	now := e.clock.Now()

	if _, placement := e.state.Lookup(id); placement != PlacementVisible {
		return
	}

	before := make(map[string]struct{}, len(e.state.Visible))
	for _, n := range e.state.Visible {
		before[n.ID] = struct{}{}
	}

	e.state = Reduce(e.state, Action{Kind: ActionRemove, ID: id, At: now})
	out.changed = true

	if t, ok := e.timers[id]; ok {
		t.Release()
		delete(e.timers, id)
	}
	out.add(TransitionRemoved, id, "", now)

	for _, n := range e.state.Visible {
		if _, seen := before[n.ID]; seen {
			continue
		}
		out.add(TransitionPromoted, n.ID, "", now)
		e.startTimer(n, out)
	}
}

func (e *Engine) startTimer(n Notification, out *outcome) {
	if old, ok := e.timers[n.ID]; ok {
		old.Release()
	}

	t := NewTimer(n.ID, n.Persist, e.clock, e.onExpire)
	e.timers[n.ID] = t
	if t.Start(n.Duration) {
		e.dismissOne(n.ID, ReasonExpired, out)
	}
}

func (e *Engine) dismissOne(id string, reason DismissReason, out *outcome) {
	now := e.clock.Now()

	n, placement := e.state.Lookup(id)
	switch placement {
	case PlacementVisible:
		if n.Dismissed {
			return
		}
		if t, ok := e.timers[id]; ok {
			t.Cancel()
		}
		e.state = Reduce(e.state, Action{Kind: ActionDismiss, ID: id, At: now})
		out.changed = true
		out.exiting = append(out.exiting, id)
		out.add(TransitionDismissed, id, reason, now)
	case PlacementPending:
		e.state = Reduce(e.state, Action{Kind: ActionDismiss, ID: id, At: now})
		out.changed = true
		out.add(TransitionDropped, id, reason, now)
	}
}

func (e *Engine) dismissAll(reason DismissReason, out *outcome) {
	now := e.clock.Now()

	for _, n := range e.state.Visible {
		if n.Dismissed {
			continue
		}
		if t, ok := e.timers[n.ID]; ok {
			t.Cancel()
		}
		out.exiting = append(out.exiting, n.ID)
		out.add(TransitionDismissed, n.ID, reason, now)
	}
	for _, n := range e.state.Pending {
		out.add(TransitionDropped, n.ID, reason, now)
	}

	if len(out.exiting) == 0 && len(e.state.Pending) == 0 {
		return
	}

	kind := ActionDismiss
	if reason == ReasonClear {
		kind = ActionClear
	}
	e.state = Reduce(e.state, Action{Kind: kind, At: now})
	out.changed = true
}

func (e *Engine) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("callback", what).
				Str("panic", fmt.Sprint(r)).
				Msg("toast callback panicked")
		}
	}()
	fn()
}
