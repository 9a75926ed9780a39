package toast

import (
	"sync"
	"time"
)

// TransitionKind names a lifecycle step observed by hooks.
type TransitionKind string

const (
	TransitionAdmitted  TransitionKind = "admitted"
	TransitionQueued    TransitionKind = "queued"
	TransitionReplaced  TransitionKind = "replaced"
	TransitionRejected  TransitionKind = "rejected"
	TransitionDismissed TransitionKind = "dismissed"
	TransitionDropped   TransitionKind = "dropped"
	TransitionRemoved   TransitionKind = "removed"
	TransitionPromoted  TransitionKind = "promoted"
	TransitionPaused    TransitionKind = "paused"
	TransitionResumed   TransitionKind = "resumed"
	TransitionStale     TransitionKind = "stale"
)

// DismissReason explains why a notification was dismissed or dropped.
type DismissReason string

const (
	ReasonManual  DismissReason = "manual"
	ReasonExpired DismissReason = "expired"
	ReasonClear   DismissReason = "clear"
)

// Transition is a single lifecycle step.
type Transition struct {
	Kind   TransitionKind
	ID     string
	Reason DismissReason // dismissed and dropped only
	At     time.Time
}

func (o *outcome) add(kind TransitionKind, id string, reason DismissReason, at time.Time) {
	o.transitions = append(o.transitions, Transition{Kind: kind, ID: id, Reason: reason, At: at})
}

// hooks holds observers that are notified of every transition. They run
// after the state change is committed, outside the engine lock.
type hooks struct {
	mu           sync.RWMutex
	onTransition []func(Transition)
}

// OnTransition registers a hook fired for every lifecycle transition.
func (e *Engine) OnTransition(fn func(Transition)) {
	e.hooks.mu.Lock()
	e.hooks.onTransition = append(e.hooks.onTransition, fn)
	e.hooks.mu.Unlock()
}

func (h *hooks) run(tr Transition, call func(string, func())) {
	h.mu.RLock()
	fns := make([]func(Transition), len(h.onTransition))
	copy(fns, h.onTransition)
	h.mu.RUnlock()

	for _, fn := range fns {
		call("hook", func() { fn(tr) })
	}
}
