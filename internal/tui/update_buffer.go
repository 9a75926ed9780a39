package tui

import (
	"slices"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/colonyops/toaster/internal/core/toast"
)

// UpdateBuffer collects engine updates from any goroutine and hands them to
// the Update loop. Only the latest state is kept, but exit requests are
// accumulated so that coalescing never loses an animation.
type UpdateBuffer struct {
	mu      sync.Mutex
	latest  toast.Update
	pending bool
	signal  chan struct{}
}

// NewUpdateBuffer constructs a buffer for async update delivery.
func NewUpdateBuffer() *UpdateBuffer {
	return &UpdateBuffer{
		signal: make(chan struct{}, 1),
	}
}

// Push records u and emits a non-blocking drain signal.
func (b *UpdateBuffer) Push(u toast.Update) {
	b.mu.Lock()
	exiting := b.latest.Exiting
	if !b.pending {
		exiting = nil
	}
	b.latest = toast.Update{
		State:   u.State,
		Exiting: append(slices.Clone(exiting), u.Exiting...),
	}
	b.pending = true
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain returns the coalesced update and reports whether one was waiting.
func (b *UpdateBuffer) Drain() (toast.Update, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.pending {
		return toast.Update{}, false
	}

	u := b.latest
	b.latest = toast.Update{}
	b.pending = false
	return u, true
}

// WaitForSignal blocks until there is an update ready to drain.
func (b *UpdateBuffer) WaitForSignal() tea.Cmd {
	return func() tea.Msg {
		<-b.signal
		return drainUpdatesMsg{}
	}
}

type drainUpdatesMsg struct{}
