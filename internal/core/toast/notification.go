// Package toast implements the notification lifecycle engine: a fan-out store
// for producer commands, a pure reducer over the visible/pending sets, and
// per-notification timers with pause and resume.
package toast

import "time"

const (
	// MaxVisible bounds the number of notifications on screen at once,
	// dismissed entries included.
	MaxVisible = 5

	// DefaultDuration is the visible lifetime applied by Notify when no
	// explicit duration is given.
	DefaultDuration = 4 * time.Second
)

// Type represents the display variant of a notification.
type Type string

const (
	TypeDefault Type = "default"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarn    Type = "warn"
)

// Types returns every supported notification type.
func Types() []Type {
	return []Type{TypeDefault, TypeSuccess, TypeError, TypeWarn}
}

// Valid reports whether t is a known type. The empty type is treated as
// TypeDefault.
func (t Type) Valid() bool {
	switch t {
	case "", TypeDefault, TypeSuccess, TypeError, TypeWarn:
		return true
	}
	return false
}

// ParseType converts a user supplied name into a Type. "info" is accepted
// as an alias for TypeDefault.
func ParseType(s string) (Type, bool) {
	if s == "info" {
		return TypeDefault, true
	}
	t := Type(s)
	if s == "" {
		t = TypeDefault
	}
	return t, t.Valid()
}

// Notification is a single toast.
type Notification struct {
	ID         string
	Type       Type
	Message    string
	Duration   time.Duration // ignored when Persist is set
	Persist    bool
	OnActivate func()

	// CreatedAt is set when the entry enters the visible set, and reset
	// when it is promoted from the pending queue.
	CreatedAt time.Time

	// Dismissed marks an entry whose exit was requested but whose slot has
	// not been freed by a removal confirmation yet.
	Dismissed bool
}

// Option customizes a notification built by Store.Notify.
type Option func(*Notification)

// WithID sets a producer-chosen id, enabling later replacement or targeted
// dismissal.
func WithID(id string) Option {
	return func(n *Notification) { n.ID = id }
}

// WithDuration overrides DefaultDuration. A non-positive duration dismisses
// the notification as soon as it becomes visible.
func WithDuration(d time.Duration) Option {
	return func(n *Notification) { n.Duration = d }
}

// Persistent exempts the notification from auto-expiry.
func Persistent() Option {
	return func(n *Notification) { n.Persist = true }
}

// OnActivate registers a callback invoked when the user activates the
// notification.
func OnActivate(fn func()) Option {
	return func(n *Notification) { n.OnActivate = fn }
}

// New builds a notification from a message and options.
func New(t Type, msg string, opts ...Option) Notification {
	n := Notification{
		Type:     t,
		Message:  msg,
		Duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(&n)
	}
	if n.Type == "" {
		n.Type = TypeDefault
	}
	return n
}
