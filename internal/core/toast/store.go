package toast

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EventKind tags a store event.
type EventKind string

const (
	EventAdd     EventKind = "add"
	EventDismiss EventKind = "dismiss"
	EventClear   EventKind = "clear"
)

// Event is published by the Store for every producer command. For
// EventDismiss an empty ID means every visible notification.
type Event struct {
	Kind         EventKind
	Notification Notification
	ID           string
}

// Listener receives store events.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Store is the producer-facing command surface. It holds no notification
// state; it only fans events out to subscribers. A Store is created once per
// process and handed to producers and the Engine explicitly.
type Store struct {
	mu          sync.Mutex
	subscribers []subscription
	nextSub     uint64
	newID       func() string
}

// NewStore creates an empty store that generates UUIDs for id-less
// notifications.
func NewStore() *Store {
	return &Store{newID: uuid.NewString}
}

// Subscribe registers fn for every future event. The returned function
// removes the subscription and is safe to call more than once.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Add publishes n, assigning an id when it has none, and returns the id.
// The notification is used as given: a zero Duration on a non-persistent
// notification dismisses it immediately. Use Notify for defaults.
func (s *Store) Add(n Notification) string {
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.Type == "" {
		n.Type = TypeDefault
	}
	s.publish(Event{Kind: EventAdd, Notification: n, ID: n.ID})
	return n.ID
}

// Notify builds a notification with DefaultDuration and the given options
// and publishes it.
func (s *Store) Notify(t Type, msg string, opts ...Option) string {
	return s.Add(New(t, msg, opts...))
}

// Dismiss requests the exit of the notification with id. Unknown ids are
// ignored by the engine. An empty id dismisses everything, like DismissAll.
func (s *Store) Dismiss(id string) {
	s.publish(Event{Kind: EventDismiss, ID: id})
}

// DismissAll dismisses every visible notification and drops the pending
// queue.
func (s *Store) DismissAll() {
	s.publish(Event{Kind: EventDismiss})
}

// Clear drops the pending queue and dismisses every visible notification.
// Removal still waits for exit confirmation.
func (s *Store) Clear() {
	s.publish(Event{Kind: EventClear})
}

// Success publishes a success notification.
func (s *Store) Success(msg string, opts ...Option) string {
	return s.Notify(TypeSuccess, msg, opts...)
}

// Error publishes an error notification.
func (s *Store) Error(msg string, opts ...Option) string {
	return s.Notify(TypeError, msg, opts...)
}

// Warn publishes a warning notification.
func (s *Store) Warn(msg string, opts ...Option) string {
	return s.Notify(TypeWarn, msg, opts...)
}

// Info publishes a TypeDefault notification.
func (s *Store) Info(msg string, opts ...Option) string {
	return s.Notify(TypeDefault, msg, opts...)
}

// Successf publishes a success notification.
func (s *Store) Successf(format string, args ...any) string {
	return s.Success(fmt.Sprintf(format, args...))
}

// Errorf publishes an error notification.
func (s *Store) Errorf(format string, args ...any) string {
	return s.Error(fmt.Sprintf(format, args...))
}

// Warnf publishes a warning notification.
func (s *Store) Warnf(format string, args ...any) string {
	return s.Warn(fmt.Sprintf(format, args...))
}

// Infof publishes a default notification.
func (s *Store) Infof(format string, args ...any) string {
	return s.Info(fmt.Sprintf(format, args...))
}

func (s *Store) publish(e Event) {
	s.mu.Lock()
	subs := make([]subscription, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(e)
	}
}
