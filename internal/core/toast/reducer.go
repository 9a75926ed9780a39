package toast

import (
	"slices"
	"time"
)

// ActionKind identifies a reducer transition.
type ActionKind int

const (
	ActionAdd ActionKind = iota
	ActionDismiss
	ActionRemove
	ActionClear
)

func (k ActionKind) String() string {
	switch k {
	case ActionAdd:
		return "add"
	case ActionDismiss:
		return "dismiss"
	case ActionRemove:
		return "remove"
	case ActionClear:
		return "clear"
	}
	return "unknown"
}

// Action is a single reducer input. At stamps admissions and promotions.
type Action struct {
	Kind         ActionKind
	Notification Notification // ActionAdd
	ID           string       // ActionDismiss (empty = all), ActionRemove
	At           time.Time
}

// Placement reports where an id lives in a State.
type Placement int

const (
	PlacementNone Placement = iota
	PlacementVisible
	PlacementPending
)

// State is the authoritative lifecycle state. Visible is in display order,
// Pending in arrival order.
type State struct {
	Visible []Notification
	Pending []Notification
}

// Clone returns a deep copy of the slices.
func (s State) Clone() State {
	return State{
		Visible: slices.Clone(s.Visible),
		Pending: slices.Clone(s.Pending),
	}
}

// Lookup finds id in either set.
func (s State) Lookup(id string) (Notification, Placement) {
	if i := indexOf(s.Visible, id); i >= 0 {
		return s.Visible[i], PlacementVisible
	}
	if i := indexOf(s.Pending, id); i >= 0 {
		return s.Pending[i], PlacementPending
	}
	return Notification{}, PlacementNone
}

// Len returns the number of tracked notifications.
func (s State) Len() int {
	return len(s.Visible) + len(s.Pending)
}

// Reduce returns the state that results from applying a to s. It never
// mutates s and never fails; unknown ids leave the state unchanged.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a.Kind {
	case ActionAdd:
		return reduceAdd(next, a)
	case ActionDismiss:
		if a.ID == "" {
			return dismissAll(next)
		}
		return reduceDismiss(next, a.ID)
	case ActionRemove:
		return reduceRemove(next, a)
	case ActionClear:
		return dismissAll(next)
	}

	return next
}

func reduceAdd(s State, a Action) State {
	n := a.Notification
	n.Dismissed = false

	if i := indexOf(s.Visible, n.ID); i >= 0 {
		current := s.Visible[i]
		if current.Dismissed {
			// Exiting entries are never re-admitted by a duplicate add.
			return s
		}
		// Content is replaced; display time keeps running.
		n.CreatedAt = current.CreatedAt
		n.Duration = current.Duration
		n.Persist = current.Persist
		s.Visible[i] = n
		return s
	}

	if i := indexOf(s.Pending, n.ID); i >= 0 {
		n.CreatedAt = time.Time{}
		s.Pending[i] = n
		return s
	}

	if len(s.Visible) < MaxVisible {
		n.CreatedAt = a.At
		s.Visible = append(s.Visible, n)
		return s
	}

	n.CreatedAt = time.Time{}
	s.Pending = append(s.Pending, n)
	return s
}

func reduceDismiss(s State, id string) State {
	if i := indexOf(s.Visible, id); i >= 0 {
		s.Visible[i].Dismissed = true
		return s
	}
	if i := indexOf(s.Pending, id); i >= 0 {
		s.Pending = slices.Delete(s.Pending, i, i+1)
	}
	return s
}

func dismissAll(s State) State {
	for i := range s.Visible {
		s.Visible[i].Dismissed = true
	}
	s.Pending = nil
	return s
}

func reduceRemove(s State, a Action) State {
	i := indexOf(s.Visible, a.ID)
	if i < 0 {
		return s
	}
	s.Visible = slices.Delete(s.Visible, i, i+1)

	if len(s.Visible) < MaxVisible && len(s.Pending) > 0 {
		head := s.Pending[0]
		s.Pending = slices.Delete(s.Pending, 0, 1)
		head.CreatedAt = a.At
		head.Dismissed = false
		s.Visible = append(s.Visible, head)
	}

	return s
}

func indexOf(list []Notification, id string) int {
	return slices.IndexFunc(list, func(n Notification) bool { return n.ID == id })
}
