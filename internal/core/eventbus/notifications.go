package eventbus

import (
	"fmt"
	"strings"

	"github.com/colonyops/toaster/internal/core/toast"
)

// Fixed ids keep repeated config notifications from stacking: a second
// reload replaces the first toast in place.
const (
	configReloadedToastID = "config.reloaded"
	configInvalidToastID  = "config.invalid"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus   *EventBus
	store *toast.Store
}

// NewNotificationRouter constructs a router that turns bus events into toasts
// on store.
func NewNotificationRouter(bus *EventBus, store *toast.Store) *NotificationRouter {
	return &NotificationRouter{bus: bus, store: store}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil || r.store == nil {
		return
	}

	r.bus.SubscribeConfigReloaded(func(p ConfigReloadedPayload) {
		// A fixed config error is resolved by the reload.
		r.store.Dismiss(configInvalidToastID)
		r.store.Success("configuration reloaded", toast.WithID(configReloadedToastID))
	})

	r.bus.SubscribeConfigInvalid(func(p ConfigInvalidPayload) {
		msg := "invalid configuration"
		if p.Err != nil {
			msg = fmt.Sprintf("invalid configuration: %s", firstLine(p.Err.Error()))
		}
		r.store.Error(msg, toast.WithID(configInvalidToastID), toast.Persistent())
	})

	r.bus.SubscribeScheduleFired(func(p ScheduleFiredPayload) {
		n := p.Schedule.Notification()
		n.ID = "schedule." + p.Schedule.Name
		r.store.Add(n)
	})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
