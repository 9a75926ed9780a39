// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within toaster.
package eventbus

import (
	"time"

	"github.com/colonyops/toaster/internal/core/config"
)

// Event names a domain event.
type Event string

// Keep list sorted A-Z.
const (
	EventConfigInvalid  Event = "config.invalid"
	EventConfigReloaded Event = "config.reloaded"
	EventScheduleFired  Event = "schedule.fired"
	EventTuiStarted     Event = "tui.started"
	EventTuiStopped     Event = "tui.stopped"
)

// Events lists every event the bus carries.
var Events = []Event{
	EventConfigInvalid,
	EventConfigReloaded,
	EventScheduleFired,
	EventTuiStarted,
	EventTuiStopped,
}

// ConfigReloadedPayload is emitted when configuration is reloaded.
type ConfigReloadedPayload struct {
	Config *config.Config
}

// ConfigInvalidPayload is emitted when a changed config file fails to load.
// The previous configuration stays active.
type ConfigInvalidPayload struct {
	Path string
	Err  error
}

// ScheduleFiredPayload is emitted when a cron schedule fires.
type ScheduleFiredPayload struct {
	Schedule config.Schedule
	FiredAt  time.Time
}

// TUIStartedPayload is emitted when the TUI starts.
type TUIStartedPayload struct{}

// TUIStoppedPayload is emitted when the TUI stops.
type TUIStoppedPayload struct{}
