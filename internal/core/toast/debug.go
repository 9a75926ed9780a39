package toast

import "github.com/rs/zerolog"

// RegisterDebugLogger registers a hook that logs every lifecycle transition
// at debug level. Stale timer fires and rejected adds are logged at warn
// level since they indicate races with the presentation surface.
func RegisterDebugLogger(e *Engine, logger zerolog.Logger) {
	e.OnTransition(func(tr Transition) {
		evt := logger.Debug()
		if tr.Kind == TransitionStale || tr.Kind == TransitionRejected {
			evt = logger.Warn()
		}

		evt = evt.Str("transition", string(tr.Kind)).Str("toast_id", tr.ID)
		if tr.Reason != "" {
			evt = evt.Str("reason", string(tr.Reason))
		}
		evt.Msg("toast transition")
	})
}
