package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts script and step from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if name := GetScript(ctx); name != "" {
		e.Str("script", name)
	}

	if step, ok := GetStep(ctx); ok {
		e.Int("step", step)
	}
}
