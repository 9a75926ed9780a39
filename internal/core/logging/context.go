package logging

import "context"

type contextKey string

const (
	scriptKey contextKey = "script"
	stepKey   contextKey = "step"
)

// WithScript adds the name of the running scenario script to the context.
func WithScript(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, scriptKey, name)
}

// WithStep adds the 1-based index of the current script step to the context.
func WithStep(ctx context.Context, step int) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// GetScript retrieves the script name from the context.
// Returns empty string if not present.
func GetScript(ctx context.Context) string {
	if name, ok := ctx.Value(scriptKey).(string); ok {
		return name
	}
	return ""
}

// GetStep retrieves the step index from the context. The boolean is false
// when no step was recorded.
func GetStep(ctx context.Context) (int, bool) {
	step, ok := ctx.Value(stepKey).(int)
	return step, ok
}
