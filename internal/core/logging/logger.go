package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a logger tagged with a component name under the "cmp" key.
// It derives from the global logger, so call it after main has installed
// the configured logger.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
