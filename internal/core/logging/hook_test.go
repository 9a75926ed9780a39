package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "script and step",
			setupCtx: func() context.Context {
				ctx := WithScript(context.Background(), "burst.yaml")
				return WithStep(ctx, 4)
			},
			wantKeys: []string{"script", "step"},
		},
		{
			name: "only script",
			setupCtx: func() context.Context {
				return WithScript(context.Background(), "burst.yaml")
			},
			wantKeys:  []string{"script"},
			wantEmpty: []string{"step"},
		},
		{
			name: "step zero is still recorded",
			setupCtx: func() context.Context {
				return WithStep(context.Background(), 0)
			},
			wantKeys:  []string{"step"},
			wantEmpty: []string{"script"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"script", "step"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(tt.setupCtx()).Msg("test")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			for _, key := range tt.wantKeys {
				assert.Contains(t, entry, key)
			}
			for _, key := range tt.wantEmpty {
				assert.NotContains(t, entry, key)
			}
		})
	}
}
