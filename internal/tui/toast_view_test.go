package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toaster/internal/core/styles"
	"github.com/colonyops/toaster/internal/core/toast"
	"github.com/colonyops/toaster/pkg/tuitest"
)

const testToastWidth = 40

func newTestView(t *testing.T) (*harness, *ToastView) {
	h := newHarness(t)
	return h, NewToastView(h.ctrl, testToastWidth)
}

func TestToastView_View_empty(t *testing.T) {
	_, v := newTestView(t)
	assert.Empty(t, v.View())
}

func TestToastView_View_renders_each_type(t *testing.T) {
	tests := []struct {
		typ  toast.Type
		icon string
	}{
		{toast.TypeError, styles.IconToastError},
		{toast.TypeWarn, styles.IconToastWarning},
		{toast.TypeSuccess, styles.IconToastSuccess},
		{toast.TypeDefault, styles.IconToastInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			h, v := newTestView(t)

			h.store.Notify(tt.typ, "test msg")
			h.sync()

			out := v.View()
			require.NotEmpty(t, out)
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "test msg")
		})
	}
}

func TestToastView_View_stacks_multiple(t *testing.T) {
	h, v := newTestView(t)

	h.store.Info("first")
	h.store.Error("second")
	h.sync()

	out := v.View()
	firstIdx := strings.Index(out, "first")
	secondIdx := strings.Index(out, "second")

	require.NotEqual(t, -1, firstIdx)
	require.NotEqual(t, -1, secondIdx)
	// Oldest (first) should appear before newest (second) in the output.
	assert.Less(t, firstIdx, secondIdx)
}

func TestToastView_View_shows_queue_marker(t *testing.T) {
	h, v := newTestView(t)

	for range toast.MaxVisible + 3 {
		h.store.Info("x")
	}
	h.sync()

	assert.Contains(t, v.View(), "+3 queued")
}

func TestToastView_View_markers(t *testing.T) {
	h, v := newTestView(t)

	h.store.Warn("pinned", toast.WithID("pin"), toast.Persistent())
	h.add("held", time.Minute)
	h.ctrl.FocusNext()
	h.ctrl.FocusNext()
	h.sync()

	out := v.View()
	assert.Contains(t, out, styles.IconPinned)
	assert.Contains(t, out, styles.IconPaused)
}

func TestToastView_View_truncates_long_messages(t *testing.T) {
	h, v := newTestView(t)

	h.store.Info(strings.Repeat("word ", 40))
	h.sync()

	for _, line := range strings.Split(v.View(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), testToastWidth+2, "border may sit outside the width")
	}
	assert.Contains(t, v.View(), "…")
}

func TestProgressBar(t *testing.T) {
	n := toast.Notification{Duration: 4 * time.Second}

	full := progressBar(ToastItem{Notification: n, Remaining: 4 * time.Second}, 10)
	half := progressBar(ToastItem{Notification: n, Remaining: 2 * time.Second}, 10)

	assert.Equal(t, 10, strings.Count(tuitest.StripANSI(full), "━"))
	assert.Equal(t, 10, strings.Count(tuitest.StripANSI(half), "━"))
	assert.NotEqual(t, full, half)

	assert.Empty(t, progressBar(ToastItem{Notification: toast.Notification{Persist: true}}, 10))
	assert.NotEmpty(t, progressBar(ToastItem{Notification: n, Exiting: true, ExitProgress: 0.5}, 10))
}

func TestToastView_Overlay_empty_returns_background(t *testing.T) {
	_, v := newTestView(t)

	bg := "background content"
	assert.Equal(t, bg, v.Overlay(bg, 80, 24))
}

func TestToastView_Overlay_positions_lower_right(t *testing.T) {
	h, v := newTestView(t)

	h.store.Info("positioned")
	h.sync()

	width := 120
	height := 40

	// Build a proper background grid.
	row := strings.Repeat(" ", width)
	rows := make([]string, height)
	for i := range rows {
		rows[i] = row
	}
	bg := strings.Join(rows, "\n")

	out := v.Overlay(bg, width, height)

	// The toast content should be present in the composited output.
	assert.Contains(t, out, "positioned")

	lines := strings.Split(out, "\n")
	toastLine := -1
	for i, line := range lines {
		if idx := strings.Index(line, "positioned"); idx >= 0 {
			toastLine = i
			assert.Greater(t, ansi.StringWidth(line[:idx]), width/2, "toast should be on the right")
			break
		}
	}
	require.NotEqual(t, -1, toastLine, "toast text not found in output lines")
	assert.Greater(t, toastLine, height/2, "toast should be in the lower half")
}
