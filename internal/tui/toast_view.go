package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/toaster/internal/core/styles"
)

// toastChrome is the horizontal space taken by the border and padding.
const toastChrome = 4

type toastTickMsg time.Time

func scheduleToastTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders toast notifications and composites them as an overlay.
type ToastView struct {
	controller *ToastController
	width      int
}

func NewToastView(controller *ToastController, width int) *ToastView {
	return &ToastView{controller: controller, width: width}
}

// View renders the toast stack as a single string with toasts stacked
// vertically (oldest at top, newest at bottom), followed by a queue marker
// when notifications are waiting for a slot.
func (v *ToastView) View() string {
	items := v.controller.Toasts()
	if len(items) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(items)+1)
	for _, item := range items {
		rendered = append(rendered, v.renderToast(item))
	}

	if pending := v.controller.Pending(); pending > 0 {
		marker := fmt.Sprintf("%s +%d queued", styles.IconQueued, pending)
		rendered = append(rendered, styles.MutedStyle.Width(v.width).Align(lipgloss.Right).Render(marker))
	}

	return strings.Join(rendered, "\n")
}

func (v *ToastView) renderToast(item ToastItem) string {
	style, icon := styles.ToastStyle(item.Notification.Type)
	inner := max(v.width-toastChrome, 1)

	marker := ""
	switch {
	case item.Notification.Persist:
		marker = " " + styles.IconPinned
	case item.Paused:
		marker = " " + styles.IconPaused
	}

	text := ansi.Truncate(item.Notification.Message, max(inner-ansi.StringWidth(icon+" "+marker), 1), "…")
	content := icon + " " + text + marker

	if bar := progressBar(item, inner); bar != "" {
		content += "\n" + bar
	}

	if item.Exiting {
		content = styles.ToastExitingStyle.Render(content)
	}
	if item.Focused {
		style = style.BorderStyle(styles.ToastFocusedStyle.GetBorderStyle()).
			BorderForeground(styles.ColorPrimary)
	}

	return style.Width(v.width).Render(content)
}

// progressBar draws the remaining countdown, or the exit animation while the
// notification leaves. Persistent notifications have no bar.
func progressBar(item ToastItem, width int) string {
	var frac float64
	switch {
	case item.Exiting:
		frac = 1 - item.ExitProgress
	case item.Notification.Persist || item.Notification.Duration <= 0:
		return ""
	default:
		frac = float64(item.Remaining) / float64(item.Notification.Duration)
	}

	filled := int(min(max(frac, 0), 1) * float64(width))
	return styles.ProgressFilledStyle.Render(strings.Repeat("━", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("━", width-filled))
}

// Overlay composites the toast stack over background in the lower-right corner.
func (v *ToastView) Overlay(background string, width, height int) string {
	toastContent := v.View()
	if toastContent == "" {
		return background
	}

	bgLayer := lipgloss.NewLayer(background)
	toastLayer := lipgloss.NewLayer(toastContent)

	toastW := lipgloss.Width(toastContent)
	toastH := lipgloss.Height(toastContent)

	rightX := max(width-toastW-1, 0)
	bottomY := max(height-toastH, 0)

	toastLayer.X(rightX).Y(bottomY).Z(2)

	compositor := lipgloss.NewCompositor(bgLayer, toastLayer)
	return compositor.Render()
}
