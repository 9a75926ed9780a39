package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"

	"github.com/colonyops/toaster/internal/core/styles"
)

// KeyMap holds the dashboard bindings.
type KeyMap struct {
	Success    key.Binding
	Error      key.Binding
	Warn       key.Binding
	Info       key.Binding
	Persistent key.Binding
	Burst      key.Binding
	Next       key.Binding
	Prev       key.Binding
	Blur       key.Binding
	Activate   key.Binding
	Dismiss    key.Binding
	DismissAll key.Binding
	Clear      key.Binding
	Up         key.Binding
	Down       key.Binding
	Fire       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the built-in bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Success:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "success")),
		Error:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "error")),
		Warn:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "warn")),
		Info:       key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "info")),
		Persistent: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pinned")),
		Burst:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "burst")),
		Next:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus next")),
		Prev:       key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "focus prev")),
		Blur:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "unfocus")),
		Activate:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Dismiss:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		DismissAll: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "dismiss all")),
		Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Fire:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fire schedule")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// HelpRows groups the bindings for the help footer.
func (k KeyMap) HelpRows() [][]key.Binding {
	return [][]key.Binding{
		{k.Success, k.Error, k.Warn, k.Info, k.Persistent, k.Burst},
		{k.Next, k.Prev, k.Blur, k.Activate, k.Dismiss, k.DismissAll, k.Clear},
		{k.Up, k.Down, k.Fire, k.Quit},
	}
}

func renderHelp(rows [][]key.Binding) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row))
		for _, b := range row {
			if !b.Enabled() {
				continue
			}
			h := b.Help()
			parts = append(parts, h.Key+" "+h.Desc)
		}
		lines = append(lines, strings.Join(parts, " • "))
	}
	return styles.HelpStyle.Render(strings.Join(lines, "\n"))
}
