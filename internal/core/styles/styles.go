// Package styles provides shared lipgloss v2 styles for CLI and TUI components.
package styles

import (
	"image/color"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/toaster/internal/core/toast"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Exported color aliases for convenience.
var (
	ColorPrimary    color.Color
	ColorForeground color.Color
	ColorMuted      color.Color
	ColorBackground color.Color
	ColorSurface    color.Color
	ColorInfo       color.Color
	ColorSuccess    color.Color
	ColorWarning    color.Color
	ColorError      color.Color
)

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style
	PassStyle          lipgloss.Style
	WarnStyle          lipgloss.Style
	FailStyle          lipgloss.Style

	// Dashboard chrome.
	TitleStyle  lipgloss.Style
	MutedStyle  lipgloss.Style
	HelpStyle   lipgloss.Style
	StatusStyle lipgloss.Style

	// Toasts.
	ToastInfoStyle    lipgloss.Style
	ToastSuccessStyle lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
	ToastFocusedStyle lipgloss.Style
	ToastExitingStyle lipgloss.Style

	ProgressFilledStyle lipgloss.Style
	ProgressEmptyStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	ColorPrimary = p.Primary
	ColorForeground = p.Foreground
	ColorMuted = p.Muted
	ColorBackground = p.Background
	ColorSurface = p.Surface
	ColorInfo = p.Info
	ColorSuccess = p.Success
	ColorWarning = p.Warning
	ColorError = p.Error

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	PassStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarnStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	FailStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	MutedStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)
	StatusStyle = lipgloss.NewStyle().
		Foreground(ColorForeground).
		Background(ColorSurface).
		Padding(0, 1)

	toastBase := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Foreground(ColorForeground).
		Padding(0, 1)
	ToastInfoStyle = toastBase.BorderForeground(ColorInfo)
	ToastSuccessStyle = toastBase.BorderForeground(ColorSuccess)
	ToastWarningStyle = toastBase.BorderForeground(ColorWarning)
	ToastErrorStyle = toastBase.BorderForeground(ColorError)
	ToastFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(ColorPrimary)
	ToastExitingStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Faint(true)

	ProgressFilledStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	ProgressEmptyStyle = lipgloss.NewStyle().Foreground(ColorSurface)
}

// SetThemeByName activates a built-in theme. It reports false for unknown
// names and leaves the current theme in place.
func SetThemeByName(name string) bool {
	p, ok := GetPalette(name)
	if ok {
		SetTheme(p)
	}
	return ok
}

// ToastStyle returns the base style and icon for a notification type.
func ToastStyle(t toast.Type) (lipgloss.Style, string) {
	switch t {
	case toast.TypeSuccess:
		return ToastSuccessStyle, IconToastSuccess
	case toast.TypeError:
		return ToastErrorStyle, IconToastError
	case toast.TypeWarn:
		return ToastWarningStyle, IconToastWarning
	default:
		return ToastInfoStyle, IconToastInfo
	}
}

// TypeColor returns the accent color for a notification type.
func TypeColor(t toast.Type) color.Color {
	switch t {
	case toast.TypeSuccess:
		return ColorSuccess
	case toast.TypeError:
		return ColorError
	case toast.TypeWarn:
		return ColorWarning
	default:
		return ColorInfo
	}
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
