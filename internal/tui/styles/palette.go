package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Mode is the configured theme mode.
type Mode string

// Theme modes.
const (
	ModeLight  Mode = "light"
	ModeDark   Mode = "dark"
	ModeSystem Mode = "system" // follow the terminal background
)

// ColorPalette defines the color scheme for a theme.
// All colors should meet WCAG AA contrast requirements (4.5:1 ratio).
type ColorPalette struct {
	// Primary accent color (active tab, prompt label)
	Primary lipgloss.Color
	// Secondary accent color (help keys, success messages)
	Secondary lipgloss.Color
	// Warning color (stale documents, pending close)
	Warning lipgloss.Color
	// Error color (failed saves)
	Error lipgloss.Color
	// Muted color (inactive tabs, help text)
	Muted lipgloss.Color
	// Surface color (status bar background)
	Surface lipgloss.Color
	// Text color (primary text)
	Text lipgloss.Color
	// Border color (separators)
	Border lipgloss.Color
	// Dirty marks a tab with unsaved changes
	Dirty lipgloss.Color
}

// DarkPalette returns the purple/green palette for dark terminals.
func DarkPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#A78BFA"), // Purple (violet-400)
		Secondary: lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#F87171"), // Red (red-400)
		Muted:     lipgloss.Color("#9CA3AF"), // Gray
		Surface:   lipgloss.Color("#1F2937"), // Dark surface
		Text:      lipgloss.Color("#F9FAFB"), // Light text
		Border:    lipgloss.Color("#6B7280"), // Gray-500
		Dirty:     lipgloss.Color("#FBBF24"), // Yellow
	}
}

// LightPalette returns a palette for light terminals. Accents are darkened
// so they keep contrast on a white background.
func LightPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#6D28D9"), // Purple (violet-700)
		Secondary: lipgloss.Color("#047857"), // Green (emerald-700)
		Warning:   lipgloss.Color("#B45309"), // Amber-700
		Error:     lipgloss.Color("#B91C1C"), // Red-700
		Muted:     lipgloss.Color("#4B5563"), // Gray-600
		Surface:   lipgloss.Color("#E5E7EB"), // Gray-200
		Text:      lipgloss.Color("#111827"), // Gray-900
		Border:    lipgloss.Color("#9CA3AF"), // Gray-400
		Dirty:     lipgloss.Color("#B45309"), // Amber-700
	}
}

// Resolve maps a configured mode to light or dark. System mode asks the
// terminal via hasDark; unknown modes fall back to dark.
func Resolve(mode Mode, hasDark func() bool) Mode {
	switch mode {
	case ModeLight, ModeDark:
		return mode
	case ModeSystem:
		if hasDark == nil {
			hasDark = lipgloss.HasDarkBackground
		}
		if hasDark() {
			return ModeDark
		}
		return ModeLight
	default:
		return ModeDark
	}
}

// PaletteFor returns the palette for a resolved mode.
func PaletteFor(mode Mode) *ColorPalette {
	if mode == ModeLight {
		return LightPalette()
	}
	return DarkPalette()
}
