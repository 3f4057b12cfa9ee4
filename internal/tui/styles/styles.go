// Package styles holds the lipgloss styles used by the editor UI.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles is the full set of styles derived from one palette.
type Styles struct {
	Mode    Mode
	Palette *ColorPalette

	// Tab bar
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabDirty    lipgloss.Style
	TabOverflow lipgloss.Style
	TabBar      lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusInfo  lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusError lipgloss.Style
	StatusOK    lipgloss.Style

	// Prompt line
	PromptLabel lipgloss.Style
	Confirm     lipgloss.Style

	// Help bar
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// New builds the styles for a resolved mode.
func New(mode Mode) Styles {
	p := PaletteFor(mode)
	return Styles{
		Mode:    mode,
		Palette: p,

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 1),
		TabDirty: lipgloss.NewStyle().
			Foreground(p.Dirty),
		TabOverflow: lipgloss.NewStyle().
			Foreground(p.Muted),
		TabBar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface),
		StatusWarn: lipgloss.NewStyle().
			Foreground(p.Warning).
			Background(p.Surface).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.Error).
			Background(p.Surface).
			Bold(true),
		StatusOK: lipgloss.NewStyle().
			Foreground(p.Secondary).
			Background(p.Surface),

		PromptLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),
		Confirm: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Warning).
			Bold(true).
			Padding(0, 1),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),
		HelpDesc: lipgloss.NewStyle().
			Foreground(p.Muted),
	}
}

// ForConfig resolves a configured theme mode string and builds its styles.
func ForConfig(mode string) Styles {
	return New(Resolve(Mode(mode), nil))
}
