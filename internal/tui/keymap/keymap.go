// Package keymap defines the editor's key bindings.
//
// Bindings that are not listed here fall through to the text area, so a
// binding added here shadows the text area's own use of that key.
package keymap

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the application-level bindings. It satisfies help.KeyMap.
type KeyMap struct {
	Save    key.Binding
	SaveAs  key.Binding
	SaveAll key.Binding
	Open    key.Binding
	New     key.Binding
	Close   key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Reload  key.Binding
	Indent  key.Binding
	Help    key.Binding
	Quit    key.Binding

	// Prompt and confirmation bindings
	Accept key.Binding
	Cancel key.Binding
	Yes    key.Binding
	No     key.Binding
}

// Default returns the default key bindings.
func Default() KeyMap {
	return KeyMap{
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^s", "save"),
		),
		SaveAs: key.NewBinding(
			key.WithKeys("alt+s"),
			key.WithHelp("M-s", "save as"),
		),
		SaveAll: key.NewBinding(
			key.WithKeys("alt+a"),
			key.WithHelp("M-a", "save all"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "open"),
		),
		New: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "new tab"),
		),
		Close: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("^w", "close tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("alt+]", "ctrl+pgdown"),
			key.WithHelp("M-]", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("alt+[", "ctrl+pgup"),
			key.WithHelp("M-[", "prev tab"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^r", "reload from disk"),
		),
		Indent: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "indent"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("^g", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("^q", "quit"),
		),

		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "save"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "discard"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Open, k.Close, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Save, k.SaveAs, k.SaveAll, k.Reload},
		{k.Open, k.New, k.Close},
		{k.NextTab, k.PrevTab, k.Indent},
		{k.Help, k.Quit},
	}
}

// ConfirmHelp returns the bindings shown while a close prompt is open.
func (k KeyMap) ConfirmHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No, k.Cancel}
}
