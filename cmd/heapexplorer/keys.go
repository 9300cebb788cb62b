package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Tab      key.Binding
	Esc      key.Binding

	// Replay
	Step    key.Binding
	Back    key.Binding
	Finish  key.Binding
	Restart key.Binding

	// Commands
	Validate key.Binding
	Copy     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first block"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last block"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),

		Step: key.NewBinding(
			key.WithKeys("n", " "),
			key.WithHelp("n/space", "replay next op"),
		),
		Back: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "undo last op"),
		),
		Finish: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "replay to end"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart trace"),
		),

		Validate: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "validate heap"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy block"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// helpSections groups bindings for the help overlay.
func (k KeyMap) helpSections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End, k.Tab}},
		{"Replay", []key.Binding{k.Step, k.Back, k.Finish, k.Restart}},
		{"Other", []key.Binding{k.Validate, k.Copy, k.Help, k.Quit}},
	}
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
