package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the TUI.
type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Refresh  key.Binding

	// Signals and algorithm screens
	CycleTimeframe key.Binding
	CyclePair      key.Binding
	ToggleWatch    key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),

	CycleTimeframe: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle timeframe")),
	CyclePair:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle pair")),
	ToggleWatch:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "toggle watch")),
}
