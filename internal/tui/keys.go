package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev        key.Binding
	Next        key.Binding
	Jump        key.Binding
	ToggleView  key.Binding
	Category    key.Binding
	ResetFilter key.Binding
	Hide        key.Binding
	Select      key.Binding
	Refresh     key.Binding
	Export      key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Prev:        key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←", "prev")),
	Next:        key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→", "next")),
	Jump:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "pane")),
	ToggleView:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pie/bars")),
	Category:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
	ResetFilter: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset filter")),
	Hide:        key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide")),
	Select:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "select")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.ToggleView, k.Category, k.Refresh, k.Export, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Jump},
		{k.ToggleView, k.Hide, k.Select},
		{k.Category, k.ResetFilter},
		{k.Refresh, k.Export, k.Quit},
	}
}
