package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	Inc      key.Binding
	Dec      key.Binding
	Left     key.Binding
	Right    key.Binding
	BigLeft  key.Binding
	BigRight key.Binding
	Min      key.Binding
	Max      key.Binding
	Type     key.Binding

	Undo    key.Binding
	Save    key.Binding
	Discard key.Binding
	Reload  key.Binding

	Add    key.Binding
	Delete key.Binding
	Search key.Binding
	Status key.Binding
	Reset  key.Binding
	Export key.Binding
	Copy   key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "bottom")),

		Inc:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "step")),
		Dec:      key.NewBinding(key.WithKeys("-", "_")),
		Left:     key.NewBinding(key.WithKeys("left", "h")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("←/→", "adjust")),
		BigLeft:  key.NewBinding(key.WithKeys("shift+left", "H")),
		BigRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("shift+←/→", "±5")),
		Min:      key.NewBinding(key.WithKeys("home")),
		Max:      key.NewBinding(key.WithKeys("end")),
		Type:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "type value")),

		Undo:    key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		Save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Discard: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "discard")),
		Reload:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),

		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Status: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset filters")),
		Export: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy csv")),

		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is the footer line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Inc, k.Right, k.Type, k.Undo, k.Save, k.Add, k.Delete, k.Search, k.Status, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Inc, k.Right, k.BigRight, k.Type},
		{k.Undo, k.Save, k.Discard, k.Reload},
		{k.Add, k.Delete, k.Search, k.Status, k.Reset, k.Export, k.Copy},
		{k.Help, k.Quit},
	}
}
