package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	check    key.Binding
	checkAll key.Binding
	refresh  key.Binding
	open     key.Binding
	remove   key.Binding
	progress key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "albums")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		check:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check")),
		checkAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "check all")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "unwatch")),
		progress: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "progress")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.check, k.checkAll, k.refresh, k.open},
		{k.remove, k.progress, k.back, k.quit},
	}
}
