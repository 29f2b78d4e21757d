package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the browser.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Activity   key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Editing
	Rename       key.Binding
	EditNotes    key.Binding
	ToggleStatus key.Binding
	Undo         key.Binding
	Redo         key.Binding
	Commit       key.Binding
	Discard      key.Binding
	DiscardItem  key.Binding

	// Loading
	NextPage key.Binding
	Refresh  key.Binding
	Inspect  key.Binding
	Cancel   key.Binding

	// Input
	Confirm key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Activity: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Toggle activity pane"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Rename: key.NewBinding(
			key.WithKeys("enter", "r"),
			key.WithHelp("enter/r", "Rename item"),
		),
		EditNotes: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Edit notes"),
		),
		ToggleStatus: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s/space", "Cycle status"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("U", "ctrl+r"),
			key.WithHelp("U/ctrl+r", "Redo"),
		),
		Commit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Commit and save edits"),
		),
		Discard: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Discard all edits"),
		),
		DiscardItem: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Discard edits to item"),
		),

		NextPage: key.NewBinding(
			key.WithKeys("m", "pgdown"),
			key.WithHelp("m", "Load more"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "ctrl+l"),
			key.WithHelp("R", "Refresh"),
		),
		Inspect: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Fetch item detail"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Cancel loads"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel edit / close detail"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Rename, k.ToggleStatus, k.Undo, k.Commit, k.NextPage, k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Rename, k.EditNotes, k.ToggleStatus},
		{k.Undo, k.Redo, k.Commit, k.Discard, k.DiscardItem},
		{k.NextPage, k.Refresh, k.Inspect, k.Cancel, k.Escape},
		{k.Activity, k.CycleTheme, k.Help, k.Quit},
	}
}
