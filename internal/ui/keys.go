package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	SignOut    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Open   key.Binding

	// Table
	ToggleSelect  key.Binding
	SelectAll     key.Binding
	CycleFilter   key.Binding
	CycleSort     key.Binding
	ReverseSort   key.Binding
	ToggleColumns key.Binding
	Autoload      key.Binding
	Search        key.Binding

	// Job actions
	Kill    key.Binding
	Eat     key.Binding
	Retry   key.Binding
	Pause   key.Binding
	Unpause key.Binding

	// Unmonitor
	UnmonitorSelected key.Binding
	UnmonitorPaused   key.Binding
	UnmonitorFinished key.Binding
	UnmonitorAll      key.Binding

	// Logs
	ToggleFollow key.Binding
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
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Sign out"),
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
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),

		ToggleSelect: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Select row"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Select all"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle state filter"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort column"),
		),
		ReverseSort: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Reverse sort"),
		),
		ToggleColumns: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Show/hide extra columns"),
		),
		Autoload: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Autoload my jobs"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search jobs"),
		),

		Kill: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "Kill"),
		),
		Eat: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "Eat dead frames"),
		),
		Retry: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Retry dead frames"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pause"),
		),
		Unpause: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Unpause"),
		),

		UnmonitorSelected: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Unmonitor selected"),
		),
		UnmonitorPaused: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "Unmonitor paused"),
		),
		UnmonitorFinished: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "Unmonitor finished"),
		),
		UnmonitorAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Unmonitor all"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Toggle follow mode"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.ToggleSelect, k.CycleFilter, k.Open, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Open, k.Escape},
		{k.ToggleSelect, k.SelectAll, k.CycleFilter, k.CycleSort, k.ReverseSort, k.ToggleColumns, k.Autoload, k.Search},
		{k.Kill, k.Eat, k.Retry, k.Pause, k.Unpause},
		{k.UnmonitorSelected, k.UnmonitorPaused, k.UnmonitorFinished, k.UnmonitorAll},
		{k.ToggleFollow, k.CycleTheme, k.SignOut, k.Help, k.Quit},
	}
}
