// Package tui: keyboard binding configuration.
package tui

// Keymap defines all keyboard shortcuts for the TUI.
type Keymap struct {
	Quit    string
	TabNext string
	TabPrev string
	NavUp   string
	NavDown string
	Select  string
	Scans   string
	Metrics string
	Stop    string
	Help    string
}

// defaultKeymap returns the default AutoDoc TUI key bindings.
func defaultKeymap() Keymap {
	return Keymap{
		Quit:    "q",
		TabNext: "tab",
		TabPrev: "shift+tab",
		NavUp:   "up",
		NavDown: "down",
		Select:  "enter",
		Scans:   "s",
		Metrics: "m",
		Stop:    "x",
		Help:    "?",
	}
}
