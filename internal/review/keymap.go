package review

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review key bindings.
type KeyMap struct {
	Next, Prev           key.Binding
	Accept, Reject       key.Binding
	AcceptAll, RejectAll key.Binding
	Quit, Abort          key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(key.WithKeys("n", "j", "down", "tab"), key.WithHelp("n", "next")),
		Prev: key.NewBinding(key.WithKeys("p", "k", "up", "shift+tab"), key.WithHelp("p", "prev")),

		Accept: key.NewBinding(key.WithKeys("a", "y", "enter"), key.WithHelp("a", "accept")),
		Reject: key.NewBinding(key.WithKeys("r", "x", "backspace"), key.WithHelp("r", "reject")),

		AcceptAll: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "accept all")),
		RejectAll: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reject all")),

		Quit:  key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "save & quit")),
		Abort: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit without saving")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Next, k.Prev, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Accept, k.Reject, k.AcceptAll, k.RejectAll},
		{k.Next, k.Prev, k.Quit, k.Abort},
	}
}
