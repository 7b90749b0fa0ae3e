package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Submit      key.Binding
	Locate      key.Binding
	ToggleFocus key.Binding
	PrevDay     key.Binding
	NextDay     key.Binding
	Quit        key.Binding
}

var DefaultKeyMap = KeyMap{
	Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
	Locate:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "my location")),
	ToggleFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "forecast")),
	PrevDay:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev day")),
	NextDay:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next day")),
	Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

// updateKeyBindings enables the bindings that apply to the focused area.
func (m *Model) updateKeyBindings() {
	onStrip := m.focus == focusForecast
	m.keyMap.PrevDay.SetEnabled(onStrip)
	m.keyMap.NextDay.SetEnabled(onStrip)
	m.keyMap.ToggleFocus.SetEnabled(onStrip || len(m.state.Forecast) > 0)
	if onStrip {
		m.keyMap.Submit.SetHelp("enter", "show day")
	} else {
		m.keyMap.Submit.SetHelp("enter", "search")
	}
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Submit, k.Locate, k.ToggleFocus, k.PrevDay, k.NextDay, k.Quit}
}
