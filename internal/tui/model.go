// Package tui is a terminal front end for the weather widget.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fakhrymubarak/weather-widget/internal/conditions"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/service"
)

type focus int

const (
	focusInput focus = iota
	focusForecast
)

// stateMsg carries a snapshot published by the widget.
type stateMsg service.State

// searchDoneMsg is sent when a search started from the UI returns.
type searchDoneMsg struct{}

type Model struct {
	ctx    context.Context
	widget service.WidgetInterface
	units  string

	input  textinput.Model
	focus  focus
	cursor int
	state  service.State
	keyMap KeyMap
	width  int
}

func NewModel(ctx context.Context, widget service.WidgetInterface, units string) Model {
	m := Model{
		ctx:    ctx,
		widget: widget,
		units:  units,
		state:  widget.State(),
		keyMap: DefaultKeyMap,
	}
	m.input = textinput.New()
	m.input.Placeholder = "Search City"
	m.input.CharLimit = 64
	m.input.Focus()
	m.updateKeyBindings()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(m.widget.InitialLoad))
}

// run starts a widget operation off the UI loop. Widget calls publish to the program,
// so they must never run inside Update.
func (m Model) run(op func(context.Context) service.State) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		op(ctx)
		return searchDoneMsg{}
	}
}

func (m Model) search(city string) tea.Cmd {
	return m.run(func(ctx context.Context) service.State {
		m.widget.SetInput(city)
		return m.widget.Search(ctx, model.CityQuery(city))
	})
}

func (m Model) selectDay(index int) tea.Cmd {
	return m.run(func(context.Context) service.State {
		state, _ := m.widget.SelectForecastIndex(index)
		return state
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Locate):
			return m, m.run(m.widget.SearchByLocation)

		case key.Matches(msg, m.keyMap.ToggleFocus):
			if m.focus == focusInput {
				m.focus = focusForecast
				m.input.Blur()
			} else {
				m.focus = focusInput
				cmd = m.input.Focus()
			}
			m.updateKeyBindings()
			return m, cmd

		case key.Matches(msg, m.keyMap.PrevDay):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keyMap.NextDay):
			if m.cursor < len(m.state.Forecast)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keyMap.Submit):
			if m.focus == focusForecast {
				return m, m.selectDay(m.cursor)
			}
			m.state.Input = m.input.Value()
			return m, m.search(m.input.Value())

		default:
			if m.focus == focusInput {
				m.input, cmd = m.input.Update(msg)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case stateMsg:
		m.setState(service.State(msg))

	case searchDoneMsg:
		m.setState(m.widget.State())

	default:
		if m.focus == focusInput {
			m.input, cmd = m.input.Update(msg)
		}
	}

	return m, cmd
}

// setState takes a new snapshot. The search field follows the widget only when the
// widget's input changes, so text typed since the last search is kept.
func (m *Model) setState(s service.State) {
	if s.Input != m.state.Input {
		m.input.SetValue(s.Input)
	}
	m.state = s
	if n := len(s.Forecast); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if len(s.Forecast) == 0 && m.focus == focusForecast {
		m.focus = focusInput
		m.input.Focus()
	}
	m.updateKeyBindings()
}

func (m Model) View() string {
	screen := render.Build(m.state, m.units)
	style := StylesFor(screen.Background)
	if m.width > 0 && m.width < cardWidth+4 {
		style.Card = style.Card.Width(m.width - 4)
	}

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch screen.Branch {
	case render.BranchLoading:
		b.WriteString(screen.Message)
	case render.BranchError:
		b.WriteString(style.Error.Render(screen.Message))
	case render.BranchWeather:
		w := screen.Weather
		b.WriteString(render.Glyph(w.Icon) + "  " + style.Temperature.Render(w.Temperature) + "\n")
		b.WriteString(style.Location.Render(w.Location) + "\n\n")
		b.WriteString(render.Glyph(conditions.IconHumidity) + " " + w.Humidity + " Humidity    ")
		b.WriteString(render.Glyph(conditions.IconWind) + " " + w.Wind + " Wind\n\n")
		b.WriteString(render.ForecastHead + "\n")
		b.WriteString(m.forecastStrip(screen.Forecast, style))
	}

	return style.Card.Render(b.String()) + "\n" + m.helpView(style)
}

func (m Model) forecastStrip(items []render.ForecastItem, style *Style) string {
	cells := make([]string, 0, len(items))
	for _, item := range items {
		cell := item.Day + "\n" + render.Glyph(item.Icon) + "\n" + item.Temp
		if m.focus == focusForecast && item.Index == m.cursor {
			cells = append(cells, style.SelectedItem.Render(cell))
		} else {
			cells = append(cells, style.ForecastItem.Render(cell))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) helpView(style *Style) string {
	parts := make([]string, 0, len(m.keyMap.help()))
	for _, b := range m.keyMap.help() {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return style.Muted.Render(strings.Join(parts, " • "))
}

// Run drives the widget from the terminal until the user quits.
func Run(ctx context.Context, widget service.WidgetInterface, units string) error {
	p := tea.NewProgram(NewModel(ctx, widget, units), tea.WithContext(ctx))
	unsubscribe := widget.Subscribe(func(s service.State) {
		p.Send(stateMsg(s))
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}
