package tui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fakhrymubarak/weather-widget/internal/conditions"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWidget struct {
	mu       sync.Mutex
	state    service.State
	searches []model.Query
	inputs   []string
	selected []int
	located  int
	loaded   int
}

func newFakeWidget() *fakeWidget {
	return &fakeWidget{state: service.InitialState()}
}

func (f *fakeWidget) State() service.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeWidget) Search(ctx context.Context, query model.Query) service.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	f.state.Input = ""
	f.state.View = &model.WeatherView{Location: query.City, Temperature: 21, Humidity: 65, WindSpeed: 3.6, Icon: conditions.IconRain}
	f.state.Forecast = []model.ForecastEntry{
		{DtTxt: "2024-05-01 12:00:00", Main: model.MainReadings{Temp: 18.9}, Weather: []model.Condition{{Icon: "13d"}}},
		{DtTxt: "2024-05-02 12:00:00", Main: model.MainReadings{Temp: 17.2}, Weather: []model.Condition{{Icon: "01d"}}},
	}
	f.state.Background = conditions.Classify("10d").Background
	return f.state
}

func (f *fakeWidget) SearchByLocation(ctx context.Context) service.State {
	f.mu.Lock()
	f.located++
	f.mu.Unlock()
	return f.Search(ctx, model.CoordinatesQuery(6.9, 79.8))
}

func (f *fakeWidget) InitialLoad(ctx context.Context) service.State {
	f.mu.Lock()
	f.loaded++
	f.mu.Unlock()
	return f.Search(ctx, model.CityQuery("Colombo"))
}

func (f *fakeWidget) SelectForecastDay(entry model.ForecastEntry) service.State {
	return f.State()
}

func (f *fakeWidget) SelectForecastIndex(index int) (service.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, index)
	if index >= len(f.state.Forecast) {
		return service.State{}, service.ErrForecastIndex
	}
	entry := f.state.Forecast[index]
	f.state = service.SelectForecast(f.state, entry)
	return f.state, nil
}

func (f *fakeWidget) SetInput(input string) service.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	f.state.Input = input
	return f.state
}

func (f *fakeWidget) Subscribe(fn func(service.State)) func() {
	return func() {}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs the command it returns, if it is a widget operation.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if done, ok := cmd().(searchDoneMsg); ok {
		next, _ = m.Update(done)
		m = next.(Model)
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(keyRunes(string(r)))
		m = next.(Model)
	}
	return m
}

func TestModel_SearchOnEnter(t *testing.T) {
	widget := newFakeWidget()
	m := NewModel(context.Background(), widget, "metric")

	m = typeText(t, m, "Paris")
	assert.Equal(t, "Paris", m.input.Value())
	assert.Empty(t, widget.inputs, "typing alone does not touch the widget")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, widget.searches, 1)
	assert.Equal(t, model.CityQuery("Paris"), widget.searches[0])
	assert.Equal(t, []string{"Paris"}, widget.inputs)
	assert.Empty(t, m.input.Value(), "search field follows the cleared widget input")

	view := m.View()
	assert.Contains(t, view, "21°c")
	assert.Contains(t, view, "Paris")
	assert.Contains(t, view, "65 %")
	assert.Contains(t, view, "3.6 m/s")
	assert.Contains(t, view, "Next 5 Days")
	assert.Contains(t, view, "Wed")
	assert.Contains(t, view, "18°")
}

func TestModel_ForecastSelection(t *testing.T) {
	widget := newFakeWidget()
	m := NewModel(context.Background(), widget, "metric")
	m = typeText(t, m, "Paris")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, focusForecast, m.focus)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.cursor, "cursor stops at the last day")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.cursor)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int{0}, widget.selected)
	require.NotNil(t, m.state.View)
	assert.Equal(t, 18, m.state.View.Temperature)
	assert.Equal(t, "Paris", m.state.View.Location)
	assert.Len(t, widget.searches, 1, "enter on the strip does not search")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, focusInput, m.focus)
}

func TestModel_TabWithoutForecastTypesIntoInput(t *testing.T) {
	m := NewModel(context.Background(), newFakeWidget(), "metric")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusInput, next.(Model).focus)
}

func TestModel_Locate(t *testing.T) {
	widget := newFakeWidget()
	m := NewModel(context.Background(), widget, "metric")

	step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, 1, widget.located)
}

func TestModel_InitRunsInitialLoad(t *testing.T) {
	widget := newFakeWidget()
	m := NewModel(context.Background(), widget, "metric")

	batch, ok := m.Init()().(tea.BatchMsg)
	require.True(t, ok)
	for _, cmd := range batch {
		if cmd == nil {
			continue
		}
		if _, ok := cmd().(searchDoneMsg); ok {
			break
		}
	}
	assert.Equal(t, 1, widget.loaded)
	assert.Equal(t, model.CityQuery("Colombo"), widget.searches[0])
}

func TestModel_StateMessages(t *testing.T) {
	m := NewModel(context.Background(), newFakeWidget(), "metric")
	m = typeText(t, m, "Lon")

	loading := service.BeginSearch(service.InitialState(), 1)
	m = step(t, m, stateMsg(loading))
	assert.Contains(t, m.View(), "Loading...")
	assert.Equal(t, "Lon", m.input.Value(), "typed text survives unrelated updates")

	failed := service.FailWithAPIError(service.FinishSearch(loading), "city not found")
	m = step(t, m, stateMsg(failed))
	assert.Contains(t, m.View(), "city not found")
	assert.NotContains(t, m.View(), "Next 5 Days")
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), newFakeWidget(), "metric")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStylesFor(t *testing.T) {
	assert.NotNil(t, StylesFor(conditions.Gradient{}))
	assert.NotNil(t, StylesFor(conditions.Classify("01n").Background))
}
