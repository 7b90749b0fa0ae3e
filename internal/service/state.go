package service

import (
	"math"

	"github.com/fakhrymubarak/weather-widget/internal/conditions"
	"github.com/fakhrymubarak/weather-widget/internal/model"
)

// Messages shown to the user.
const (
	MsgEmptyCity           = "Please enter a city name"
	MsgAPIFallback         = "Error fetching data"
	MsgFetchFailed         = "Error fetching weather data"
	MsgLocationDenied      = "Location access denied."
	MsgLocationUnsupported = "Geolocation is not supported."
)

// ForecastDays is how many midday slots the forecast strip keeps.
const ForecastDays = 5

// State is an immutable snapshot of the widget. Transitions below take a State and return
// the next one; View and Forecast are replaced, never edited in place.
type State struct {
	Loading    bool                  `json:"loading"`
	Err        string                `json:"error,omitempty"`
	View       *model.WeatherView    `json:"weather,omitempty"`
	Forecast   []model.ForecastEntry `json:"forecast"`
	Background conditions.Gradient   `json:"background"`
	Input      string                `json:"input"`
	Seq        uint64                `json:"seq"`
}

func InitialState() State {
	return State{Background: conditions.DefaultBackground()}
}

// BeginSearch marks a new search as in flight.
func BeginSearch(s State, seq uint64) State {
	s.Loading = true
	s.Err = ""
	s.Seq = seq
	return s
}

// RejectEmptyQuery reports a blank city name. The current view is kept.
func RejectEmptyQuery(s State, seq uint64) State {
	s.Seq = seq
	s.Err = MsgEmptyCity
	s.Loading = false
	return s
}

// FailWithAPIError applies a non-success answer to the current conditions request.
func FailWithAPIError(s State, message string) State {
	if message == "" {
		message = MsgAPIFallback
	}
	s.Err = message
	s.View = nil
	return s
}

// FailWithError applies a transport or decoding failure.
func FailWithError(s State) State {
	s.Err = MsgFetchFailed
	s.View = nil
	return s
}

// ApplyCurrent replaces the view and background from a current conditions response.
func ApplyCurrent(s State, data *model.CurrentWeatherResponse) State {
	c := conditions.Classify(data.ConditionCode())
	s.Background = c.Background
	s.View = &model.WeatherView{
		Temperature: floor(data.Main.Temp),
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
		Location:    data.Name,
		Icon:        c.Icon,
	}
	return s
}

// ApplyForecast replaces the forecast strip with the midday slots of list.
func ApplyForecast(s State, list []model.ForecastEntry) State {
	s.Forecast = MiddayForecast(list)
	return s
}

// MiddayForecast keeps the entries labelled 12:00:00, at most ForecastDays, in order.
func MiddayForecast(list []model.ForecastEntry) []model.ForecastEntry {
	days := make([]model.ForecastEntry, 0, ForecastDays)
	for _, entry := range list {
		if !entry.IsMidday() {
			continue
		}
		days = append(days, entry)
		if len(days) == ForecastDays {
			break
		}
	}
	return days
}

// SelectForecast shows entry in the main display, keeping the displayed location.
func SelectForecast(s State, entry model.ForecastEntry) State {
	location := ""
	if s.View != nil {
		location = s.View.Location
	}
	c := conditions.Classify(entry.ConditionCode())
	s.Background = c.Background
	s.View = &model.WeatherView{
		Temperature: floor(entry.Main.Temp),
		Humidity:    entry.Main.Humidity,
		WindSpeed:   entry.Wind.Speed,
		Location:    location,
		Icon:        c.Icon,
	}
	return s
}

func ClearInput(s State) State {
	s.Input = ""
	return s
}

func SetInput(s State, input string) State {
	s.Input = input
	return s
}

// FinishSearch clears the loading flag; every search ends here.
func FinishSearch(s State) State {
	s.Loading = false
	return s
}

// LocationFailed reports a position lookup that could not be used.
func LocationFailed(s State, message string) State {
	s.Loading = false
	s.Err = message
	return s
}

func floor(v float64) int {
	return int(math.Floor(v))
}
