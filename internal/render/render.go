// Package render turns a widget state into what a surface should draw.
package render

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/conditions"
	"github.com/fakhrymubarak/weather-widget/internal/service"
)

// Branch is the one part of the widget shown below the search bar.
type Branch string

const (
	BranchEmpty   Branch = "empty"
	BranchLoading Branch = "loading"
	BranchError   Branch = "error"
	BranchWeather Branch = "weather"
)

const (
	LoadingText  = "Loading..."
	ForecastHead = "Next 5 Days"
	forecastTime = "2006-01-02 15:04:05"
)

type Screen struct {
	Branch     Branch              `json:"branch"`
	Background conditions.Gradient `json:"background"`
	Message    string              `json:"message,omitempty"`
	Weather    *WeatherPanel       `json:"weather,omitempty"`
	Forecast   []ForecastItem      `json:"forecast,omitempty"`
	Input      string              `json:"input"`
}

type WeatherPanel struct {
	Icon        conditions.Icon `json:"icon"`
	Temperature string          `json:"temperature"`
	Location    string          `json:"location"`
	Humidity    string          `json:"humidity"`
	Wind        string          `json:"wind"`
}

type ForecastItem struct {
	Index int             `json:"index"`
	Day   string          `json:"day"`
	Icon  conditions.Icon `json:"icon"`
	Temp  string          `json:"temp"`
}

// Build picks the branch for s: loading, then error, then weather, else nothing.
func Build(s service.State, units string) Screen {
	screen := Screen{Branch: BranchEmpty, Background: s.Background, Input: s.Input}
	if screen.Background.IsZero() {
		screen.Background = conditions.DefaultBackground()
	}

	switch {
	case s.Loading:
		screen.Branch = BranchLoading
		screen.Message = LoadingText
	case s.Err != "":
		screen.Branch = BranchError
		screen.Message = s.Err
	case s.View != nil:
		screen.Branch = BranchWeather
		screen.Weather = &WeatherPanel{
			Icon:        s.View.Icon,
			Temperature: fmt.Sprintf("%d%s", s.View.Temperature, TemperatureUnit(units)),
			Location:    s.View.Location,
			Humidity:    fmt.Sprintf("%d %%", s.View.Humidity),
			Wind:        fmt.Sprintf("%s %s", strconv.FormatFloat(s.View.WindSpeed, 'f', -1, 64), WindUnit(units)),
		}
		screen.Forecast = make([]ForecastItem, 0, len(s.Forecast))
		for i, entry := range s.Forecast {
			screen.Forecast = append(screen.Forecast, ForecastItem{
				Index: i,
				Day:   DayName(entry.DtTxt),
				Icon:  conditions.Classify(entry.ConditionCode()).Icon,
				Temp:  fmt.Sprintf("%d°", int(math.Floor(entry.Main.Temp))),
			})
		}
	}
	return screen
}

// DayName returns the short English weekday of a forecast timestamp label, or "" if the
// label cannot be parsed.
func DayName(dtTxt string) string {
	t, err := time.Parse(forecastTime, dtTxt)
	if err != nil {
		return ""
	}
	return t.Weekday().String()[:3]
}

func TemperatureUnit(units string) string {
	switch units {
	case "imperial":
		return "°f"
	case "standard":
		return "k"
	default:
		return "°c"
	}
}

// WindUnit is the unit OpenWeatherMap reports wind speed in for a unit system.
func WindUnit(units string) string {
	if units == "imperial" {
		return "mph"
	}
	return "m/s"
}
