package model

import "strings"

// Condition is one entry of the "weather" array OpenWeatherMap attaches to every reading.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

// CurrentWeatherResponse is the body of GET /data/2.5/weather.
type CurrentWeatherResponse struct {
	Name    string       `json:"name"`
	Main    MainReadings `json:"main"`
	Wind    Wind         `json:"wind"`
	Weather []Condition  `json:"weather"`
	Dt      int64        `json:"dt"`
}

// ConditionCode returns the icon code of the first condition, or "" when there is none.
func (r *CurrentWeatherResponse) ConditionCode() string {
	if len(r.Weather) == 0 {
		return ""
	}
	return r.Weather[0].Icon
}

// ForecastEntry is one 3-hour slot of the 5 day forecast.
type ForecastEntry struct {
	Dt      int64        `json:"dt"`
	DtTxt   string       `json:"dt_txt"`
	Main    MainReadings `json:"main"`
	Wind    Wind         `json:"wind"`
	Weather []Condition  `json:"weather"`
}

func (e ForecastEntry) ConditionCode() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Icon
}

// IsMidday reports whether the slot is labelled 12:00:00.
func (e ForecastEntry) IsMidday() bool {
	return strings.Contains(e.DtTxt, "12:00:00")
}

// ForecastResponse is the body of GET /data/2.5/forecast.
type ForecastResponse struct {
	List []ForecastEntry `json:"list"`
}

// APIErrorBody is what OpenWeatherMap sends alongside a non-2xx status.
type APIErrorBody struct {
	Message string `json:"message"`
}
