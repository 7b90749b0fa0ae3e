package model

import (
	"fmt"

	"github.com/fakhrymubarak/weather-widget/internal/conditions"
)

// WeatherView is the main display of the widget.
type WeatherView struct {
	Temperature int             `json:"temperature"`
	Humidity    int             `json:"humidity"`
	WindSpeed   float64         `json:"wind_speed"`
	Location    string          `json:"location"`
	Icon        conditions.Icon `json:"icon"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Query selects what to look up: a city by name or a point by coordinates.
type Query struct {
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

func CityQuery(name string) Query {
	return Query{City: name}
}

func CoordinatesQuery(lat, lon float64) Query {
	return Query{Coordinates: &Coordinates{Latitude: lat, Longitude: lon}}
}

// IsCity reports whether the query is a name lookup.
func (q Query) IsCity() bool {
	return q.Coordinates == nil
}

func (q Query) String() string {
	if q.IsCity() {
		return q.City
	}
	return fmt.Sprintf("%.4f,%.4f", q.Coordinates.Latitude, q.Coordinates.Longitude)
}
