// Package conditions maps OpenWeatherMap condition codes to the icon and background
// gradient the widget displays for them.
package conditions

import (
	"fmt"
	"sort"
	"strings"
)

// Icon is a handle to a bundled weather icon asset.
type Icon string

const (
	IconClear   Icon = "clear.png"
	IconCloud   Icon = "cloud.png"
	IconDrizzle Icon = "drizzle.png"
	IconRain    Icon = "rain.png"
	IconSnow    Icon = "snow.png"

	// Non-condition assets shown next to the humidity and wind readings.
	IconHumidity Icon = "humidity.png"
	IconWind     Icon = "wind.png"
)

// Gradient is a linear background gradient: an angle in degrees and its colour stops.
type Gradient struct {
	Angle int      `json:"angle"`
	Stops []string `json:"stops"`
}

// CSS renders the gradient as a CSS linear-gradient value.
func (g Gradient) CSS() string {
	return fmt.Sprintf("linear-gradient(%ddeg, %s)", g.Angle, strings.Join(g.Stops, ", "))
}

// IsZero reports whether the gradient has no stops.
func (g Gradient) IsZero() bool {
	return len(g.Stops) == 0
}

// Classification is what the widget shows for a condition code.
type Classification struct {
	Icon       Icon     `json:"icon"`
	Background Gradient `json:"background"`
}

// DefaultIcon is used for unknown codes.
const DefaultIcon = IconClear

// DefaultBackground is used for unknown codes and before the first fetch.
func DefaultBackground() Gradient {
	return Gradient{Angle: 45, Stops: []string{"#2f4680", "#500ae4"}}
}

func diagonal(stops ...string) Gradient {
	return Gradient{Angle: 135, Stops: stops}
}

var table = map[string]Classification{
	"01d": {IconClear, diagonal("#56CCF2", "#2F80ED")},
	"01n": {IconClear, diagonal("#0f2027", "#203a43", "#2c5364")},
	"02d": {IconCloud, diagonal("#a8c0ff", "#3f2b96")},
	"02n": {IconCloud, diagonal("#232526", "#414345")},
	"03d": {IconCloud, diagonal("#a8c0ff", "#3f2b96")},
	"03n": {IconCloud, diagonal("#232526", "#414345")},
	"04d": {IconCloud, diagonal("#a8c0ff", "#3f2b96")},
	"04n": {IconCloud, diagonal("#232526", "#414345")},
	"09d": {IconDrizzle, diagonal("#373B44", "#4286f4")},
	"09n": {IconDrizzle, diagonal("#141E30", "#243B55")},
	"10d": {IconRain, diagonal("#373B44", "#4286f4")},
	"10n": {IconRain, diagonal("#141E30", "#243B55")},
	"11d": {IconSnow, diagonal("#0f0c29", "#302b63", "#24243e")},
	"11n": {IconSnow, diagonal("#0f0c29", "#302b63", "#24243e")},
	"13d": {IconSnow, diagonal("#E0EAFC", "#CFDEF3")},
	"13n": {IconSnow, diagonal("#E0EAFC", "#CFDEF3")},
	"50d": {IconCloud, diagonal("#3E5151", "#DECBA4")},
	"50n": {IconCloud, diagonal("#3E5151", "#DECBA4")},
}

// Classify returns the icon and background for code. Unknown codes get DefaultIcon and
// DefaultBackground.
func Classify(code string) Classification {
	c, ok := table[code]
	if !ok {
		return Classification{Icon: DefaultIcon, Background: DefaultBackground()}
	}
	// Stops are shared with the table; hand out a copy.
	c.Background.Stops = append([]string(nil), c.Background.Stops...)
	return c
}

// Known reports whether code has its own table entry.
func Known(code string) bool {
	_, ok := table[code]
	return ok
}

// KnownCodes lists the mapped condition codes in sorted order.
func KnownCodes() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
