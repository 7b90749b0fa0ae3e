package render

import "github.com/fakhrymubarak/weather-widget/internal/conditions"

var glyphs = map[conditions.Icon]string{
	conditions.IconClear:    "☀",
	conditions.IconCloud:    "☁",
	conditions.IconDrizzle:  "☂",
	conditions.IconRain:     "⛆",
	conditions.IconSnow:     "❄",
	conditions.IconHumidity: "💧",
	conditions.IconWind:     "༄",
}

// Glyph is a text stand-in for an icon asset, for surfaces that cannot show images.
func Glyph(icon conditions.Icon) string {
	if g, ok := glyphs[icon]; ok {
		return g
	}
	return glyphs[conditions.DefaultIcon]
}
