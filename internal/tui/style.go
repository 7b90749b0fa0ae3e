package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fakhrymubarak/weather-widget/internal/conditions"
)

const cardWidth = 48

type Style struct {
	Card         lipgloss.Style
	Temperature  lipgloss.Style
	Location     lipgloss.Style
	Error        lipgloss.Style
	Muted        lipgloss.Style
	ForecastItem lipgloss.Style
	SelectedItem lipgloss.Style
}

// StylesFor colours the card with the first and last stop of the background gradient.
func StylesFor(g conditions.Gradient) *Style {
	if g.IsZero() {
		g = conditions.DefaultBackground()
	}
	from := lipgloss.Color(g.Stops[0])
	to := lipgloss.Color(g.Stops[len(g.Stops)-1])
	white := lipgloss.Color("#FFFFFF")

	return &Style{
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(to).
			Background(from).
			Foreground(white).
			Padding(1, 3).
			Width(cardWidth),
		Temperature: lipgloss.NewStyle().Bold(true).Foreground(white).Background(from),
		Location:    lipgloss.NewStyle().Foreground(white).Background(from),
		Error: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{
			Light: "#B00020",
			Dark:  "#FF8A80",
		}),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
			Light: "#CCCCCC",
			Dark:  "#888888",
		}),
		ForecastItem: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#CCCCCC")).
			Padding(0, 1).
			Align(lipgloss.Center),
		SelectedItem: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#FFFF99")).
			Padding(0, 1).
			Align(lipgloss.Center),
	}
}
