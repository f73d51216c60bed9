package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#B25E00", Dark: "#F2A541"}
	colorError  = lipgloss.AdaptiveColor{Light: "#C0143C", Dark: "#FF5F87"}
)

type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style
	Card     lipgloss.Style
	Warning  lipgloss.Style
	Spinner  lipgloss.Style
	Toast    lipgloss.Style
}

func DefaultTheme() Theme {
	card := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent)

	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Subtitle: lipgloss.NewStyle().Italic(true).Faint(true),
		Help:     lipgloss.NewStyle().Faint(true),
		Card:     card,
		Warning:  card.BorderForeground(colorWarn),
		Spinner:  lipgloss.NewStyle().Foreground(colorAccent),
		Toast:    lipgloss.NewStyle().Bold(true).Foreground(colorError),
	}
}
