package tui

import (
	"github.com/brizzai/aqua-scheduler/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// styles are rebuilt whenever the theme changes
type styles struct {
	doc       lipgloss.Style
	title     lipgloss.Style
	header    lipgloss.Style
	text      lipgloss.Style
	label     lipgloss.Style
	errorText lipgloss.Style
	success   lipgloss.Style
	danger    lipgloss.Style
	help      lipgloss.Style
	box       lipgloss.Style
	status    lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	p := t.Palette()

	return styles{
		doc: lipgloss.NewStyle().Margin(1, 2),

		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Background)).
			Background(lipgloss.Color(p.Primary)).
			Bold(true).
			Padding(0, 1),

		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Primary)).
			Bold(true).
			Padding(0, 1),

		text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Neutral)),

		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Neutral)).
			Bold(true),

		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Danger)).
			Italic(true),

		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Success)),

		danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Danger)),

		help: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}),

		box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Accent)).
			Padding(1, 2),

		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Accent)),
	}
}
