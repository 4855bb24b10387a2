package models

import (
	"github.com/charmbracelet/lipgloss"
)

// DestinationItem is a route offered on the home page.
// Implements list.Item
type DestinationItem struct {
	Name      string
	Summary   string
	Path      string
	Protected bool
}

func (i DestinationItem) Title() string {
	return i.Name
}

func (i DestinationItem) Description() string {
	if i.Protected {
		return i.Summary + " " + lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F39C12")).
			Render("[sign-in required]")
	}
	return i.Summary
}

func (i DestinationItem) FilterValue() string {
	return i.Name + " " + i.Path
}
