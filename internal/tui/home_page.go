package tui

import (
	"github.com/brizzai/aqua-scheduler/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// homeKeyMap holds key bindings for the home page actions
type homeKeyMap struct {
	toggleTheme key.Binding
}

func newHomeKeyMap() *homeKeyMap {
	return &homeKeyMap{
		toggleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle theme"),
		),
	}
}

// HomePageModel is the public landing page: a welcome text and the routes
// the client offers.
type HomePageModel struct {
	keys   *homeKeyMap
	list   list.Model
	width  int
	height int
}

// NewHomePageModel creates the home page with a destination per route
func NewHomePageModel(loginPath string, protectedPath string) HomePageModel {
	keys := newHomeKeyMap()

	items := []list.Item{
		models.DestinationItem{
			Name:    "Sign in",
			Summary: "Log in with your email and password",
			Path:    loginPath,
		},
		models.DestinationItem{
			Name:      "Dashboard",
			Summary:   "Your account and schedule",
			Path:      protectedPath,
			Protected: true,
		},
	}

	l := list.New(items, newItemDelegate(newDelegateKeyMap()), 0, 0)
	l.Title = "Where to?"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.toggleTheme}
	}

	return HomePageModel{keys: keys, list: l}
}

// Update handles messages for the home page
func (m HomePageModel) Update(msg tea.Msg) (HomePageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.toggleTheme) {
			return m, func() tea.Msg { return toggleThemeMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-14, 6))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the home page
func (m HomePageModel) View(st styles) string {
	m.list.Styles.Title = st.header

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		st.title.Render("Aquatics Scheduler"),
		"",
		st.text.Render("Welcome to the new frontend!"),
		st.help.Render("Automated scheduling for aquatic classes"),
		"",
		m.list.View(),
	)
	return st.doc.Render(content)
}
