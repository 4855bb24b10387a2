package tui

import (
	"strings"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/guard"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// signOutMsg asks the app to sign out
type signOutMsg struct{}

// signOutDoneMsg arrives once sign-out and its navigation were issued
type signOutDoneMsg struct{}

type dashboardKeyMap struct {
	logout      key.Binding
	toggleTheme key.Binding
	home        key.Binding
	quit        key.Binding
}

func newDashboardKeyMap() *dashboardKeyMap {
	return &dashboardKeyMap{
		logout: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logout"),
		),
		toggleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle theme"),
		),
		home: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "Home"),
		),
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// DashboardPageModel is the protected view; what it shows is decided by its guard
type DashboardPageModel struct {
	guard *guard.Guard
	keys  *dashboardKeyMap
	now   func() time.Time
}

func NewDashboardPageModel(g *guard.Guard) DashboardPageModel {
	return DashboardPageModel{
		guard: g,
		keys:  newDashboardKeyMap(),
		now:   time.Now,
	}
}

// Update handles messages for the dashboard. Actions need an authorized session.
func (m DashboardPageModel) Update(msg tea.Msg) (DashboardPageModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if key.Matches(keyMsg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.guard.State() != guard.Authorized {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.logout):
		return m, func() tea.Msg { return signOutMsg{} }
	case key.Matches(keyMsg, m.keys.toggleTheme):
		return m, func() tea.Msg { return toggleThemeMsg{} }
	case key.Matches(keyMsg, m.keys.home):
		return m, func() tea.Msg { return NavigateMsg{Path: navigation.HomePath} }
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardPageModel) View(st styles) string {
	switch m.guard.State() {
	case guard.Loading:
		return st.doc.Render(st.text.Render("Loading..."))
	case guard.Redirecting:
		return ""
	}

	return m.guard.Render(func(s *models.Session) string {
		var sb strings.Builder

		sb.WriteString(st.title.Render("Dashboard"))
		sb.WriteString("\n\n")
		sb.WriteString(st.text.Render("Welcome, " + s.Email))
		sb.WriteString("\n")
		if s.EmailVerified {
			sb.WriteString(st.success.Render("Email Verified"))
		} else {
			sb.WriteString(st.danger.Render("Email Not Verified"))
		}
		sb.WriteString("\n\n")

		if expiry := s.ExpiresAt(); !expiry.IsZero() {
			sb.WriteString(st.help.Render("Session expires " + humanize.RelTime(expiry, m.now(), "ago", "from now")))
			sb.WriteString("\n\n")
		}

		sb.WriteString(st.help.Render("(l) Logout | (t) Theme | (h) Home | (q) Quit"))
		return st.doc.Render(st.box.Render(sb.String()))
	})
}
