package tui

import (
	"context"
	"fmt"

	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"github.com/brizzai/aqua-scheduler/internal/config"
	"github.com/brizzai/aqua-scheduler/internal/guard"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/login"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/brizzai/aqua-scheduler/internal/theme"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type page int

const (
	pageHome page = iota
	pageLogin
	pageDashboard
)

// toggleThemeMsg flips the theme from any page
type toggleThemeMsg struct{}

// Dependencies are the collaborators the views are wired to
type Dependencies struct {
	Provider providers.Provider
	Observer guard.StatusSource
	Router   *Router
	Themes   *theme.Store
	Routes   config.RoutesConfig
}

type appKeyMap struct {
	quit        key.Binding
	toggleTheme key.Binding
}

func newAppKeyMap() *appKeyMap {
	return &appKeyMap{
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		toggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Toggle theme"),
		),
	}
}

// AppModel is the main application model. It maps the current path to a page
// and tears the previous page down before mounting the next one.
type AppModel struct {
	deps   Dependencies
	keys   *appKeyMap
	styles styles
	path   string
	status string

	home      HomePageModel
	login     LoginPageModel
	dashboard DashboardPageModel
}

// NewAppModel creates the AppModel; Init navigates to the initial route
func NewAppModel(deps Dependencies) AppModel {
	if deps.Routes.Login == "" {
		deps.Routes.Login = navigation.LoginPath
	}
	if deps.Routes.Landing == "" {
		deps.Routes.Landing = navigation.DashboardPath
	}
	if deps.Routes.Initial == "" {
		deps.Routes.Initial = navigation.HomePath
	}

	return AppModel{
		deps:   deps,
		keys:   newAppKeyMap(),
		styles: newStyles(deps.Themes.Current()),
		home:   NewHomePageModel(deps.Routes.Login, deps.Routes.Landing),
	}
}

// Init navigates to the initial route
func (m AppModel) Init() tea.Cmd {
	initial := m.deps.Routes.Initial
	return func() tea.Msg {
		return NavigateMsg{Path: initial}
	}
}

// Path returns the route currently shown
func (m AppModel) Path() string {
	return m.path
}

func (m AppModel) pageFor(path string) page {
	switch path {
	case m.deps.Routes.Login:
		return pageLogin
	case m.deps.Routes.Landing, navigation.DashboardPath:
		return pageDashboard
	default:
		return pageHome
	}
}

// Update handles app-level messages and delegates the rest to the active page
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NavigateMsg:
		return m.navigate(msg.Path)

	case guardChangedMsg, signOutDoneMsg:
		// state lives in the guard and the provider; re-render only
		return m, nil

	case toggleThemeMsg:
		return m.toggleTheme(), nil

	case signOutMsg:
		deps := m.deps
		return m, func() tea.Msg {
			login.SignOut(context.Background(), deps.Provider, deps.Router, deps.Routes.Login)
			return signOutDoneMsg{}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.toggleTheme):
			return m.toggleTheme(), nil
		}

	case tea.WindowSizeMsg:
		var cmd tea.Cmd
		m.home, cmd = m.home.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.pageFor(m.path) {
	case pageLogin:
		m.login, cmd = m.login.Update(msg)
	case pageDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	default:
		m.home, cmd = m.home.Update(msg)
	}
	return m, cmd
}

func (m AppModel) navigate(path string) (AppModel, tea.Cmd) {
	if path == m.path {
		return m, nil
	}

	logger.Debug("Navigating", zap.String("from", m.path), zap.String("to", path))
	m.Close()
	m.path = path
	m.status = ""

	switch m.pageFor(path) {
	case pageLogin:
		form := login.NewForm(m.deps.Provider, m.deps.Router, login.WithLandingPath(m.deps.Routes.Landing))
		m.login = NewLoginPageModel(form)
		return m, m.login.Init()

	case pageDashboard:
		router := m.deps.Router
		g := guard.New(m.deps.Observer, router,
			guard.WithLoginPath(m.deps.Routes.Login),
			guard.WithOnChange(func(guard.State) { router.guardChanged() }),
		)
		m.dashboard = NewDashboardPageModel(g)
		g.Mount()
		return m, nil
	}

	if path != navigation.HomePath {
		m.status = fmt.Sprintf("Nothing at %s", path)
	}
	return m, nil
}

// Close tears down the active page: it unmounts the dashboard guard or closes the login form
func (m AppModel) Close() {
	switch m.pageFor(m.path) {
	case pageLogin:
		if m.login.form != nil {
			m.login.Close()
		}
	case pageDashboard:
		if m.dashboard.guard != nil {
			m.dashboard.guard.Unmount()
		}
	}
}

func (m AppModel) toggleTheme() AppModel {
	t, err := m.deps.Themes.Toggle()
	if err != nil {
		logger.Warn("Failed to save theme", zap.Error(err))
		m.status = "Theme not saved: " + err.Error()
	}
	m.styles = newStyles(t)
	return m
}

// View renders the active page
func (m AppModel) View() string {
	var view string
	switch m.pageFor(m.path) {
	case pageLogin:
		view = m.login.View(m.styles)
	case pageDashboard:
		view = m.dashboard.View(m.styles)
	default:
		view = m.home.View(m.styles)
	}

	if m.status != "" {
		view += "\n" + m.styles.doc.Render(m.styles.status.Render(m.status))
	}
	return view
}

// Run runs the program until the user quits or ctx is done
func Run(ctx context.Context, m AppModel, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)
	go m.deps.Router.Run(ctx, p.Send)

	final, err := p.Run()
	if fm, ok := final.(AppModel); ok {
		fm.Close()
	}
	return err
}
