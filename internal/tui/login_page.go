package tui

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/brizzai/aqua-scheduler/internal/login"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	emailField = iota
	passwordField
)

// submitDoneMsg reports the outcome of a form submission
type submitDoneMsg struct {
	formID string
	err    error
}

type loginKeyMap struct {
	next   key.Binding
	prev   key.Binding
	submit key.Binding
	back   key.Binding
}

func newLoginKeyMap() *loginKeyMap {
	return &loginKeyMap{
		next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Sign In"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
	}
}

// LoginPageModel renders the credential form of one login view instance
type LoginPageModel struct {
	form     *login.Form
	keys     *loginKeyMap
	email    textinput.Model
	password textinput.Model
	focused  int
	spinner  spinner.Model
	spinning bool
	hint     string
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// NewLoginPageModel creates the login page for form
func NewLoginPageModel(form *login.Form) LoginPageModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	s := spinner.New()
	s.Spinner = spinner.Dot

	return LoginPageModel{
		form:     form,
		keys:     newLoginKeyMap(),
		email:    email,
		password: password,
		spinner:  s,
	}
}

// Init starts the cursor blink
func (m LoginPageModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the login page
func (m LoginPageModel) Update(msg tea.Msg) (LoginPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.back):
			return m, func() tea.Msg { return NavigateMsg{Path: navigation.HomePath} }
		case key.Matches(msg, m.keys.next, m.keys.prev):
			return m, m.focus(m.otherField())
		case key.Matches(msg, m.keys.submit):
			if m.focused == emailField && m.password.Value() == "" {
				return m, m.focus(passwordField)
			}
			return m.submit()
		}

	case submitDoneMsg:
		// error and navigation are owned by the form
		if msg.formID == m.form.ID() {
			m.spinning = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.spinning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focused == emailField {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// otherField is the field next and prev both move to: the form has two
func (m LoginPageModel) otherField() int {
	if m.focused == emailField {
		return passwordField
	}
	return emailField
}

func (m *LoginPageModel) focus(field int) tea.Cmd {
	m.focused = field
	if field == emailField {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

func (m LoginPageModel) submit() (LoginPageModel, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()

	switch {
	case email == "":
		m.hint = "Email is required"
		return m, m.focus(emailField)
	case password == "":
		m.hint = "Password is required"
		return m, m.focus(passwordField)
	case validateEmail(email) != nil:
		m.hint = validateEmail(email).Error()
		return m, m.focus(emailField)
	}
	m.hint = ""

	form := m.form
	cmds := []tea.Cmd{func() tea.Msg {
		err := form.Submit(context.Background(), email, password)
		return submitDoneMsg{formID: form.ID(), err: err}
	}}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

// Close detaches the form; a submission still in flight is ignored
func (m LoginPageModel) Close() {
	m.form.Close()
}

// View renders the login page
func (m LoginPageModel) View(st styles) string {
	var sb strings.Builder

	sb.WriteString(st.title.Render("Login"))
	sb.WriteString("\n\n")
	sb.WriteString(st.label.Render("Email:"))
	sb.WriteString("\n")
	sb.WriteString(m.email.View())
	sb.WriteString("\n\n")
	sb.WriteString(st.label.Render("Password:"))
	sb.WriteString("\n")
	sb.WriteString(m.password.View())
	sb.WriteString("\n\n")

	// one message at a time: the provider error wins over the input hint
	if msg := m.form.Error(); msg != "" {
		sb.WriteString(st.errorText.Render(msg))
		sb.WriteString("\n\n")
	} else if m.hint != "" {
		sb.WriteString(st.errorText.Render(m.hint))
		sb.WriteString("\n\n")
	}

	if m.spinning || m.form.Pending() {
		sb.WriteString(m.spinner.View() + " Signing in...")
		sb.WriteString("\n\n")
	}

	sb.WriteString(st.help.Render("Don't have an account? Registration is not available in this client."))
	sb.WriteString("\n")
	sb.WriteString(st.help.Render("(enter) Sign In | (tab) Next field | (esc) Back | (ctrl+t) Theme"))

	return st.doc.Render(st.box.Render(sb.String()))
}
