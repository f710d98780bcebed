package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tally/internal/session"
)

type authMode int

const (
	modeSignIn authMode = iota
	modeSignUp
)

type authField int

const (
	authEmail authField = iota
	authPassword
	numAuthFields
)

// authResultMsg is the outcome of a sign-in or sign-up attempt.
type authResultMsg struct {
	mode authMode
	err  error
}

// authModel is the sign-in / sign-up form shown while signed out.
type authModel struct {
	auth       *session.Auth
	mode       authMode
	fields     [numAuthFields]string
	focus      authField
	status     string
	submitting bool
}

func newAuthModel(a *session.Auth) authModel {
	return authModel{auth: a}
}

func (m authModel) Update(msg tea.KeyMsg) (authModel, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "ctrl+t":
		if m.mode == modeSignIn {
			m.mode = modeSignUp
		} else {
			m.mode = modeSignIn
		}
	case "tab", "down", "shift+tab", "up":
		m.focus = (m.focus + 1) % numAuthFields
	case "enter":
		if m.focus == authEmail {
			m.focus = authPassword
			return m, nil
		}
		return m.submit()
	default:
		f := &m.fields[m.focus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

func (m authModel) submit() (authModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	email := strings.TrimSpace(m.fields[authEmail])
	password := m.fields[authPassword]
	if err := session.ValidateCredentials(email, password); err != nil {
		m.status = err.Error()
		return m, nil
	}

	m.submitting = true
	a, mode := m.auth, m.mode
	return m, func() tea.Msg {
		var err error
		if mode == modeSignUp {
			err = a.SignUp(context.Background(), email, password)
		} else {
			err = a.SignIn(context.Background(), email, password)
		}
		return authResultMsg{mode: mode, err: err}
	}
}

// result applies an auth outcome. It returns the notification to show, if any.
func (m authModel) result(msg authResultMsg) (authModel, string) {
	m.submitting = false
	if msg.err != nil {
		return m, ""
	}
	m.fields[authPassword] = ""
	if msg.mode == modeSignUp {
		m.mode = modeSignIn
		m.focus = authPassword
		return m, "Account created! You can now sign in."
	}
	return m, ""
}

func (m authModel) View() string {
	var b strings.Builder

	title, action, switchText := "Sign In", "sign in", "no account? ctrl+t to sign up"
	if m.mode == modeSignUp {
		title, action, switchText = "Sign Up", "create account", "have an account? ctrl+t to sign in"
	}

	b.WriteString(titleStyle.Render("Expense Tracker") + "  " + accentStyle.Render(title) + "\n\n")
	b.WriteString(renderField("email", m.fields[authEmail], "you@example.com", m.focus == authEmail, false) + "\n")
	b.WriteString(renderField("password", m.fields[authPassword], "at least 6 characters", m.focus == authPassword, true) + "\n\n")

	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("working..."))
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(dimStyle.Render("enter to " + action))
	}
	b.WriteString("\n" + metaStyle.Render(switchText))

	return panelStyle.Render(b.String())
}
