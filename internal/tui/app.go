package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/tally/internal/expenses"
	"github.com/naveenspark/tally/internal/session"
	"github.com/naveenspark/tally/pkg/client"
	"github.com/naveenspark/tally/pkg/domain"
)

// appState is the view-level state machine:
//
//	signedOut -> loading -> ready <-> adding
//
// and sign-out from any signed-in state returns to signedOut.
type appState int

const (
	stateSignedOut appState = iota
	stateLoading
	stateReady
	stateAdding
)

func (s appState) String() string {
	switch s {
	case stateSignedOut:
		return "signed-out"
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	case stateAdding:
		return "adding"
	}
	return "unknown"
}

// initialSessionMsg carries the one-time session read done at startup.
type initialSessionMsg struct {
	session *domain.Session
	err     error
}

type signOutMsg struct {
	err error
}

// App is the root Bubbletea model.
type App struct {
	auth        *session.Auth
	svc         *expenses.Service
	feed        *sessionFeed
	unsubscribe func()

	state    appState
	session  *domain.Session
	authForm authModel
	list     listModel
	add      addModel
	toast    toastModel

	version string
	latest  string
	width   int
	height  int
	frame   int // logo shimmer animation frame
	now     func() time.Time
}

// NewApp creates the TUI. It registers for session changes immediately;
// call Close when the program exits.
func NewApp(auth *session.Auth, svc *expenses.Service, version string) App {
	feed := newSessionFeed()
	return App{
		auth:        auth,
		svc:         svc,
		feed:        feed,
		unsubscribe: auth.OnChange(feed.push),
		authForm:    newAuthModel(auth),
		add:         newAddModel(time.Now()),
		version:     version,
		now:         time.Now,
	}
}

// Close releases the session subscription. Safe to call more than once.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadSession(), a.feed.wait(), shimmerTickCmd(), checkVersion(a.version))
}

func (a App) loadSession() tea.Cmd {
	auth := a.auth
	return func() tea.Msg {
		s, err := auth.GetSession(context.Background())
		return initialSessionMsg{session: s, err: err}
	}
}

// fetchExpenses lists expenses under a live session. The result is tagged
// with the user it was fetched for.
func (a App) fetchExpenses() tea.Cmd {
	auth, svc := a.auth, a.svc
	return func() tea.Msg {
		ctx := context.Background()
		var rows []expenses.Row
		s, err := auth.Do(ctx, func(*domain.Session) error {
			var err error
			rows, err = svc.List(ctx)
			return err
		})
		msg := expensesLoadedMsg{rows: rows, err: err}
		if s != nil {
			msg.userID = s.User.ID
		}
		return msg
	}
}

func (a App) signOut() tea.Cmd {
	auth := a.auth
	return func() tea.Msg {
		return signOutMsg{err: auth.SignOut(context.Background())}
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.Close()
	return a, tea.Quit
}

// applySession moves the state machine for a new session value. A non-nil
// session always triggers a fetch.
func (a App) applySession(s *domain.Session) (App, tea.Cmd) {
	a.session = s
	if s == nil {
		a.state = stateSignedOut
		a.list = listModel{width: a.list.width, height: a.list.height}
		a.add = newAddModel(a.now())
		return a, nil
	}
	if a.state == stateSignedOut {
		a.state = stateLoading
	}
	return a, a.fetchExpenses()
}

func (a App) submitExpense() (App, tea.Cmd) {
	if a.add.submitting {
		return a, nil
	}
	d := a.add.draft()
	if _, err := d.Validate(); err != nil {
		a.add.status = err.Error()
		return a, nil
	}
	if a.session == nil {
		var cmd tea.Cmd
		a.toast, cmd = a.toast.fail("Error adding expense: " + session.ErrNotSignedIn.Error())
		return a, cmd
	}
	a.add.submitting = true
	auth, svc := a.auth, a.svc
	return a, func() tea.Msg {
		ctx := context.Background()
		var e *domain.Expense
		_, err := auth.Do(ctx, func(s *domain.Session) error {
			var err error
			e, err = svc.Add(ctx, s.User.ID, d)
			return err
		})
		return expenseAddedMsg{expense: e, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + toast(1) + help(1) = 4 lines
		a.list, _ = a.list.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4})
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case versionCheckMsg:
		if msg.hasUpdate {
			a.latest = msg.latestVersion
		}
		return a, nil

	case toastExpiredMsg:
		a.toast = a.toast.Update(msg)
		return a, nil

	case initialSessionMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.toast, cmd = a.toast.fail("Error restoring session: " + client.Message(msg.err))
			return a, cmd
		}
		// A sign-in notification may already have arrived.
		if a.session != nil {
			return a, nil
		}
		return a.applySession(msg.session)

	case sessionChangedMsg:
		// A refresh for the same user only swaps tokens; the list is still valid.
		if msg.event == session.EventTokenRefreshed && msg.session != nil &&
			a.session != nil && msg.session.User.ID == a.session.User.ID {
			a.session = msg.session
			return a, a.feed.wait()
		}
		var cmd tea.Cmd
		a, cmd = a.applySession(msg.session)
		return a, tea.Batch(cmd, a.feed.wait())

	case expensesLoadedMsg:
		// Signed out, or another account signed in, while the fetch was in flight.
		if a.session == nil || msg.userID != a.session.User.ID {
			return a, nil
		}
		a.list, _ = a.list.Update(msg)
		if a.state == stateLoading {
			a.state = stateReady
		}
		if msg.err != nil {
			var cmd tea.Cmd
			a.toast, cmd = a.toast.fail("Error fetching expenses: " + client.Message(msg.err))
			return a, cmd
		}
		return a, nil

	case authResultMsg:
		var notice string
		a.authForm, notice = a.authForm.result(msg)
		var cmd tea.Cmd
		switch {
		case msg.err != nil:
			text := client.Message(msg.err)
			if text == "" {
				text = "Authentication failed"
			}
			a.toast, cmd = a.toast.fail(text)
		case notice != "":
			a.toast, cmd = a.toast.success(notice)
		}
		return a, cmd

	case expenseAddedMsg:
		a.add.submitting = false
		var cmd tea.Cmd
		if msg.err != nil {
			a.toast, cmd = a.toast.fail("Error adding expense: " + client.Message(msg.err))
			return a, cmd
		}
		a.toast, cmd = a.toast.success("Expense added successfully")
		a.add = a.add.reset(a.now())
		if a.state == stateAdding {
			a.state = stateReady
		}
		return a, tea.Batch(cmd, a.fetchExpenses())

	case signOutMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.toast, cmd = a.toast.fail("Error signing out")
			return a, cmd
		}
		return a, nil

	case copyResultMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			a.toast, cmd = a.toast.fail(fmt.Sprintf("copy failed: %v", msg.err))
		} else {
			a.toast, cmd = a.toast.success("copied!")
		}
		return a, cmd

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	switch a.state {
	case stateSignedOut:
		var cmd tea.Cmd
		a.authForm, cmd = a.authForm.Update(msg)
		return a, cmd

	case stateAdding:
		switch msg.String() {
		case "esc":
			a.state = stateReady
			return a, nil
		case "ctrl+s":
			return a.submitExpense()
		}
		a.add = a.add.Update(msg)
		return a, nil
	}

	// loading / ready
	switch msg.String() {
	case "q":
		return a.quit()
	case "x":
		return a, a.signOut()
	case "a", "n":
		if a.state == stateReady {
			a.state = stateAdding
		}
		return a, nil
	case "r":
		return a, a.fetchExpenses()
	}
	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoPad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", logoPad) + logo + "\n"

	var sub []string
	if a.session != nil {
		sub = append(sub, a.session.User.Email)
	}
	if a.latest != "" {
		sub = append(sub, "update available: "+a.latest)
	}
	if len(sub) > 0 {
		line := metaStyle.Render(strings.Join(sub, " . "))
		header += strings.Repeat(" ", max((a.width-lipgloss.Width(line))/2, 0)) + line
	}

	var body, help string
	switch a.state {
	case stateSignedOut:
		body = a.authForm.View()
		help = helpBar("tab", "next", "enter", "submit", "ctrl+t", "sign in/up", "ctrl+c", "quit")
	case stateLoading, stateReady:
		body = a.list.View()
		help = helpBar("a", "add", "j/k", "nav", "c", "copy", "r", "refresh", "x", "sign out", "q", "quit")
	case stateAdding:
		body = a.add.View()
		if a.width > 0 && a.height > 4 {
			body = lipgloss.Place(a.width, a.height-4, lipgloss.Center, lipgloss.Center, body)
		}
		help = helpBar("tab", "next", "←/→", "category", "ctrl+s", "submit", "esc", "cancel")
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, a.toast.View(), help)
}
