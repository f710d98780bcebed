package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tally/internal/session"
	"github.com/naveenspark/tally/pkg/domain"
)

// sessionChangedMsg carries one auth state notification into the event loop.
type sessionChangedMsg struct {
	event   session.Event
	session *domain.Session
}

// sessionFeed bridges session listener callbacks, which fire on command
// goroutines, into bubbletea messages. It holds at most one pending
// notification; a newer one replaces it since only the latest state matters.
type sessionFeed struct {
	ch chan sessionChangedMsg
}

func newSessionFeed() *sessionFeed {
	return &sessionFeed{ch: make(chan sessionChangedMsg, 1)}
}

func (f *sessionFeed) push(e session.Event, s *domain.Session) {
	msg := sessionChangedMsg{event: e, session: s}
	for {
		select {
		case f.ch <- msg:
			return
		default:
			select {
			case <-f.ch:
			default:
			}
		}
	}
}

// wait blocks for the next notification. The app re-arms it after each one.
func (f *sessionFeed) wait() tea.Cmd {
	ch := f.ch
	return func() tea.Msg {
		return <-ch
	}
}
