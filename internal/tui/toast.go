package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toastTTL is how long a notification stays on screen.
var toastTTL = 4 * time.Second

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

type toastExpiredMsg struct {
	seq int
}

// toastModel is the transient notification line.
type toastModel struct {
	text string
	kind toastKind
	seq  int
}

func (m toastModel) show(kind toastKind, text string) (toastModel, tea.Cmd) {
	m.seq++
	m.kind = kind
	m.text = text
	seq := m.seq
	return m, tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m toastModel) success(text string) (toastModel, tea.Cmd) {
	return m.show(toastSuccess, text)
}

func (m toastModel) fail(text string) (toastModel, tea.Cmd) {
	return m.show(toastError, text)
}

func (m toastModel) Update(msg tea.Msg) toastModel {
	// A newer toast replaced this one; its own expiry will clear it.
	if e, ok := msg.(toastExpiredMsg); ok && e.seq == m.seq {
		m.text = ""
	}
	return m
}

func (m toastModel) View() string {
	if m.text == "" {
		return ""
	}
	if m.kind == toastError {
		return " " + errorStyle.Render("✗ "+m.text)
	}
	return " " + successStyle.Render("✓ "+m.text)
}
