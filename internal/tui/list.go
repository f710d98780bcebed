package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/naveenspark/tally/internal/expenses"
	"github.com/naveenspark/tally/pkg/domain"
)

const emptyListText = `No expenses yet. Press "a" to add one!`

// expensesLoadedMsg carries the result of a list fetch for userID.
type expensesLoadedMsg struct {
	userID uuid.UUID
	rows   []expenses.Row
	err    error
}

type copyResultMsg struct {
	err error
}

// listModel renders the signed-in user's expenses.
type listModel struct {
	rows   []expenses.Row
	loaded bool // first response arrived
	cursor int
	width  int
	height int
}

func (m listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	switch msg := msg.(type) {
	case expensesLoadedMsg:
		m.loaded = true
		if msg.err == nil {
			m.rows = msg.rows
			if m.cursor >= len(m.rows) {
				m.cursor = max(len(m.rows)-1, 0)
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "c":
			if m.cursor < len(m.rows) {
				text := rowSummary(m.rows[m.cursor])
				return m, func() tea.Msg {
					return copyResultMsg{err: clipboard.WriteAll(text)}
				}
			}
		}
	}
	return m, nil
}

// rowSummary is the plain-text form of a row used for the clipboard.
func rowSummary(r expenses.Row) string {
	return fmt.Sprintf("%s  %s  %s  %s", r.Date, r.CategoryName, r.Description, domain.FormatAmount(r.Amount))
}

func (m listModel) total() float64 {
	var sum float64
	for _, r := range m.rows {
		sum += r.Amount
	}
	return sum
}

func (m listModel) View() string {
	if !m.loaded {
		return " " + dimStyle.Render("Loading...")
	}
	if len(m.rows) == 0 {
		return " " + dimStyle.Render(emptyListText)
	}

	width := m.width
	if width < 40 {
		width = 80
	}

	// Each row takes two lines plus a blank separator.
	visible := len(m.rows)
	if m.height > 0 {
		visible = max((m.height-2)/3, 1)
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		r := m.rows[i]
		amount := amountStyle.Render(domain.FormatAmount(r.Amount))
		descWidth := width - lipgloss.Width(amount) - 6
		desc := truncStr(r.Description, descWidth)

		var title string
		if i == m.cursor {
			title = selectedStyle.Render(desc)
		} else {
			title = normalStyle.Render(desc)
		}
		pad := width - 4 - lipgloss.Width(title) - lipgloss.Width(amount)
		if pad < 1 {
			pad = 1
		}
		line := title + strings.Repeat(" ", pad) + amount
		meta := dimStyle.Render(domain.FormatDate(r.Date)) + metaStyle.Render(" • ") + CategoryStyle(r.CategoryName).Render(r.CategoryName)

		marker := "  "
		if i == m.cursor {
			marker = accentStyle.Render("│ ")
			line = selectedRowBg.Render(line)
		}
		b.WriteString(" " + marker + line + "\n")
		b.WriteString(" " + marker + meta + "\n\n")
	}

	footer := fmt.Sprintf("%d expenses · total %s", len(m.rows), domain.FormatAmount(m.total()))
	b.WriteString(" " + metaStyle.Render(footer))
	return b.String()
}
