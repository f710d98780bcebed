package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tally/internal/expenses"
	"github.com/naveenspark/tally/pkg/domain"
)

type addField int

const (
	fieldAmount addField = iota
	fieldCategory
	fieldDescription
	fieldDate
	numAddFields
)

// expenseAddedMsg is the outcome of an add submission.
type expenseAddedMsg struct {
	expense *domain.Expense
	err     error
}

// addModel is the add-expense modal.
type addModel struct {
	fields     [numAddFields]string
	focus      addField
	status     string
	submitting bool
}

func newAddModel(now time.Time) addModel {
	var m addModel
	return m.reset(now)
}

// reset restores the defaults: empty fields and today's date.
func (m addModel) reset(now time.Time) addModel {
	d := expenses.NewDraft(now)
	m.fields = [numAddFields]string{}
	m.fields[fieldDate] = d.Date
	m.focus = fieldAmount
	m.status = ""
	m.submitting = false
	return m
}

func (m addModel) draft() expenses.Draft {
	return expenses.Draft{
		Amount:      m.fields[fieldAmount],
		Category:    m.fields[fieldCategory],
		Description: m.fields[fieldDescription],
		Date:        m.fields[fieldDate],
	}
}

func (m addModel) Update(msg tea.KeyMsg) addModel {
	m.status = ""

	switch key := msg.String(); key {
	case "tab", "down", "enter":
		m.focus = (m.focus + 1) % numAddFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numAddFields) % numAddFields
	case "left", "right":
		if m.focus == fieldCategory {
			m.fields[fieldCategory] = cycleCategory(m.fields[fieldCategory], key == "right")
		}
	default:
		f := &m.fields[m.focus]
		*f = editRune(*f, key)
	}
	return m
}

// cycleCategory steps through the fixed category set. A blank or custom value
// starts at either end.
func cycleCategory(current string, forward bool) string {
	cats := domain.Categories
	idx := -1
	for i, c := range cats {
		if c == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && forward:
		return cats[0]
	case idx < 0:
		return cats[len(cats)-1]
	case forward:
		return cats[(idx+1)%len(cats)]
	default:
		return cats[(idx-1+len(cats))%len(cats)]
	}
}

func (m addModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add New Expense") + "\n\n")

	b.WriteString(renderField("amount", m.fields[fieldAmount], "0.00", m.focus == fieldAmount, false) + "\n")

	cat := m.fields[fieldCategory]
	catLine := renderField("category", cat, "select a category", m.focus == fieldCategory, false)
	if cat != "" && !domain.ValidCategory(cat) {
		catLine += " " + dimStyle.Render("(custom)")
	}
	if m.focus == fieldCategory {
		catLine += "  " + metaStyle.Render("←/→ to cycle")
	}
	b.WriteString(catLine + "\n")

	b.WriteString(renderField("description", m.fields[fieldDescription], "what was it?", m.focus == fieldDescription, false) + "\n")
	b.WriteString(renderField("date", m.fields[fieldDate], domain.DateLayout, m.focus == fieldDate, false) + "\n\n")

	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("adding..."))
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(fmt.Sprintf("%s  %s", helpEntry("ctrl+s", "add expense"), helpEntry("esc", "cancel")))
	}
	return modalStyle.Render(b.String())
}
