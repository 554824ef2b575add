package picker

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	prefixGlyph  = "?"
	pointerGlyph = "❯"
	helpTip      = "(Use arrow keys)"

	// itemChrome is the widest prefix drawn before a label ("- " or "❯ ").
	itemChrome = 2
)

// hideCursor is appended to every frame while the picker owns the cursor.
var hideCursor = termenv.CSI + termenv.HideCursorSeq

var (
	prefixStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	messageStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// View implements tea.Model. It is a pure function of the model.
func (m Model[V]) View() string {
	if m.err != nil {
		return ""
	}

	switch m.phase {
	case phaseLoading:
		return m.viewLoading()
	case phasePending:
		return m.viewList()
	case phaseDone:
		return m.viewDone()
	default:
		return ""
	}
}

// header renders the prefix glyph and the question.
func (m Model[V]) header() string {
	return prefixStyle.Render(prefixGlyph) + " " + messageStyle.Render(m.message)
}

// viewLoading renders the single loading line with 1-3 trailing dots.
func (m Model[V]) viewLoading() string {
	dots := strings.Repeat(".", m.tick+1)
	return m.header() + " " + dimStyle.Render(m.searchText+dots) + hideCursor
}

// viewList renders the question, every item and the active description.
func (m Model[V]) viewList() string {
	var b strings.Builder
	b.WriteString(m.header())
	if !m.firstRenderDone {
		b.WriteString(" " + dimStyle.Render(helpTip))
	}

	for i, it := range m.items {
		b.WriteRune('\n')
		b.WriteString(m.viewItem(i, it))
	}

	if c, ok := choiceAt(m.items, m.active); ok && c.Description != "" {
		b.WriteRune('\n')
		b.WriteString(activeStyle.Render(m.fit(SanitizeLabel(c.Description), 0)))
	}

	b.WriteString(hideCursor)
	return b.String()
}

// viewItem renders one list row.
func (m Model[V]) viewItem(i int, it Item[V]) string {
	switch it := it.(type) {
	case Separator:
		return " " + dimStyle.Render(m.fit(SanitizeLabel(it.line()), 1))
	case Choice[V]:
		if it.IsDisabled() {
			row := "- " + SanitizeLabel(it.Label()) + " " + SanitizeLabel(it.disabledLabel())
			return dimStyle.Render(m.fit(row, 0))
		}
		label := m.fit(SanitizeLabel(it.Label()), itemChrome)
		switch {
		case i == m.active:
			return activeStyle.Render(pointerGlyph + " " + label)
		default:
			return "  " + label
		}
	default:
		return ""
	}
}

// viewDone renders the final answer line. The cursor is released, so no
// hide sequence is appended.
func (m Model[V]) viewDone() string {
	c, _ := choiceAt(m.items, m.active)
	return m.header() + " " + activeStyle.Render(SanitizeLabel(c.Label()))
}

// fit truncates s to the terminal width minus reserved columns.
func (m Model[V]) fit(s string, reserved int) string {
	if m.width <= reserved {
		return s
	}
	return Truncate(s, m.width-reserved)
}
