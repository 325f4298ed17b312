package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowform/pkg/form"
	"github.com/matzehuels/flowform/pkg/visibility"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listCheckedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// FillModel - Interactive form filling
// =============================================================================

// FillModel is the bubbletea model that walks the visible questions of a
// form. Visibility is recomputed after every answer, so later questions
// appear and disappear as the user goes.
type FillModel struct {
	Spec  *form.Spec
	State *visibility.State

	// Current indexes the visible questions; Choice indexes the answers of
	// the current question.
	Current int
	Choice  int
	// Input is the text being typed for a free-text question.
	Input string

	// Done is set when the user moves past the last question. Cleared
	// collects questions whose answers were reset because they got hidden.
	Done    bool
	Cleared []string

	engine *visibility.Engine
	text   textinput.Model
}

// NewFillModel creates a fill model with every question unanswered.
func NewFillModel(spec *form.Spec, engine *visibility.Engine) FillModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 1024
	ti.Focus()

	m := FillModel{
		Spec:   spec,
		State:  visibility.FromSpec(spec),
		engine: engine,
		text:   ti,
	}
	m.engine.Update(m.State)
	m.enter()
	return m
}

func (m FillModel) Init() tea.Cmd {
	return nil
}

func (m FillModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	}

	q, ok := m.question()
	if !ok {
		m.Done = true
		return m, tea.Quit
	}
	if q.FreeText() {
		return m.updateText(key, q)
	}
	return m.updateChoice(key, q)
}

// updateText handles navigation keys and hands the rest to the line editor.
func (m FillModel) updateText(key tea.KeyMsg, q form.Question) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		_ = m.State.SetText(q.ID, strings.TrimSpace(m.Input))
		m.refresh(q.ID)
		return m.next()
	case tea.KeyTab, tea.KeyDown:
		return m.next()
	case tea.KeyShiftTab, tea.KeyUp:
		m.prev()
		return m, nil
	}
	m.text, _ = m.text.Update(key)
	m.Input = m.text.Value()
	return m, nil
}

func (m FillModel) updateChoice(key tea.KeyMsg, q form.Question) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.Choice > 0 {
			m.Choice--
		}
	case "down", "j":
		if m.Choice < len(q.Answers)-1 {
			m.Choice++
		}
	case " ", "space":
		m.toggle(q)
	case "enter":
		if !q.Multiple() || len(m.State.Selected(q.ID)) == 0 {
			m.toggle(q)
		}
		return m.next()
	case "tab", "right", "l":
		return m.next()
	case "shift+tab", "left", "h":
		m.prev()
	}
	return m, nil
}

// toggle selects the answer under the cursor, or deselects it when it is
// already checked on a multiple-choice question.
func (m *FillModel) toggle(q form.Question) {
	answer := q.Answers[m.Choice].Text
	if q.Multiple() && slices.Contains(m.State.Selected(q.ID), answer) {
		_ = m.State.Deselect(q.ID, answer)
	} else {
		_ = m.State.Select(q.ID, answer)
	}
	m.refresh(q.ID)
}

// refresh recomputes visibility and keeps the cursor on id.
func (m *FillModel) refresh(id string) {
	res := m.engine.Update(m.State)
	m.Cleared = append(m.Cleared, res.Cleared...)
	if i := slices.Index(m.State.VisibleQuestions(), id); i >= 0 {
		m.Current = i
	}
}

func (m FillModel) next() (tea.Model, tea.Cmd) {
	m.Current++
	if m.Current >= len(m.State.VisibleQuestions()) {
		m.Done = true
		return m, tea.Quit
	}
	m.enter()
	return m, nil
}

func (m *FillModel) prev() {
	if m.Current > 0 {
		m.Current--
		m.enter()
	}
}

// enter resets the answer cursor and input for the current question.
func (m *FillModel) enter() {
	m.Choice = 0
	m.Input = ""
	m.text.Reset()
	q, ok := m.question()
	if !ok {
		return
	}
	m.text.SetValue(m.State.Text(q.ID))
	m.text.CursorEnd()
	m.Input = m.text.Value()
	if sel := m.State.Selected(q.ID); len(sel) > 0 {
		for i, a := range q.Answers {
			if a.Text == sel[0] {
				m.Choice = i
				break
			}
		}
	}
}

func (m FillModel) question() (form.Question, bool) {
	visible := m.State.VisibleQuestions()
	if m.Current < 0 || m.Current >= len(visible) {
		return form.Question{}, false
	}
	q, _, ok := m.Spec.Question(visible[m.Current])
	return q, ok
}

func (m FillModel) View() string {
	if m.Done {
		return ""
	}
	var b strings.Builder

	title := m.Spec.Title
	if title == "" {
		title = "Form"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	q, ok := m.question()
	if !ok {
		b.WriteString(listDimStyle.Render("No questions to answer. Press any key."))
		b.WriteString("\n")
		return b.String()
	}
	_, sec, _ := m.Spec.Question(q.ID)

	visible := m.State.VisibleQuestions()
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s  [%d/%d]", sec.Name, m.Current+1, len(visible))))
	b.WriteString("\n\n")
	b.WriteString(listNormalStyle.Bold(true).Render(q.Text))
	b.WriteString("\n\n")

	if q.FreeText() {
		r := []rune(m.Input)
		pos := min(max(m.text.Position(), 0), len(r))
		b.WriteString(listSelectedStyle.Render("> " + string(r[:pos]) + "_" + string(r[pos:])))
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render("type to answer  ⏎ save  tab skip  esc quit"))
		return b.String()
	}

	selected := m.State.Selected(q.ID)
	for i, a := range q.Answers {
		cursor := "  "
		if i == m.Choice {
			cursor = "▸ "
		}
		mark := "( )"
		if a.Multiple {
			mark = "[ ]"
		}
		if slices.Contains(selected, a.Text) {
			mark = listCheckedStyle.Render(strings.Replace(mark, " ", "x", 1))
		}
		line := cursor + mark + " " + a.Text
		if a.Recommendation != nil {
			line += listDimStyle.Render("  → " + *a.Recommendation)
		}
		if i == m.Choice {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "↑/↓ choose  ⏎ answer  tab skip  ←/→ move  q quit"
	if q.Multiple() {
		help = "↑/↓ choose  space toggle  ⏎ next  ←/→ move  q quit"
	}
	b.WriteString(listDimStyle.Render(help))
	return b.String()
}
