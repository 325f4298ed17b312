package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowform/pkg/form"
	"github.com/matzehuels/flowform/pkg/pipeline"
	"github.com/matzehuels/flowform/pkg/summary"
	"github.com/matzehuels/flowform/pkg/visibility"
)

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyBack  = tea.KeyMsg{Type: tea.KeyBackspace}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newFillModel(t *testing.T) FillModel {
	t.Helper()
	res, err := pipeline.Compile(pipeline.Options{Source: diagram})
	require.NoError(t, err)
	return NewFillModel(res.Spec, visibility.NewEngine(0, nil))
}

// press feeds keys to m and returns the final model and the last command.
func press(t *testing.T, m FillModel, keys ...tea.KeyMsg) (FillModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(FillModel)
	}
	return m, cmd
}

func currentID(m FillModel) string {
	q, _ := m.question()
	return q.ID
}

func TestFillModelStartsOnFirstVisibleQuestion(t *testing.T) {
	m := newFillModel(t)
	assert.Equal(t, "B", currentID(m))
	assert.Equal(t, []string{"B"}, m.State.VisibleQuestions())

	view := m.View()
	assert.Contains(t, view, "Planning")
	assert.Contains(t, view, "Has deadline?")
	assert.Contains(t, view, "Yes")
	assert.Contains(t, view, "[1/1]")
}

func TestFillModelAnswersRevealQuestions(t *testing.T) {
	m := newFillModel(t)

	m, cmd := press(t, m, keyDown, keyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"No"}, m.State.Selected("B"))
	assert.Equal(t, "D", currentID(m), "answering No reveals D")

	m, cmd = press(t, m, keyEnter)
	assert.NotNil(t, cmd, "past the last question quits")
	assert.True(t, m.Done)
	assert.Equal(t, []string{"Weekly"}, m.State.Selected("D"))
	assert.Equal(t, "", m.View())

	s := summary.Build(m.Spec, m.State)
	assert.Equal(t, []string{"Use calendar"}, s.Recommendations())
}

func TestFillModelChangeOfMindClears(t *testing.T) {
	m := newFillModel(t)
	m, _ = press(t, m, keyDown, keyEnter, runes("j"))
	require.Equal(t, "D", currentID(m))
	m, _ = press(t, m, keySpace)
	require.Equal(t, []string{"Weekly"}, m.State.Selected("D"))

	m, _ = press(t, m, keyLeft)
	assert.Equal(t, "B", currentID(m))
	assert.Equal(t, 1, m.Choice, "cursor starts on the selected answer")

	m, cmd := press(t, m, keyUp, keyEnter)
	assert.True(t, m.Done)
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"Yes"}, m.State.Selected("B"))
	assert.True(t, m.State.Hidden("D"))
	assert.Empty(t, m.State.Selected("D"))
	assert.Equal(t, []string{"D"}, m.Cleared)
}

func TestFillModelQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyEsc, runes("q"), {Type: tea.KeyCtrlC}} {
		m, cmd := press(t, newFillModel(t), k)
		assert.NotNil(t, cmd, "%s should quit", k)
		assert.False(t, m.Done)
	}
}

func TestFillModelCursorBounds(t *testing.T) {
	m := newFillModel(t)
	m, _ = press(t, m, keyUp, keyUp)
	assert.Equal(t, 0, m.Choice)
	m, _ = press(t, m, keyDown, keyDown, keyDown)
	assert.Equal(t, 1, m.Choice)
}

func TestFillModelMultipleChoice(t *testing.T) {
	spec := &form.Spec{Sections: []form.Section{{
		ID: "A", Title: "1 Contact", Name: "Contact",
		Questions: []form.Question{{ID: "M", Text: "How to reach you?", Answers: []form.Answer{
			{Text: "mail", Multiple: true},
			{Text: "phone", Multiple: true},
		}}},
	}}}
	m := NewFillModel(spec, visibility.NewEngine(0, nil))

	m, _ = press(t, m, keySpace, keyDown, keySpace)
	assert.Equal(t, []string{"mail", "phone"}, m.State.Selected("M"))
	assert.Contains(t, m.View(), "[x]")

	m, _ = press(t, m, keyUp, keySpace)
	assert.Equal(t, []string{"phone"}, m.State.Selected("M"))

	m, _ = press(t, m, keyEnter)
	assert.True(t, m.Done)
	assert.Equal(t, []string{"phone"}, m.State.Selected("M"), "enter keeps an existing selection")
}

func TestFillModelFreeText(t *testing.T) {
	spec := &form.Spec{Title: "Feedback", Sections: []form.Section{{
		ID: "A", Title: "1 Notes", Name: "Notes",
		Questions: []form.Question{{ID: "F", Text: "Anything else?"}},
	}}}
	m := NewFillModel(spec, visibility.NewEngine(0, nil))

	m, _ = press(t, m, runes("hi"), keySpace, runes("x"), keyBack)
	assert.Equal(t, "hi ", m.Input)
	assert.Contains(t, m.View(), "> hi _")

	m, cmd := press(t, m, runes("q"))
	assert.Nil(t, cmd, "q is text in a free-text question")
	assert.Equal(t, "hi q", m.Input)

	m, cmd = press(t, m, keyBack, keyEnter)
	assert.NotNil(t, cmd)
	assert.True(t, m.Done)
	assert.Equal(t, "hi", m.State.Text("F"))
}

func TestFillModelFreeTextEditing(t *testing.T) {
	spec := &form.Spec{Sections: []form.Section{{
		ID: "A", Title: "1 Notes", Name: "Notes",
		Questions: []form.Question{
			{ID: "F", Text: "Anything else?"},
			{ID: "G", Text: "Name?"},
		},
	}}}
	m := NewFillModel(spec, visibility.NewEngine(0, nil))

	m, _ = press(t, m, runes("hi"), keyLeft, runes("a"))
	assert.Equal(t, "hai", m.Input)
	assert.Contains(t, m.View(), "> ha_i")

	m, _ = press(t, m, keyEnter)
	require.Equal(t, "G", currentID(m))
	assert.Empty(t, m.Input)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "F", currentID(m))
	assert.Equal(t, "hai", m.Input, "going back restores the saved text")
	assert.Contains(t, m.View(), "> hai_")

	m, _ = press(t, m, keyTab)
	assert.Equal(t, "G", currentID(m))
}

func TestFillModelEmptyForm(t *testing.T) {
	m := NewFillModel(&form.Spec{}, visibility.NewEngine(0, nil))
	assert.Contains(t, m.View(), "No questions")

	m, cmd := press(t, m, keyEnter)
	assert.True(t, m.Done)
	assert.NotNil(t, cmd)
}
