package visibility

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/flowform/pkg/form"
)

var (
	// ErrUnknownQuestion is returned when an id names no question in the state.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrUnknownAnswer is returned when an answer text is not a choice of the question.
	ErrUnknownAnswer = errors.New("unknown answer")

	// ErrHiddenQuestion is returned when input targets a hidden question.
	ErrHiddenQuestion = errors.New("question is hidden")

	// ErrNotFreeText is returned by SetText on a question that has choices.
	ErrNotFreeText = errors.New("question takes no free text")
)

// Form is the view of a rendered form the engine works on: questions in
// presentation order, their requirements, their visibility and their
// answer controls.
type Form interface {
	// Questions returns question ids in presentation order.
	Questions() []string
	// Requirements returns what must be selected for the question to show.
	Requirements(id string) []form.Requirement
	// Hidden reports whether the question is currently hidden.
	Hidden(id string) bool
	// SetHidden shows or hides the question.
	SetHidden(id string, hidden bool)
	// Selected returns the answer texts checked on the question.
	Selected(id string) []string
	// Clear resets all answer controls of the question and reports whether
	// anything was set.
	Clear(id string) bool
}

type question struct {
	reqs     []form.Requirement
	choices  []string
	multiple bool

	hidden   bool
	selected []string
	text     string
}

// State is an in-memory Form. All questions start visible with nothing
// selected; run Engine.Update to settle visibility.
//
// A State is not safe for concurrent use.
type State struct {
	order     []string
	questions map[string]*question
}

// NewState returns an empty state.
func NewState() *State {
	return &State{questions: make(map[string]*question)}
}

// FromSpec builds a state holding every question of the spec in form order.
// A question listed in several sections is added once.
func FromSpec(spec *form.Spec) *State {
	s := NewState()
	for _, sec := range spec.Sections {
		for _, q := range sec.Questions {
			s.AddQuestion(q)
		}
	}
	return s
}

// AddQuestion appends a question. Adding an id twice keeps the first.
func (s *State) AddQuestion(q form.Question) {
	if _, ok := s.questions[q.ID]; ok {
		return
	}
	choices := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		if !slices.Contains(choices, a.Text) {
			choices = append(choices, a.Text)
		}
	}
	s.order = append(s.order, q.ID)
	s.questions[q.ID] = &question{
		reqs:     q.Requirements(),
		choices:  choices,
		multiple: q.Multiple(),
	}
}

// Questions implements Form.
func (s *State) Questions() []string { return slices.Clone(s.order) }

// Requirements implements Form.
func (s *State) Requirements(id string) []form.Requirement {
	if q, ok := s.questions[id]; ok {
		return q.reqs
	}
	return nil
}

// Hidden implements Form. Unknown ids report false.
func (s *State) Hidden(id string) bool {
	q, ok := s.questions[id]
	return ok && q.hidden
}

// Visible reports whether the question exists and is shown.
func (s *State) Visible(id string) bool {
	q, ok := s.questions[id]
	return ok && !q.hidden
}

// SetHidden implements Form.
func (s *State) SetHidden(id string, hidden bool) {
	if q, ok := s.questions[id]; ok {
		q.hidden = hidden
	}
}

// Selected implements Form.
func (s *State) Selected(id string) []string {
	if q, ok := s.questions[id]; ok {
		return slices.Clone(q.selected)
	}
	return nil
}

// Clear implements Form.
func (s *State) Clear(id string) bool {
	q, ok := s.questions[id]
	if !ok || (len(q.selected) == 0 && q.text == "") {
		return false
	}
	q.selected = nil
	q.text = ""
	return true
}

// Select checks an answer. On a single-choice question it replaces the
// current selection; on a multiple-choice question it is added.
func (s *State) Select(id, answer string) error {
	q, err := s.input(id)
	if err != nil {
		return err
	}
	if !slices.Contains(q.choices, answer) {
		return fmt.Errorf("%w %q for question %s (choices: %s)", ErrUnknownAnswer, answer, id, strings.Join(q.choices, ", "))
	}
	switch {
	case !q.multiple:
		q.selected = []string{answer}
	case !slices.Contains(q.selected, answer):
		q.selected = append(q.selected, answer)
	}
	return nil
}

// Deselect unchecks an answer. Deselecting an unchecked answer is a no-op.
func (s *State) Deselect(id, answer string) error {
	q, ok := s.questions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	q.selected = slices.DeleteFunc(q.selected, func(a string) bool { return a == answer })
	return nil
}

// SetText fills the typed answer of a free-text question.
func (s *State) SetText(id, text string) error {
	q, err := s.input(id)
	if err != nil {
		return err
	}
	if len(q.choices) > 0 {
		return fmt.Errorf("%w: %s", ErrNotFreeText, id)
	}
	q.text = text
	return nil
}

// Input enters value on the question: as the typed text of a free-text
// question, otherwise as a checked answer.
func (s *State) Input(id, value string) error {
	if q, ok := s.questions[id]; ok && len(q.choices) == 0 {
		return s.SetText(id, value)
	}
	return s.Select(id, value)
}

// Text returns the typed answer of a free-text question.
func (s *State) Text(id string) string {
	if q, ok := s.questions[id]; ok {
		return q.text
	}
	return ""
}

// Choices returns the answer texts the question offers.
func (s *State) Choices(id string) []string {
	if q, ok := s.questions[id]; ok {
		return slices.Clone(q.choices)
	}
	return nil
}

// VisibleQuestions returns the ids of shown questions in order.
func (s *State) VisibleQuestions() []string {
	var ids []string
	for _, id := range s.order {
		if !s.questions[id].hidden {
			ids = append(ids, id)
		}
	}
	return ids
}

// HiddenQuestions returns the ids of hidden questions in order.
func (s *State) HiddenQuestions() []string {
	var ids []string
	for _, id := range s.order {
		if s.questions[id].hidden {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *State) input(id string) (*question, error) {
	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if q.hidden {
		return nil, fmt.Errorf("%w: %s", ErrHiddenQuestion, id)
	}
	return q, nil
}
