// Package form defines the form specification produced by the compiler.
//
// A [Spec] is a tree of ordered sections, each holding ordered questions,
// each holding its answers and the dependencies that gate its visibility.
// It is the contract between the compiler and every consumer: renderers,
// the visibility engine, the summary builder and the HTTP API.
package form

import (
	"encoding/json"

	"github.com/matzehuels/flowform/pkg/flow"
)

// DefaultPlaceholder is the answer text used for unlabeled answer edges.
const DefaultPlaceholder = "(select)"

// Spec is a compiled form.
type Spec struct {
	Title       string            `json:"title,omitempty"`
	Sections    []Section         `json:"sections"`
	Diagnostics []flow.Diagnostic `json:"diagnostics,omitempty"`
}

// Section is an ordered group of questions.
type Section struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"` // as written, e.g. "1 Intro"
	Name            string     `json:"name"`  // title without its numeric prefix
	Order           int        `json:"order"` // leading integer of the title, 0 if none
	Questions       []Question `json:"questions"`
	Recommendations []string   `json:"recommendations,omitempty"`
}

// Question is a decision point with its answers and visibility predicate.
type Question struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Answers      []Answer     `json:"answers"`
	Dependencies []Dependency `json:"dependencies"`
}

// Answer is one selectable choice of a question.
type Answer struct {
	Text     string `json:"text"`
	TargetID string `json:"targetId"`
	Multiple bool   `json:"multiple"`
	// Recommendation is set when TargetID names a recommendation node.
	Recommendation *string `json:"recommendation"`
}

// Dependency requires Answer to be selected on QuestionID.
type Dependency struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	Multiple   bool   `json:"multiple"`
	// Via names the intermediate node of an indirect dependency; empty for
	// a direct one.
	Via string `json:"via,omitempty"`
}

// Direct reports whether the dependency comes from a question-to-question edge.
func (d Dependency) Direct() bool { return d.Via == "" }

// Requirement is the runtime encoding of a dependency: the pair a renderer
// attaches to a question element.
type Requirement struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// Requirements returns the question's dependencies in runtime form.
func (q Question) Requirements() []Requirement {
	out := make([]Requirement, len(q.Dependencies))
	for i, d := range q.Dependencies {
		out[i] = Requirement{QuestionID: d.QuestionID, Answer: d.Answer}
	}
	return out
}

// EncodeRequirements returns the JSON attribute value a renderer attaches to
// the question's container element.
func (q Question) EncodeRequirements() string {
	data, err := json.Marshal(q.Requirements())
	if err != nil {
		return "[]"
	}
	return string(data)
}

// FreeText reports whether the question has no choices and takes a typed
// answer instead.
func (q Question) FreeText() bool { return len(q.Answers) == 0 }

// Answer returns the answer with the given text.
func (q Question) Answer(text string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.Text == text {
			return a, true
		}
	}
	return Answer{}, false
}

// Multiple reports whether the question allows several answers at once.
func (q Question) Multiple() bool {
	for _, a := range q.Answers {
		if a.Multiple {
			return true
		}
	}
	return false
}

// Question returns the question with the given id and the section holding it.
func (s *Spec) Question(id string) (Question, *Section, bool) {
	for i := range s.Sections {
		for _, q := range s.Sections[i].Questions {
			if q.ID == id {
				return q, &s.Sections[i], true
			}
		}
	}
	return Question{}, nil, false
}

// QuestionCount returns the number of questions across all sections.
func (s *Spec) QuestionCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Questions)
	}
	return n
}

// QuestionIDs returns question ids in form order. A question listed in more
// than one section appears once, at its first position.
func (s *Spec) QuestionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			if !seen[q.ID] {
				seen[q.ID] = true
				ids = append(ids, q.ID)
			}
		}
	}
	return ids
}
