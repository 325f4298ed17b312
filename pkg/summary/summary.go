// Package summary collects the answers given on a form, section by section.
package summary

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/flowform/pkg/form"
	"github.com/matzehuels/flowform/pkg/visibility"
)

// Summary is the answered part of a form.
type Summary struct {
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections"`
}

// Section holds the answers and recommendations of one form section.
type Section struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Entries         []Entry  `json:"entries,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Entry is one answered question. Answers holds the checked choices, or the
// typed text of a free-text question.
type Entry struct {
	QuestionID string   `json:"questionId"`
	Question   string   `json:"question"`
	Answers    []string `json:"answers"`
}

// Build summarizes the visible answers in st. Sections keep form order and
// are left out when nothing in them was answered. Recommendations are those
// attached to checked answers, without duplicates.
func Build(spec *form.Spec, st *visibility.State) Summary {
	sum := Summary{Title: spec.Title, Sections: []Section{}}

	for _, sec := range spec.Sections {
		out := Section{ID: sec.ID, Title: sec.Title}
		for _, q := range sec.Questions {
			if !st.Visible(q.ID) {
				continue
			}
			if q.FreeText() {
				if text := strings.TrimSpace(st.Text(q.ID)); text != "" {
					out.Entries = append(out.Entries, Entry{QuestionID: q.ID, Question: q.Text, Answers: []string{text}})
				}
				continue
			}

			selected := st.Selected(q.ID)
			if len(selected) == 0 {
				continue
			}
			out.Entries = append(out.Entries, Entry{QuestionID: q.ID, Question: q.Text, Answers: selected})
			for _, text := range selected {
				a, ok := q.Answer(text)
				if ok && a.Recommendation != nil && !slices.Contains(out.Recommendations, *a.Recommendation) {
					out.Recommendations = append(out.Recommendations, *a.Recommendation)
				}
			}
		}
		if len(out.Entries) > 0 || len(out.Recommendations) > 0 {
			sum.Sections = append(sum.Sections, out)
		}
	}
	return sum
}

// Empty reports whether no question was answered.
func (s Summary) Empty() bool { return len(s.Sections) == 0 }

// Recommendations returns all recommendation texts across sections, without
// duplicates.
func (s Summary) Recommendations() []string {
	var out []string
	for _, sec := range s.Sections {
		for _, r := range sec.Recommendations {
			if !slices.Contains(out, r) {
				out = append(out, r)
			}
		}
	}
	return out
}

// String renders the summary as indented plain text.
func (s Summary) String() string {
	if s.Empty() {
		return "No answers given.\n"
	}
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Title)
	}
	for i, sec := range s.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", sec.Title)
		for _, r := range sec.Recommendations {
			fmt.Fprintf(&b, "  * %s\n", r)
		}
		for _, e := range sec.Entries {
			fmt.Fprintf(&b, "  %s %s\n", e.Question, strings.Join(e.Answers, ", "))
		}
	}
	return b.String()
}
