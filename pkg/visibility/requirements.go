package visibility

import (
	"slices"

	"github.com/matzehuels/flowform/pkg/form"
)

// Selection maps question ids to the answer texts currently selected on
// them, in selection order.
type Selection map[string][]string

// Has reports whether answer is selected on the question.
func (s Selection) Has(questionID, answer string) bool {
	return slices.Contains(s[questionID], answer)
}

// Satisfied reports whether every requirement is met by the selection.
// An empty requirement list is always satisfied.
func Satisfied(reqs []form.Requirement, sel Selection) bool {
	for _, r := range reqs {
		if !sel.Has(r.QuestionID, r.Answer) {
			return false
		}
	}
	return true
}
