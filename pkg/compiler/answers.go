package compiler

import (
	"slices"

	"github.com/matzehuels/flowform/pkg/flow"
	"github.com/matzehuels/flowform/pkg/form"
)

// Answers maps question ids to their answers in edge order.
type Answers map[string][]form.Answer

// ResolveAnswers derives one answer per outgoing edge of every question.
//
// Two kinds of edge produce no answer: an unlabeled edge to another question,
// which only chains questions together, and an edge to an undeclared node.
// Unlabeled edges to anything else get the placeholder text.
func ResolveAnswers(g *flow.Graph, placeholder string) Answers {
	if placeholder == "" {
		placeholder = form.DefaultPlaceholder
	}

	out := make(Answers)
	for _, q := range g.Questions() {
		for _, e := range g.Outgoing(q.ID) {
			target, ok := g.Node(e.To)
			if !ok {
				continue // dangling; reported by flow.Build
			}
			if !e.Labeled() && target.Kind() == flow.KindQuestion {
				continue
			}

			a := form.Answer{
				Text:     e.Label,
				TargetID: e.To,
				Multiple: e.Multiple,
			}
			if a.Text == "" {
				a.Text = placeholder
			}
			if r, ok := target.(flow.Recommendation); ok {
				text := r.Text
				a.Recommendation = &text
			}
			out[q.ID] = append(out[q.ID], a)
		}
	}
	return out
}

// RollupRecommendations collects, per section, the recommendation texts
// reachable from the answers of its questions. Texts are deduplicated
// literally and keep first-seen order.
func RollupRecommendations(g *flow.Graph, m Membership, answers Answers) map[string][]string {
	out := make(map[string][]string)
	for _, s := range g.Sections() {
		for _, qid := range m.Questions(s.ID) {
			for _, a := range answers[qid] {
				if a.Recommendation == nil {
					continue
				}
				if !slices.Contains(out[s.ID], *a.Recommendation) {
					out[s.ID] = append(out[s.ID], *a.Recommendation)
				}
			}
		}
	}
	return out
}
