package compiler

import (
	"slices"

	"github.com/matzehuels/flowform/pkg/flow"
)

// Membership maps sections to the questions they own, and back.
// Question lists keep discovery order and hold no duplicates.
type Membership struct {
	questions map[string][]string // section id -> question ids
	sections  map[string][]string // question id -> section ids
}

func newMembership() Membership {
	return Membership{
		questions: make(map[string][]string),
		sections:  make(map[string][]string),
	}
}

// Questions returns the ids of the questions owned by a section.
func (m Membership) Questions(sectionID string) []string {
	return slices.Clone(m.questions[sectionID])
}

// Sections returns the ids of the sections that own a question.
func (m Membership) Sections(questionID string) []string {
	return slices.Clone(m.sections[questionID])
}

// Contains reports whether the section owns the question.
func (m Membership) Contains(sectionID, questionID string) bool {
	return slices.Contains(m.questions[sectionID], questionID)
}

// add registers membership unless it is already known.
func (m Membership) add(sectionID, questionID string) bool {
	if m.Contains(sectionID, questionID) {
		return false
	}
	m.questions[sectionID] = append(m.questions[sectionID], questionID)
	m.sections[questionID] = append(m.sections[questionID], sectionID)
	return true
}

// ResolveMembership discovers which questions belong to which section.
//
// Three mechanisms contribute, in this order:
//
//  1. direct edges from a section to a question
//  2. the section marker a question picked up inside a section's block
//  3. two-hop chains section → X → question, where X is any declared node
//
// A question found by several mechanisms is listed once, at the position of
// its first discovery.
func ResolveMembership(g *flow.Graph) Membership {
	m := newMembership()
	edges := g.Edges()

	for _, e := range edges {
		if g.Kind(e.From) == flow.KindSection && g.Kind(e.To) == flow.KindQuestion {
			m.add(e.From, e.To)
		}
	}

	for _, q := range g.Questions() {
		if q.Section != "" && g.Kind(q.Section) == flow.KindSection {
			m.add(q.Section, q.ID)
		}
	}

	for _, e := range edges {
		if g.Kind(e.To) != flow.KindQuestion || !g.Has(e.From) {
			continue
		}
		for _, inner := range g.Incoming(e.From) {
			if g.Kind(inner.From) == flow.KindSection {
				m.add(inner.From, e.To)
			}
		}
	}

	return m
}

// orphans returns questions that no section owns, as diagnostics.
func orphans(g *flow.Graph, m Membership) []flow.Diagnostic {
	var diags []flow.Diagnostic
	for _, q := range g.Questions() {
		if len(m.sections[q.ID]) == 0 {
			diags = append(diags, flow.Diagnostic{
				Code:    flow.CodeOrphanQuestion,
				NodeID:  q.ID,
				Message: "question " + q.ID + " " + quote(q.Text) + " belongs to no section and is left out of the form",
			})
		}
	}
	return diags
}
