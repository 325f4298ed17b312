package flow

import (
	"errors"
	"fmt"

	"github.com/matzehuels/flowform/pkg/diagram"
)

// Build assembles tokens from [diagram.Tokenize] into a graph.
//
// The first declaration of an id fixes its kind; later declarations are
// ignored and reported as CodeDuplicateNode. Edges whose endpoints are never
// declared are kept and reported as CodeDanglingEdge.
func Build(tokens []diagram.Token) (*Graph, []Diagnostic) {
	b := NewBuilder()
	var diags []Diagnostic

	for _, tok := range tokens {
		if !tok.IsNode() {
			continue
		}
		if err := b.AddNode(nodeFromToken(tok)); err != nil {
			if errors.Is(err, ErrDuplicateNodeID) {
				prev, _ := b.g.Node(tok.ID)
				if prev == nodeFromToken(tok) {
					continue // identical restatement
				}
				diags = append(diags, Diagnostic{
					Line:    tok.Line,
					Code:    CodeDuplicateNode,
					NodeID:  tok.ID,
					Message: duplicateMessage(prev, nodeFromToken(tok)),
				})
			}
		}
	}

	for _, tok := range tokens {
		if tok.Kind != diagram.TokenEdge {
			continue
		}
		e := Edge{From: tok.From, To: tok.To, Label: tok.Label, Multiple: tok.Multiple, Line: tok.Line}
		if err := b.AddEdge(e); err != nil {
			continue
		}
		for _, end := range []string{e.From, e.To} {
			if !b.g.Has(end) {
				diags = append(diags, Diagnostic{
					Line:    tok.Line,
					Code:    CodeDanglingEdge,
					NodeID:  end,
					Message: fmt.Sprintf("edge %s --> %s references undeclared node %s", e.From, e.To, end),
				})
			}
		}
	}

	return b.Graph(), diags
}

// Parse tokenizes src and builds its graph. Front matter must already be
// stripped; see [diagram.StripFrontMatter].
func Parse(src string) (*Graph, []Diagnostic) {
	return Build(diagram.Tokenize(src))
}

func nodeFromToken(tok diagram.Token) Node {
	switch tok.Kind {
	case diagram.TokenSection:
		return Section{ID: tok.ID, Title: tok.Text}
	case diagram.TokenQuestion:
		return Question{ID: tok.ID, Text: tok.Text, Section: tok.Section}
	default:
		return Recommendation{ID: tok.ID, Text: tok.Text}
	}
}

func duplicateMessage(prev, next Node) string {
	id := next.NodeID()
	if prev.Kind() != next.Kind() {
		return fmt.Sprintf("%s already declared as %s; ignoring redeclaration as %s", id, prev.Kind(), next.Kind())
	}
	if pq, ok := prev.(Question); ok {
		nq := next.(Question)
		if pq.Section != nq.Section {
			return fmt.Sprintf("question %s already declared in %s; ignoring its restatement in %s, so it is not added to that section",
				id, sectionName(pq.Section), sectionName(nq.Section))
		}
	}
	return fmt.Sprintf("%s already declared as %s; ignoring restatement with different text", id, prev.Kind())
}

func sectionName(id string) string {
	if id == "" {
		return "no section"
	}
	return "section " + id
}
