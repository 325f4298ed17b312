package compiler

import (
	"fmt"

	"github.com/matzehuels/flowform/pkg/flow"
	"github.com/matzehuels/flowform/pkg/form"
)

// DefaultMaxChainDepth bounds how many non-question nodes an indirect
// dependency chain may pass through.
const DefaultMaxChainDepth = 32

// Dependencies maps question ids to the dependencies gating them.
type Dependencies map[string][]form.Dependency

// ResolveDependencies derives the direct and indirect dependencies of every
// question. Direct dependencies come from labeled question-to-question edges.
// Indirect ones come from a labeled edge out of a question into some other
// node, followed along outgoing edges until the first question on each path.
//
// Both maps list dependencies in edge order. Self-dependencies are dropped.
// Cycles among non-question nodes and chains deeper than maxDepth are cut and
// reported as diagnostics.
func ResolveDependencies(g *flow.Graph, maxDepth int) (direct, indirect Dependencies, diags []flow.Diagnostic) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxChainDepth
	}
	direct = make(Dependencies)
	indirect = make(Dependencies)
	r := &chainResolver{g: g, maxDepth: maxDepth, reported: make(map[string]bool)}

	for _, e := range g.Edges() {
		if g.Kind(e.From) != flow.KindQuestion || !e.Labeled() || e.From == e.To {
			continue
		}

		switch g.Kind(e.To) {
		case flow.KindQuestion:
			direct[e.To] = append(direct[e.To], form.Dependency{
				QuestionID: e.From,
				Answer:     e.Label,
				Multiple:   e.Multiple,
			})
		case flow.KindRecommendation:
			for _, target := range r.follow(e.To, e.Line) {
				if target == e.From {
					continue
				}
				indirect[target] = append(indirect[target], form.Dependency{
					QuestionID: e.From,
					Answer:     e.Label,
					Multiple:   e.Multiple,
					Via:        e.To,
				})
			}
		}
	}
	return direct, indirect, r.diags
}

// chainResolver walks chains of non-question nodes.
type chainResolver struct {
	g        *flow.Graph
	maxDepth int
	reported map[string]bool
	diags    []flow.Diagnostic
}

// follow returns the questions first reached from start, in walk order.
// Sections and undeclared nodes end a path without producing a target.
func (r *chainResolver) follow(start string, line int) []string {
	var (
		targets []string
		seen    = make(map[string]bool)
		onPath  = make(map[string]bool)
		done    = make(map[string]bool)
	)

	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if depth > r.maxDepth {
			r.report(flow.CodeChainTooDeep, id, line,
				fmt.Sprintf("dependency chain from %s exceeds %d nodes at %s; stopped", start, r.maxDepth, id))
			return
		}
		onPath[id] = true
		defer func() {
			delete(onPath, id)
			done[id] = true
		}()

		for _, e := range r.g.Outgoing(id) {
			switch r.g.Kind(e.To) {
			case flow.KindQuestion:
				if !seen[e.To] {
					seen[e.To] = true
					targets = append(targets, e.To)
				}
			case flow.KindRecommendation:
				if onPath[e.To] {
					r.report(flow.CodeCycle, e.To, e.Line,
						fmt.Sprintf("cycle through %s while resolving dependencies from %s", e.To, start))
					continue
				}
				if !done[e.To] {
					visit(e.To, depth+1)
				}
			}
		}
	}
	visit(start, 1)
	return targets
}

func (r *chainResolver) report(code flow.Code, nodeID string, line int, msg string) {
	key := string(code) + "\x00" + nodeID
	if r.reported[key] {
		return
	}
	r.reported[key] = true
	r.diags = append(r.diags, flow.Diagnostic{Line: line, Code: code, NodeID: nodeID, Message: msg})
}
