package flow

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Builder.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Builder.AddNode] when a node with the
	// same ID was already declared. The first declaration fixes the node's kind.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidEdgeEndpoint is returned by [Builder.AddEdge] when an edge has
	// an empty source or target id.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Graph is an immutable flow graph: nodes keyed by id plus an edge list.
//
// Nodes keep declaration order and edges keep input order, so every stage
// that iterates the graph produces deterministic output. A Graph is only
// created through [Builder] or [Build] and has no mutating methods; it is
// safe for concurrent reads.
type Graph struct {
	nodes    map[string]Node
	order    []string
	edges    []Edge
	outgoing map[string][]int // node id -> indexes into edges
	incoming map[string][]int
}

// Builder assembles a [Graph]. It is not safe for concurrent use.
type Builder struct {
	g *Graph
}

// NewBuilder returns a builder for an empty graph.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{
		nodes:    make(map[string]Node),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}}
}

// AddNode declares a node. Returns ErrInvalidNodeID for an empty id and
// ErrDuplicateNodeID when the id is already declared; the existing node is
// left unchanged in that case.
func (b *Builder) AddNode(n Node) error {
	id := n.NodeID()
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, exists := b.g.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
	}
	b.g.nodes[id] = n
	b.g.order = append(b.g.order, id)
	return nil
}

// AddEdge appends an edge. Endpoints need not be declared (yet); repeated
// edges are kept.
func (b *Builder) AddEdge(e Edge) error {
	if e.From == "" || e.To == "" {
		return ErrInvalidEdgeEndpoint
	}
	idx := len(b.g.edges)
	b.g.edges = append(b.g.edges, e)
	b.g.outgoing[e.From] = append(b.g.outgoing[e.From], idx)
	b.g.incoming[e.To] = append(b.g.incoming[e.To], idx)
	return nil
}

// Graph returns the built graph. The builder must not be used afterwards.
func (b *Builder) Graph() *Graph {
	g := b.g
	b.g = nil
	return g
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Kind returns the kind of the node with the given id, or 0 if unknown.
func (g *Graph) Kind(id string) Kind {
	if n, ok := g.nodes[id]; ok {
		return n.Kind()
	}
	return 0
}

// Has reports whether a node with the given id was declared.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Section returns the section with the given id.
func (g *Graph) Section(id string) (Section, bool) {
	s, ok := g.nodes[id].(Section)
	return s, ok
}

// Question returns the question with the given id.
func (g *Graph) Question(id string) (Question, bool) {
	q, ok := g.nodes[id].(Question)
	return q, ok
}

// Recommendation returns the recommendation with the given id.
func (g *Graph) Recommendation(id string) (Recommendation, bool) {
	r, ok := g.nodes[id].(Recommendation)
	return r, ok
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Sections returns all sections in declaration order.
func (g *Graph) Sections() []Section {
	var out []Section
	for _, id := range g.order {
		if s, ok := g.nodes[id].(Section); ok {
			out = append(out, s)
		}
	}
	return out
}

// Questions returns all questions in declaration order.
func (g *Graph) Questions() []Question {
	var out []Question
	for _, id := range g.order {
		if q, ok := g.nodes[id].(Question); ok {
			out = append(out, q)
		}
	}
	return out
}

// Edges returns a copy of all edges in input order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Outgoing returns the edges leaving id in input order.
func (g *Graph) Outgoing(id string) []Edge { return g.pick(g.outgoing[id]) }

// Incoming returns the edges entering id in input order.
func (g *Graph) Incoming(id string) []Edge { return g.pick(g.incoming[id]) }

// NodeCount returns the number of declared nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges, including dangling ones.
func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) pick(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}
