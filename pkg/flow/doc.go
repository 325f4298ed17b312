// Package flow provides the typed graph that flowform compiles forms from.
//
// # Overview
//
// A flow graph has three node variants, modeled as a sealed interface:
//
//   - [Section]: a titled group of questions ("1 Intro")
//   - [Question]: a decision point; its outgoing edges are its answers
//   - [Recommendation]: a terminal outcome attached to an answer
//
// Edges are directed and carry an optional label (the answer text) and a
// multi-select flag. Duplicate edges and edges to undeclared nodes are kept;
// later stages decide what they mean.
//
// # Building
//
// Graphs are built once from diagram tokens and are read-only afterwards:
//
//	g, diags := flow.Parse(src)
//	for _, d := range diags {
//	    logger.Warn(d.String())
//	}
//
// Problems in the input never fail the build. They are returned as
// [Diagnostic] values and the affected declaration or record is dropped.
//
// # Iteration Order
//
// [Graph.Nodes], [Graph.Sections] and [Graph.Questions] return nodes in
// declaration order. [Graph.Edges], [Graph.Outgoing] and [Graph.Incoming]
// return edges in input order.
package flow
