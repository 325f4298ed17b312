package flow

import "fmt"

// Code identifies a class of non-fatal compile problem.
type Code string

const (
	// CodeDuplicateNode marks a re-declaration of an existing node id.
	CodeDuplicateNode Code = "duplicate_node"
	// CodeDanglingEdge marks an edge whose endpoint was never declared.
	CodeDanglingEdge Code = "dangling_edge"
	// CodeOrphanQuestion marks a question that belongs to no section.
	CodeOrphanQuestion Code = "orphan_question"
	// CodeCycle marks a chain of intermediate nodes that loops back on itself.
	CodeCycle Code = "cycle"
	// CodeChainTooDeep marks a chain that exceeded the configured depth bound.
	CodeChainTooDeep Code = "chain_too_deep"
)

// Diagnostic is a warning produced while building or resolving a graph.
// Diagnostics never stop compilation; the affected record is dropped.
type Diagnostic struct {
	Line    int    `json:"line,omitempty"`
	Code    Code   `json:"code"`
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

// String formats the diagnostic as "line N: code: message".
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", d.Line, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}
