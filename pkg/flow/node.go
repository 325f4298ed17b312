package flow

// Kind distinguishes the three node variants of a flow graph.
type Kind int

const (
	// KindSection is a top-level grouping of questions.
	KindSection Kind = iota + 1
	// KindQuestion is a decision point whose outgoing edges are its answers.
	KindQuestion
	// KindRecommendation is a terminal textual outcome.
	KindRecommendation
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindQuestion:
		return "question"
	case KindRecommendation:
		return "recommendation"
	default:
		return "unknown"
	}
}

// Node is implemented by [Section], [Question] and [Recommendation] only.
// Use a type switch to reach the variant's fields.
type Node interface {
	NodeID() string
	Kind() Kind
	sealed()
}

// Section groups questions under a title such as "1 Intro".
type Section struct {
	ID    string
	Title string
}

// Question is a decision point.
type Question struct {
	ID   string
	Text string
	// Section is the enclosing section found by the tokenizer, or empty.
	Section string
}

// Recommendation is a terminal outcome attached to an answer.
type Recommendation struct {
	ID   string
	Text string
}

func (s Section) NodeID() string        { return s.ID }
func (q Question) NodeID() string       { return q.ID }
func (r Recommendation) NodeID() string { return r.ID }

func (Section) Kind() Kind        { return KindSection }
func (Question) Kind() Kind       { return KindQuestion }
func (Recommendation) Kind() Kind { return KindRecommendation }

func (Section) sealed()        {}
func (Question) sealed()       {}
func (Recommendation) sealed() {}

// Edge is a directed connection between two node ids.
//
// Edges may reference ids that were never declared; such dangling edges are
// kept in the graph and skipped by the resolvers.
type Edge struct {
	From     string
	To       string
	Label    string // answer text, possibly empty
	Multiple bool   // multi-select branch (dashed arrow)
	Line     int    // 1-based source line, 0 when built by hand
}

// Labeled reports whether the edge carries answer text.
func (e Edge) Labeled() bool { return e.Label != "" }
