package compiler

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowform/pkg/diagram"
	"github.com/matzehuels/flowform/pkg/flow"
	"github.com/matzehuels/flowform/pkg/form"
)

// Options configures a compile.
type Options struct {
	// Placeholder is the answer text for unlabeled answer edges.
	// Default: form.DefaultPlaceholder.
	Placeholder string

	// MaxChainDepth bounds indirect dependency chains.
	// Default: DefaultMaxChainDepth.
	MaxChainDepth int

	// Logger receives stage timings at debug level and diagnostics at warn
	// level. Default: discards everything.
	Logger *log.Logger
}

// SetDefaults fills in zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Placeholder == "" {
		o.Placeholder = form.DefaultPlaceholder
	}
	if o.MaxChainDepth <= 0 {
		o.MaxChainDepth = DefaultMaxChainDepth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Result is the output of a compile.
type Result struct {
	Graph       *flow.Graph
	Spec        *form.Spec
	FrontMatter diagram.FrontMatter
}

// Compile turns diagram text into a form spec. It never fails: malformed
// lines are ignored and structural problems end up in Spec.Diagnostics.
// Compiling the same text twice yields equal specs.
func Compile(src string, opts Options) *Result {
	opts.SetDefaults()

	fm, body := diagram.StripFrontMatter(src)
	tokens := diagram.Tokenize(body)
	g, diags := flow.Build(tokens)
	opts.Logger.Debug("parsed diagram", "tokens", len(tokens), "nodes", g.NodeCount(), "edges", g.EdgeCount())

	spec := CompileGraph(g, opts)
	spec.Title = fm.Title
	spec.Diagnostics = append(diags, spec.Diagnostics...)

	for _, d := range spec.Diagnostics {
		opts.Logger.Warn(d.Message, "code", d.Code, "line", d.Line)
	}
	return &Result{Graph: g, Spec: spec, FrontMatter: fm}
}

// CompileGraph runs the resolver and ordering stages over a built graph.
// Diagnostics of the graph build are not included.
func CompileGraph(g *flow.Graph, opts Options) *form.Spec {
	opts.SetDefaults()

	membership := ResolveMembership(g)
	answers := ResolveAnswers(g, opts.Placeholder)
	recs := RollupRecommendations(g, membership, answers)
	direct, indirect, diags := ResolveDependencies(g, opts.MaxChainDepth)
	diags = append(diags, orphans(g, membership)...)

	spec := &form.Spec{Sections: []form.Section{}, Diagnostics: diags}
	for _, s := range g.Sections() {
		order, name := SectionOrder(s.Title)
		sec := form.Section{
			ID:              s.ID,
			Title:           s.Title,
			Name:            name,
			Order:           order,
			Questions:       []form.Question{},
			Recommendations: recs[s.ID],
		}
		for _, qid := range membership.Questions(s.ID) {
			q, _ := g.Question(qid)
			deps := make([]form.Dependency, 0, len(direct[qid])+len(indirect[qid]))
			deps = append(deps, direct[qid]...)
			deps = append(deps, indirect[qid]...)
			ans := answers[qid]
			if ans == nil {
				ans = []form.Answer{}
			}
			sec.Questions = append(sec.Questions, form.Question{
				ID:           q.ID,
				Text:         q.Text,
				Answers:      ans,
				Dependencies: deps,
			})
		}
		SortQuestions(sec.Questions)
		spec.Sections = append(spec.Sections, sec)
	}
	SortSections(spec.Sections)

	opts.Logger.Debug("compiled form",
		"sections", len(spec.Sections),
		"questions", spec.QuestionCount(),
		"diagnostics", len(diags))
	return spec
}

func quote(s string) string { return strconv.Quote(s) }
