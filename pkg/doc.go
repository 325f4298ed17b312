// Package pkg provides the libraries behind flowform, which turns a Mermaid
// flowchart into an interactive form.
//
// # Overview
//
// A diagram names sections with bold numbered rectangles, questions with
// decision nodes and answers with the edges and nodes hanging off them. The
// compiler turns it into a [form] spec; the [visibility] engine then decides,
// as answers change, which questions are shown.
//
// # Architecture
//
//	Mermaid text (file, stdin, URL)
//	         ↓
//	    [source]      load the text
//	         ↓
//	    [diagram]     front matter + tokens
//	         ↓
//	    [flow]        typed graph with diagnostics
//	         ↓
//	    [compiler]    sections, questions, answers, dependencies
//	         ↓
//	    [form]        the spec, serialized by [io]
//	         ↓
//	    [visibility]  fixed-point show/hide over a filled-in form
//	         ↓
//	    [summary]     answers and recommendations per section
//
// [pipeline] wraps compile and render with the [cache] so the CLI and the
// HTTP server behave the same; [render/nodelink] draws the flowchart with
// Graphviz.
//
// # Quick Start
//
//	res, err := pipeline.Compile(pipeline.Options{Source: src})
//	if err != nil {
//	    return err
//	}
//	st := visibility.FromSpec(res.Spec)
//	engine := visibility.NewEngine(0, nil)
//	engine.Update(st)
//	_ = st.Select("B", "No")
//	engine.Update(st)
//	fmt.Println(summary.Build(res.Spec, st))
//
// # Supporting Packages
//
// [config] layers defaults, a TOML or YAML file, .env and FLOWFORM_*
// variables. [errors] carries the coded errors every layer returns.
// [observability] lets a binary hook metrics into compile, render and
// visibility updates. [buildinfo] holds the version stamped in at build time.
//
// [source]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/source
// [diagram]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/diagram
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/flow
// [compiler]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/compiler
// [form]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/form
// [io]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/io
// [visibility]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/visibility
// [summary]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/summary
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/cache
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/render/nodelink
// [config]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/flowform/pkg/buildinfo
package pkg
