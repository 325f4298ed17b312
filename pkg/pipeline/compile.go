package pipeline

import (
	"github.com/matzehuels/flowform/pkg/compiler"
	"github.com/matzehuels/flowform/pkg/errors"
)

// Compile compiles opts.Source without caching. A diagram that yields no
// sections is an EMPTY_DIAGRAM error; other problems are diagnostics on the
// returned spec.
func Compile(opts Options) (*compiler.Result, error) {
	opts.SetCompileDefaults()
	res := compiler.Compile(opts.Source, opts.CompilerOptions())
	if len(res.Spec.Sections) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDiagram,
			"diagram has no sections (%d nodes, %d diagnostics)", res.Graph.NodeCount(), len(res.Spec.Diagnostics))
	}
	return res, nil
}
