// Package pipeline runs the compile → render pipeline for flowform.
//
// The CLI and the HTTP server both go through a [Runner], so caching,
// defaults and empty-diagram handling behave the same everywhere.
//
// # Stages
//
//  1. Compile: diagram text to a [form.Spec], cached by source hash and
//     compiler options
//  2. Render: spec or graph to artifacts (json, dot, svg, pdf, png), cached
//     per format
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  src,
//	    Formats: []string{"json", "svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowform/pkg/cache"
	"github.com/matzehuels/flowform/pkg/compiler"
	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/flow"
	"github.com/matzehuels/flowform/pkg/form"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// SupportedFormats lists every format Render accepts, in display order.
var SupportedFormats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPDF, FormatPNG}

// DefaultFormats is used when Options.Formats is empty.
var DefaultFormats = []string{FormatJSON}

// PNGScale is the rasterization scale for png output.
const PNGScale = 2.0

// Options configures a pipeline run. It is the JSON body of API requests.
type Options struct {
	// Source is the diagram text.
	Source string `json:"source"`

	// Compile options
	Placeholder   string `json:"placeholder,omitempty"`
	MaxChainDepth int    `json:"max_chain_depth,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // prefix graph labels with node ids

	// Refresh skips cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the source and formats and fills in defaults.
// Calling it again is a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateSource([]byte(o.Source)); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.SetCompileDefaults()
	o.validated = true
	return nil
}

// SetCompileDefaults fills in compiler defaults.
func (o *Options) SetCompileDefaults() {
	if o.Placeholder == "" {
		o.Placeholder = form.DefaultPlaceholder
	}
	if o.MaxChainDepth <= 0 {
		o.MaxChainDepth = compiler.DefaultMaxChainDepth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender normalizes and checks Formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
	for i, f := range o.Formats {
		o.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return errors.ValidateFormats(o.Formats, SupportedFormats)
}

// CompilerOptions returns the options passed to the compiler.
func (o *Options) CompilerOptions() compiler.Options {
	return compiler.Options{
		Placeholder:   o.Placeholder,
		MaxChainDepth: o.MaxChainDepth,
		Logger:        o.Logger,
	}
}

// SpecKeyOpts returns cache key options for the compile stage.
func (o *Options) SpecKeyOpts() cache.SpecKeyOpts {
	return cache.SpecKeyOpts{
		Placeholder:   o.Placeholder,
		MaxChainDepth: o.MaxChainDepth,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Spec:     o.SpecKeyOpts(),
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and API responses.
	RunID string

	// SourceHash is the content hash of Options.Source.
	SourceHash string

	// Spec is the compiled form.
	Spec *form.Spec

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Diagnostics are the non-fatal problems found while compiling.
	Diagnostics []flow.Diagnostic

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains sizes and timings of a run.
type Stats struct {
	Sections     int
	Questions    int
	Answers      int
	Dependencies int
	CompileTime  time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	CompileHit bool
	RenderHit  bool // all requested artifacts came from the cache
}

func newResult(sourceHash string) *Result {
	return &Result{
		RunID:      uuid.NewString(),
		SourceHash: sourceHash,
		Artifacts:  make(map[string][]byte),
	}
}

func specStats(spec *form.Spec) Stats {
	var s Stats
	s.Sections = len(spec.Sections)
	for _, sec := range spec.Sections {
		s.Questions += len(sec.Questions)
		for _, q := range sec.Questions {
			s.Answers += len(q.Answers)
			s.Dependencies += len(q.Dependencies)
		}
	}
	return s
}
