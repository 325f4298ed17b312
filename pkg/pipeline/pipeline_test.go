package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowform/pkg/cache"
	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/observability"
)

const diagram = `---
title: Planning
---
flowchart TD
A[**1 Intro**]
B{Has deadline?}
A --> B
B -->|Yes| C[Use calendar]
B -->|No| D{Recurring?}
D -->|Weekly| C`

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Source: diagram}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Placeholder != "(select)" {
		t.Errorf("Placeholder = %q", opts.Placeholder)
	}
	if opts.MaxChainDepth != 32 {
		t.Errorf("MaxChainDepth = %d", opts.MaxChainDepth)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default")
	}

	opts.Placeholder = "changed"
	if err := opts.ValidateAndSetDefaults(); err != nil || opts.Placeholder != "changed" {
		t.Errorf("second call should be a no-op, got %q, %v", opts.Placeholder, err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"empty source", Options{Source: "  \n"}, errors.ErrCodeInvalidInput},
		{"unknown format", Options{Source: diagram, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"repeated format", Options{Source: diagram, Formats: []string{"dot", "DOT"}}, errors.ErrCodeInvalidFormat},
		{"too large", Options{Source: strings.Repeat("x", errors.MaxSourceBytes+1)}, errors.ErrCodeSourceTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFormatsNormalized(t *testing.T) {
	opts := Options{Source: diagram, Formats: []string{" JSON", "Dot"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Formats[0] != "json" || opts.Formats[1] != "dot" {
		t.Errorf("Formats = %v", opts.Formats)
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Source: diagram, Formats: []string{"json", "dot"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid", res.RunID)
	}
	if res.SourceHash != cache.HashString(diagram) {
		t.Error("SourceHash mismatch")
	}
	if res.Spec.Title != "Planning" {
		t.Errorf("Title = %q", res.Spec.Title)
	}
	if res.Stats.Sections != 1 || res.Stats.Questions != 2 || res.Stats.Answers != 3 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Stats.Dependencies == 0 {
		t.Error("D should depend on B")
	}
	if !bytes.Contains(res.Artifacts["json"], []byte(`"title": "Planning"`)) {
		t.Errorf("json artifact: %s", res.Artifacts["json"])
	}
	if !bytes.HasPrefix(res.Artifacts["dot"], []byte("digraph")) {
		t.Errorf("dot artifact: %s", res.Artifacts["dot"])
	}
	if res.CacheInfo.CompileHit || res.CacheInfo.RenderHit {
		t.Error("NullCache cannot hit")
	}
}

func TestExecuteEmptyDiagram(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Source: "flowchart TD\nB{Lonely?}"})
	if !errors.Is(err, errors.ErrCodeEmptyDiagram) {
		t.Errorf("error = %v, want EMPTY_DIAGRAM", err)
	}
}

func newMemoryRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecuteCaching(t *testing.T) {
	r := newMemoryRunner(t)
	ctx := context.Background()
	opts := Options{Source: diagram, Formats: []string{"json", "dot"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.CompileHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if first.RunID == second.RunID {
		t.Error("each run needs its own id")
	}
	for f, data := range first.Artifacts {
		if !bytes.Equal(data, second.Artifacts[f]) {
			t.Errorf("cached %s differs", f)
		}
	}
	if second.Spec.QuestionCount() != first.Spec.QuestionCount() {
		t.Error("cached spec lost questions")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.CompileHit || third.CacheInfo.RenderHit {
		t.Errorf("Refresh should bypass reads, got %+v", third.CacheInfo)
	}
}

func TestCompilerOptionsChangeKeys(t *testing.T) {
	r := newMemoryRunner(t)
	ctx := context.Background()

	if _, err := r.Execute(ctx, Options{Source: diagram}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Source: diagram, Placeholder: "(choose)"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.CompileHit || res.CacheInfo.RenderHit {
		t.Errorf("placeholder change should miss, got %+v", res.CacheInfo)
	}
}

func TestGraphFormatAfterCachedSpec(t *testing.T) {
	r := newMemoryRunner(t)
	ctx := context.Background()

	if _, err := r.Execute(ctx, Options{Source: diagram, Formats: []string{"json"}}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Source: diagram, Formats: []string{"json", "dot"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.CompileHit || res.CacheInfo.RenderHit {
		t.Errorf("CacheInfo = %+v, want compile hit and render miss", res.CacheInfo)
	}
	if !strings.Contains(string(res.Artifacts["dot"]), `label="Planning"`) {
		t.Errorf("dot from recompiled graph:\n%s", res.Artifacts["dot"])
	}
}

func TestRenderNeedsGraph(t *testing.T) {
	res, err := Compile(Options{Source: diagram})
	if err != nil {
		t.Fatal(err)
	}
	res.Graph = nil

	if _, err := Render(context.Background(), res, Options{Formats: []string{"json"}}); err != nil {
		t.Errorf("json needs no graph: %v", err)
	}
	if _, err := Render(context.Background(), res, Options{Formats: []string{"dot"}}); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("dot without graph: %v", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu       sync.Mutex
	compiles int
	renders  [][]string
}

func (h *recordingHooks) OnCompileComplete(_ context.Context, _ string, _ observability.CompileStats, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.compiles++
}

func (h *recordingHooks) OnRenderStart(_ context.Context, formats []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders = append(h.renders, formats)
}

func TestPipelineHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := newMemoryRunner(t)
	ctx := context.Background()
	opts := Options{Source: diagram, Formats: []string{"dot"}}
	for range 2 {
		if _, err := r.Execute(ctx, opts); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.compiles != 1 {
		t.Errorf("compiles = %d, want 1 (second run is cached)", hooks.compiles)
	}
	if len(hooks.renders) != 1 || hooks.renders[0][0] != "dot" {
		t.Errorf("renders = %v", hooks.renders)
	}
}
