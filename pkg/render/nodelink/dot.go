package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowform/pkg/flow"
	"github.com/matzehuels/flowform/pkg/render"
)

// Options configures diagram rendering.
type Options struct {
	// Title is drawn above the diagram when set.
	Title string
	// Detailed prefixes labels with node ids.
	Detailed bool
}

// ToDOT converts a flow graph to Graphviz DOT. Sections are drawn as tabs,
// questions as diamonds and recommendations as rounded green boxes.
// Multiple-choice edges are dashed. Edge endpoints that were never declared
// are drawn in red so broken references stand out.
func ToDOT(g *flow.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=14, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=12];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  labelloc=t;\n  label=%q;\n", opts.Title)
	}
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.NodeID(), strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	missing := make(map[string]bool)
	for _, e := range g.Edges() {
		for _, id := range []string{e.From, e.To} {
			if !g.Has(id) && !missing[id] {
				missing[id] = true
				fmt.Fprintf(&buf, "  %q [shape=plaintext, fontcolor=red, label=%q];\n", id, id+"?")
			}
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		var attrs []string
		if e.Labeled() {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		if e.Multiple {
			attrs = append(attrs, "style=dashed")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n flow.Node, detailed bool) []string {
	var text string
	var attrs []string
	switch n := n.(type) {
	case flow.Section:
		text = n.Title
		attrs = []string{"shape=tab", "fillcolor=\"#dbeafe\"", "fontname=\"Helvetica-Bold\""}
	case flow.Question:
		text = n.Text
		attrs = []string{"shape=diamond", "fillcolor=\"#fef9c3\""}
	case flow.Recommendation:
		text = n.Text
		attrs = []string{"shape=box", "style=\"rounded,filled\"", "fillcolor=\"#dcfce7\""}
	}
	if detailed {
		text = n.NodeID() + ": " + text
	}
	return append([]string{fmt.Sprintf("label=%q", text)}, attrs...)
}

// RenderSVG lays out DOT source with the embedded Graphviz and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPDF renders DOT source to PDF. Requires rsvg-convert.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source to PNG at the given scale. Requires rsvg-convert.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag, which carries pt units and a
// translated origin, with one sized in plain pixels.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
