package pipeline

import (
	"bytes"
	"context"

	"github.com/matzehuels/flowform/pkg/compiler"
	"github.com/matzehuels/flowform/pkg/errors"
	specio "github.com/matzehuels/flowform/pkg/io"
	"github.com/matzehuels/flowform/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. The json
// format needs only res.Spec; the graph formats need res.Graph.
func Render(ctx context.Context, res *compiler.Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	var dot string
	if needsGraph(opts.Formats) {
		if res.Graph == nil {
			return nil, errors.New(errors.ErrCodeInternal, "render: no graph for %v", opts.Formats)
		}
		dot = nodelink.ToDOT(res.Graph, nodelink.Options{Title: res.Spec.Title, Detailed: opts.Detailed})
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = specio.WriteSpec(res.Spec, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, PNGScale)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func needsGraph(formats []string) bool {
	for _, f := range formats {
		if f != FormatJSON {
			return true
		}
	}
	return false
}
