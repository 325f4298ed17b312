// Package render holds output helpers shared by renderers.
//
// [ToPDF] and [ToPNG] convert SVG produced by a renderer such as
// [nodelink] into other formats with the external rsvg-convert tool.
//
// [nodelink]: github.com/matzehuels/flowform/pkg/render/nodelink
package render
